package pkg

import (
	"os"
	"unsafe"
)

// BytesToString converts bytes slice to a string without extra allocation
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// LookupEnv returns the value of the first set and non-empty env var from names.
func LookupEnv(names ...string) (string, bool) {
	for _, name := range names {
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val, true
		}
	}
	return "", false
}
