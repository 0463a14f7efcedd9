package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ReadUserIP returns the client address of the request. It is the socket
// peer unless trustProxyHeaders is set, in which case the hop appended by
// the reverse proxy in front of the service wins: the right-most
// X-Forwarded-For entry, then X-Real-Ip.
func ReadUserIP(r *http.Request, trustProxyHeaders bool) (string, error) {
	if trustProxyHeaders {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// client, proxy1, proxy2
			hops := strings.Split(forwarded, ",")
			if ip, err := normalizeIP(strings.TrimSpace(hops[len(hops)-1])); err == nil {
				return ip, nil
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
			if ip, err := normalizeIP(realIP); err == nil {
				return ip, nil
			}
		}
	}
	return normalizeIP(r.RemoteAddr)
}

func normalizeIP(addr string) (string, error) {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return "", fmt.Errorf("ip addr [%s] is invalid", addr)
	}
	return ip.String(), nil
}
