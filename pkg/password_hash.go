package pkg

import "golang.org/x/crypto/bcrypt"

// PasswordHashCost is the bcrypt work factor used for stored admin passwords.
const PasswordHashCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return BytesToString(bytes), err
}

// CheckPasswordHash reports whether password matches hash.
// A malformed hash is a mismatch, never an error.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
