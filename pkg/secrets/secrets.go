// Package secrets wraps password hashing for admin accounts.
package secrets

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash returns a bcrypt hash of the given password.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether the password matches the stored hash.
func Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
