// Package crypto hashes and verifies account passwords. Only the bcrypt
// hash is ever stored; the plaintext exists for the duration of a request.
package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPasswordAsBcrypt hashes a plaintext password for storage.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash reports whether password matches the stored hash.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
