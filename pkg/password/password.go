// Package password hashes and verifies component secrets with bcrypt. Used
// by internal/identity when verifying the secret presented on the `/user`
// endpoint's password field.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12
)

// HashPassword hashes a component secret using bcrypt.
func HashPassword(secret string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyPassword verifies a component secret against its stored hash.
func VerifyPassword(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}

// IsValidPassword checks if a secret meets minimum requirements.
func IsValidPassword(secret string) bool {
	return len(secret) >= 8
}

