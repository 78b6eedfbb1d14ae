package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	// ErrPasswordTooShort indicates the supplied password is below the minimum length.
	ErrPasswordTooShort = errors.New("auth: password must be at least 8 characters")
	// ErrPasswordMismatch indicates the password does not match the stored hash.
	ErrPasswordMismatch = errors.New("auth: password mismatch")
)

// PasswordHasher wraps bcrypt hashing behind a fixed cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the bcrypt default cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash derives a bcrypt hash for the supplied plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare checks the plaintext password against the stored hash.
func (h *PasswordHasher) Compare(hashed, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
