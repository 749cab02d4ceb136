package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength applies to every password accepted at
	// registration or password change.
	MinPasswordLength = 8
	// MaxPasswordLength caps input at bcrypt's 72-byte limit; longer
	// passwords would be silently truncated by the hash.
	MaxPasswordLength = 72

	bcryptCost = 14
)

// ErrWrongPassword is returned when a password does not match its
// stored hash.
var ErrWrongPassword = errors.New("invalid password")

// HashPassword validates the password against the account rules and
// returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a candidate password with a stored hash.
// A mismatch is ErrWrongPassword; anything else is a hash failure.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return fmt.Errorf("failed to check password: %w", err)
	}
	return nil
}

// ValidatePasswordStrength enforces the account password rules: length
// within bounds, at least one letter and at least one digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return errors.New("password must contain at least one letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one number")
	}
	return nil
}
