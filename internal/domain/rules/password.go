package rules

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// ValidatePasswordStrength requires at least 8 characters with an upper case
// letter, a lower case letter and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.Validation(code.ErrWeakPassword, "password must be at least 8 characters long")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return apperr.Validation(code.ErrWeakPassword, "password must contain upper case, lower case and digit characters")
	}
	return nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
