package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

// WeakPasswordError reports the first policy rule the password failed.
// The reason is user-facing.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + e.Reason
}

// Common weak passwords to reject regardless of character classes
var commonPasswords = map[string]bool{
	"password":     true,
	"password1!":   true,
	"password123":  true,
	"password123!": true,
	"passw0rd":     true,
	"12345678":     true,
	"123456789":    true,
	"qwerty123":    true,
	"letmein":      true,
	"welcome1":     true,
	"sunshine":     true,
	"princess":     true,
	"starwars":     true,
	"football":     true,
	"trustno1":     true,
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword checks the password policy and fails closed on the first
// unmet rule. Rules are checked in a fixed order so the reported reason is
// deterministic.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return &WeakPasswordError{Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLen)}
	}
	if len(password) > MaxPasswordLen {
		return &WeakPasswordError{Reason: fmt.Sprintf("must be at most %d characters", MaxPasswordLen)}
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return &WeakPasswordError{Reason: "must contain at least one uppercase letter"}
	}
	if !hasLower {
		return &WeakPasswordError{Reason: "must contain at least one lowercase letter"}
	}
	if !hasDigit {
		return &WeakPasswordError{Reason: "must contain at least one digit"}
	}
	if !hasSpecial {
		return &WeakPasswordError{Reason: "must contain at least one special character"}
	}

	if commonPasswords[strings.ToLower(password)] {
		return &WeakPasswordError{Reason: "is too common, please choose a more unique password"}
	}

	return nil
}
