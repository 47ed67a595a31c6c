package auth

import (
	"strings"
	"unicode"
)

const passwordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// validatePhone accepts 10-15 digits after stripping formatting characters
// (spaces, dashes, parens, leading +).
func validatePhone(phone string) error {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < 10 || digits > 15 {
		return validationErr("Invalid phone number format")
	}
	return nil
}

// validatePassword enforces the strength rules in fixed order:
// length, uppercase, digit, symbol. The first violated rule is reported.
func validatePassword(password string) error {
	if len(password) < 8 {
		return validationErr("Password must be at least 8 characters")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return validationErr("Password must contain uppercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return validationErr("Password must contain number")
	}
	if !strings.ContainsAny(password, passwordSymbols) {
		return validationErr("Password must contain special character")
	}
	return nil
}
