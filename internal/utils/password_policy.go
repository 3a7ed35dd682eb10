package utils

import (
	"errors"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

var (
	ErrPasswordTooShort   = errors.New("password must contain at least 8 characters")
	ErrPasswordNumeric    = errors.New("password can't be entirely numeric")
	ErrPasswordCommon     = errors.New("password is too common")
	ErrPasswordTooSimilar = errors.New("password is too similar to your personal information")
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "qwerty123": {},
	"qwertyuiop": {}, "iloveyou": {}, "sunshine": {}, "princess": {},
	"football": {}, "baseball": {}, "welcome1": {}, "letmein1": {},
	"trustno1": {}, "superman": {}, "whatever": {}, "11111111": {},
	"abc12345": {}, "admin123": {}, "changeme": {}, "starwars": {},
}

// ValidatePassword applies the account password rules. attributes are
// personal values (username, email, names) the password must not resemble.
func ValidatePassword(password string, attributes ...string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if isNumeric(password) {
		return ErrPasswordNumeric
	}
	lowered := strings.ToLower(password)
	if _, ok := commonPasswords[lowered]; ok {
		return ErrPasswordCommon
	}
	for _, attribute := range attributes {
		for _, part := range attributeParts(attribute) {
			if len(part) < 3 {
				continue
			}
			if strings.Contains(lowered, part) || strings.Contains(part, lowered) {
				return ErrPasswordTooSimilar
			}
		}
	}
	return nil
}

func isNumeric(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return value != ""
}

// attributeParts splits "first.last@example.com" into the whole value and
// its word-like pieces.
func attributeParts(attribute string) []string {
	attribute = strings.ToLower(strings.TrimSpace(attribute))
	if attribute == "" {
		return nil
	}
	parts := []string{attribute}
	fields := strings.FieldsFunc(attribute, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) > 1 {
		parts = append(parts, fields...)
	}
	return parts
}
