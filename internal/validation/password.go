package validation

import (
	"errors"
	"strings"
	"unicode"
)

var commonPasswords = []string{
	"password", "12345678", "123456789", "qwerty123", "qwertyuiop",
	"11111111", "iloveyou", "admin123", "letmein1", "welcome1",
	"sunshine", "football", "baseball", "princess", "1q2w3e4r",
}

// ValidatePassword validates a registration password.
// Rules: 8..72 characters, not purely numeric, not a common password and
// not the local part of the account's email.
func ValidatePassword(password, email string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return errors.New("password is entirely numeric")
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if lower == common {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if len(local) >= 3 && strings.Contains(lower, local) {
		return errors.New("password is too similar to the email")
	}

	return nil
}
