package validation

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]{5,34}$`)

// ValidatePhone accepts digits with common separators and an optional leading plus.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return errors.New("invalid phone number")
	}
	return nil
}

func ValidateTown(town string) error {
	trimmed := strings.TrimSpace(town)

	if trimmed == "" {
		return errors.New("town must not be blank")
	}

	if len([]rune(trimmed)) > 50 {
		return errors.New("town is too long (max 50 characters)")
	}

	return nil
}

// NormalizeTown collapses whitespace and title-cases each word.
func NormalizeTown(town string) string {
	fields := strings.Fields(town)
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}

func ValidateChatID(chatID string) error {
	trimmed := strings.TrimSpace(chatID)
	if trimmed == "" {
		return errors.New("telegram chat id must not be blank")
	}
	if len(trimmed) > 50 {
		return errors.New("telegram chat id is too long (max 50 characters)")
	}
	return nil
}
