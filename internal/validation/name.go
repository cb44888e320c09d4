package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateDisplayName validates the profile display name
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("display name is required")
	}

	if utf8.RuneCountInString(trimmed) > 100 {
		return errors.New("display name is too long (max 100 characters)")
	}

	return nil
}

// ValidateBio validates the profile bio. Empty is allowed.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(strings.TrimSpace(bio)) > 500 {
		return errors.New("bio is too long (max 500 characters)")
	}
	return nil
}
