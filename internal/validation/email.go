package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322, then
// requires a bare address with a dotted domain ("user@domain" is rejected).
func ValidateEmail(email string) error {
	// Check length (RFC 5321: local part max 64, domain max 255, total max 254 with @)
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	if email == "" {
		return errors.New("email address is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return errors.New("invalid email address format")
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return errors.New("invalid email address format")
	}

	domain := email[at+1:]
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return errors.New("email domain must contain a dot")
	}
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return errors.New("invalid email domain")
		}
	}

	return nil
}
