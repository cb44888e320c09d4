package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.example.co.uk",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"user@domain",
		"@missing.com",
		"no-at-sign.com",
		"Jane <jane@example.com>",
		"user@example..com",
		"user@.example.com",
		" user@example.com",
		strings.Repeat("a", 250) + "@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateDisplayNameAndBio(t *testing.T) {
	assert.NoError(t, ValidateDisplayName("Ada"))
	assert.Error(t, ValidateDisplayName("   "))
	assert.Error(t, ValidateDisplayName(strings.Repeat("x", 101)))
	assert.NoError(t, ValidateDisplayName(strings.Repeat("é", 100)))

	assert.NoError(t, ValidateBio(""))
	assert.NoError(t, ValidateBio(strings.Repeat("b", 500)))
	assert.Error(t, ValidateBio(strings.Repeat("b", 501)))
}
