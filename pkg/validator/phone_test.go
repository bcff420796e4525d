package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneValidator(t *testing.T) {
	validator := NewPhoneValidator()
	assert.NotNil(t, validator)
}

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"0812345678", "0812345678", "Ten digits"},
		{"081 234 5678", "0812345678", "With spaces"},
		{"081-234-5678", "0812345678", "With dashes"},
		{"081.234.5678", "0812345678", "With dots"},
		{"(081) 234 5678", "0812345678", "With parentheses"},
		{"+66812345678", "66812345678", "With country code"},
		{"123456789012345", "123456789012345", "Fifteen digits"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"   ", ErrEmptyPhone, "Blank string"},
		{"123", ErrInvalidLength, "Too short"},
		{"1234567890123456", ErrInvalidLength, "Too long"},
		{"081234567a", ErrInvalidFormat, "Contains letters"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = NormalizeEmail("")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = NormalizeEmail("alice@example")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://res.cloudinary.com/demo/image/upload/a.jpg"))
	assert.True(t, IsHTTPURL("http://example.com"))
	assert.False(t, IsHTTPURL("ftp://example.com/a.jpg"))
	assert.False(t, IsHTTPURL("not a url"))
	assert.False(t, IsHTTPURL("/relative/path.jpg"))
}

func TestIsLetters(t *testing.T) {
	assert.True(t, IsLetters("TH", 2))
	assert.True(t, IsLetters("tha", 3))
	assert.False(t, IsLetters("T1", 2))
	assert.False(t, IsLetters("THA", 2))
}
