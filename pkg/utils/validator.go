package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxStringLength bounds free-text fields such as names and descriptions.
const MaxStringLength = 255

// MaxInvoiceNumberLength bounds invoice numbers.
const MaxInvoiceNumberLength = 50

var invoiceNumberRegex = regexp.MustCompile(`^[A-Za-z0-9\-_]+$`)

// ValidateRequired checks that a trimmed value is present and within maxLen runes.
func ValidateRequired(field, value string, maxLen int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s is required", field)
	}
	return ValidateLength(field, trimmed, maxLen)
}

// ValidateLength checks that value has at most maxLen runes.
func ValidateLength(field, value string, maxLen int) error {
	if maxLen > 0 && utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%s cannot exceed %d characters", field, maxLen)
	}
	return nil
}

// ValidateEmail requires a non-empty address containing "@".
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return ValidateLength("email", email, MaxStringLength)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateInvoiceNumber allows letters, digits, hyphens and underscores.
func ValidateInvoiceNumber(number string) error {
	if number == "" {
		return fmt.Errorf("invoice number is required")
	}
	if len(number) > MaxInvoiceNumberLength {
		return fmt.Errorf("invoice number cannot exceed %d characters", MaxInvoiceNumberLength)
	}
	if !invoiceNumberRegex.MatchString(number) {
		return fmt.Errorf("invoice number may only contain letters, digits, hyphens and underscores: %s", number)
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// SanitizeString strips control characters and surrounding whitespace, keeping newlines and tabs.
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
