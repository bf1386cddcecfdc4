package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxFieldLength bounds descriptive entity fields.
const MaxFieldLength = 190

// RequiredText trims value and records a failure when it is empty or too long.
func RequiredText(errs *FieldErrors, field, value string, maxLength int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		errs.Add(field, "is required")
		return ""
	}
	if utf8.RuneCountInString(trimmed) > maxLength {
		errs.Add(field, fmt.Sprintf("exceeds %d characters", maxLength))
	}
	return trimmed
}

// OptionalText trims value and records a failure when it is too long.
func OptionalText(errs *FieldErrors, field, value string, maxLength int) string {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) > maxLength {
		errs.Add(field, fmt.Sprintf("exceeds %d characters", maxLength))
	}
	return trimmed
}

// IntInRange records a failure when value lies outside [low, high].
func IntInRange(errs *FieldErrors, field string, value, low, high int) {
	if value < low || value > high {
		errs.Add(field, fmt.Sprintf("must be between %d and %d", low, high))
	}
}
