package domain

import (
	"strings"

	"github.com/google/uuid"
)

// IDProvider issues identifiers for newly stored rows.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
// UUIDv7 values sort by creation time, which the report tie-break relies on.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// ParseRef checks that raw looks like an identifier issued by the store and
// returns it in canonical form. It does not check that the row exists.
func ParseRef(field, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", NewValidationError(field, "is required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", NewValidationError(field, "is not a valid id")
	}
	return parsed.String(), nil
}
