package domain

import (
	"fmt"
	"strings"
)

// Variant selects which pair of collections a deployment serves.
type Variant string

const (
	VariantPrinters Variant = "printers"
	VariantSpaces   Variant = "spaces"
)

// ParseVariant normalizes raw and rejects unknown variants.
func ParseVariant(raw string) (Variant, error) {
	switch variant := Variant(strings.ToLower(strings.TrimSpace(raw))); variant {
	case VariantPrinters, VariantSpaces:
		return variant, nil
	default:
		return "", fmt.Errorf("unknown variant %q (want %q or %q)", raw, VariantPrinters, VariantSpaces)
	}
}

// AnonymousReportsByDefault reports the write policy a variant ships with:
// printer reports may be anonymous, study space reviews may not.
func (v Variant) AnonymousReportsByDefault() bool {
	return v == VariantPrinters
}
