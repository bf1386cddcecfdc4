package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfClassifiesWrappedSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: NewValidationError("name", "is required"), want: KindValidation},
		{name: "service wrapped not found", err: NewServiceError("printers.get", "not_found", ErrNotFound), want: KindNotFound},
		{name: "unauthorized", err: fmt.Errorf("submit: %w", ErrUnauthorized), want: KindUnauthorized},
		{name: "store", err: Unavailable(errors.New("connection refused")), want: KindStoreUnavailable},
		{name: "unknown", err: errors.New("boom"), want: KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestFieldErrorsErr(t *testing.T) {
	var errs FieldErrors
	require.NoError(t, errs.Err())

	errs.Add("rating", "must be between 1 and 5")
	errs.Add("silence", "must be between 1 and 5")
	err := errs.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, FieldsOf(err), 2)
	assert.Equal(t, "validation: 2 errors", err.Error())
}

func TestServiceErrorCode(t *testing.T) {
	err := NewServiceError("reviews.submit", "validation", NewValidationError("rating", "is required"))
	assert.Equal(t, "reviews.submit.validation", CodeOf(err))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestParseRef(t *testing.T) {
	id, err := ParseRef("printer_id", " 0190f7a4-5c1e-7c3a-9f55-3a1b2c3d4e5f ")
	require.NoError(t, err)
	assert.Equal(t, "0190f7a4-5c1e-7c3a-9f55-3a1b2c3d4e5f", id)

	_, err = ParseRef("printer_id", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseRef("printer_id", "not-an-id")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReporterPrefersVerifiedIdentity(t *testing.T) {
	assert.Equal(t, "abc123", Reporter(&Identity{NetID: "abc123"}, "someone-else"))
	assert.Equal(t, "Student", Reporter(nil, "Student"))
	assert.Equal(t, AnonymousReporter, Reporter(&Identity{}, ""))
}
