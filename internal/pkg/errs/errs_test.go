package errs_test

import (
	"errors"
	"testing"

	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	err := errs.NewObjectNotFoundError("lot", "8f1c")

	assert.Equal(t, "object not found: 8f1c", err.Error())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.NoError(t, err.Cause)

	withCause := errs.NewObjectNotFoundErrorWithCause("product", "roses-50", errors.New("catalog timeout"))
	assert.Equal(t,
		"object not found: param is: product, ID is: roses-50 (cause: catalog timeout)",
		withCause.Error())
	require.ErrorIs(t, withCause, errs.ErrObjectNotFound)
}

func TestValidationErrors(t *testing.T) {
	cause := errors.New("not a phone number")

	tests := []struct {
		name     string
		err      error
		message  string
		sentinel error
	}{
		{
			name:     "invalid",
			err:      errs.NewValueIsInvalidError("delivery method"),
			message:  "value is invalid: delivery method",
			sentinel: errs.ErrValueIsInvalid,
		},
		{
			name:     "invalid with cause",
			err:      errs.NewValueIsInvalidErrorWithCause("customer phone", cause),
			message:  "value is invalid: customer phone (cause: not a phone number)",
			sentinel: errs.ErrValueIsInvalid,
		},
		{
			name:     "required",
			err:      errs.NewValueIsRequiredError("florist name"),
			message:  "value is required: florist name",
			sentinel: errs.ErrValueIsRequired,
		},
		{
			name:     "required with cause",
			err:      errs.NewValueIsRequiredErrorWithCause("reason", cause),
			message:  "value is required: reason (cause: not a phone number)",
			sentinel: errs.ErrValueIsRequired,
		},
		{
			name:     "out of range",
			err:      errs.NewValueIsOutOfRangeError("quality score", 7, 1, 5),
			message:  "value is invalid: 7 is quality score, min value is 1, max value is 5",
			sentinel: errs.ErrValueIsOutOfRange,
		},
		{
			name:     "out of range with cause",
			err:      errs.NewValueIsOutOfRangeErrorWithCause("quantity", 0, 1, "unbounded", cause),
			message:  "value is invalid: 0 is quantity, min value is 1, max value is unbounded (cause: not a phone number)",
			sentinel: errs.ErrValueIsOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			require.ErrorIs(t, tt.err, tt.sentinel)
			assert.False(t, errs.IsRetryable(tt.err))
		})
	}
}

func TestUserInputStaysOnOneLine(t *testing.T) {
	err := errs.NewValueIsOutOfRangeError("comment", "left at\r\nthe door", 0, 10)

	assert.Contains(t, err.Error(), "left at  the door")
	assert.NotContains(t, err.Error(), "\n")

	notFound := errs.NewObjectNotFoundError("order", "a\nb")
	assert.Equal(t, "object not found: a b", notFound.Error())
}
