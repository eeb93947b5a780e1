package errclass

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := ErrSignaturesMissing.WithMessagef("missing %s", "client")

	assert.True(t, errors.Is(err, ErrSignaturesMissing))
	assert.False(t, errors.Is(err, ErrUnavailable))

	wrapped := fmt.Errorf("generating report: %w", err)
	assert.True(t, errors.Is(wrapped, ErrSignaturesMissing))
}

func TestError_Wrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrUnavailable.Wrap(cause)

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "E_UNAVAILABLE: connection refused", err.Error())
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{name: "code only", err: ErrLinkNotFound, expected: "E_LINK_NOT_FOUND"},
		{name: "with message", err: ErrLinkNotFound.WithMessage("abc"), expected: "E_LINK_NOT_FOUND: abc"},
		{
			name:     "with message and cause",
			err:      ErrRecordInvalid.WithMessage("context_json").Wrap(errors.New("bad json")),
			expected: "E_RECORD_INVALID: context_json: bad json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWithMessage_DoesNotMutateClass(t *testing.T) {
	_ = ErrInvalidArgument.WithMessage("x")
	assert.Empty(t, ErrInvalidArgument.Message)
}
