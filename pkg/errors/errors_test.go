package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_TypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidation("bad input"), IsValidation},
		{"unavailable", NewUnavailable("upstream down", nil), IsUnavailable},
		{"rate limit", NewRateLimit("quota exceeded"), IsRateLimit},
		{"unauthorized", NewUnauthorized("no token"), IsUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("preserves app error type", func(t *testing.T) {
		err := Wrap(NewRateLimit("quota exceeded"), "personalization call")
		assert.True(t, IsRateLimit(err))
		assert.Contains(t, err.Error(), "personalization call: quota exceeded")
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		cause := errors.New("socket closed")
		err := Wrap(cause, "fetch sessions")
		assert.Equal(t, ErrorTypeInternal, TypeOf(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("detects wrapped app errors", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", NewUnavailable("circuit open", nil))
		assert.True(t, IsUnavailable(err))
		assert.Equal(t, ErrorTypeUnavailable, TypeOf(err))
	})
}
