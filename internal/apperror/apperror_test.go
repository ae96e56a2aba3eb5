package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{"not found", NotFound("game", "g1"), ErrNotFound, "game not found with id g1"},
		{"validation", ValidationFailed("names", "at least one name is required"), ErrValidation, "at least one name is required"},
		{"conflict", Conflict("game", "g1"), ErrConflict, "game conflict with id g1"},
		{"invalid state", InvalidState("carpool entry", "p1", "not pending"), ErrInvalidState, "carpool entry p1: not pending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestCapacityExceeded(t *testing.T) {
	err := fmt.Errorf("accept: %w", CapacityExceeded("driver", "d1", 2, 1))

	require.ErrorIs(t, err, ErrCapacityExceeded)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Requested)
	assert.Equal(t, 1, capErr.Available)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestFieldIsKept(t *testing.T) {
	var appErr *AppError
	require.True(t, errors.As(ValidationFailed("newName", "blank"), &appErr))
	assert.Equal(t, "newName", appErr.Field)
}
