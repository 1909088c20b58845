package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("capture: %w", ErrAlreadyCaptured)
	assert.ErrorIs(t, wrapped, ErrAlreadyCaptured)
	assert.NotErrorIs(t, wrapped, ErrAlreadyRefunded)

	withCause := &Error{Kind: KindValidation, Code: ErrInvalidCard.Code, Message: "x", Err: errors.New("luhn")}
	assert.ErrorIs(t, withCause, ErrInvalidCard)
	assert.Contains(t, withCause.Error(), "luhn")
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Kind
	}{
		{ErrInvalidAmount, KindValidation},
		{ErrInvalidCredentials, KindAuth},
		{ErrAuthorizationNotFound, KindNotFound},
		{ErrNotCaptured, KindConflict},
		{storageError("op", errors.New("db down")), KindStorage},
		{errors.New("plain"), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestStorageError_KeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := storageError("failed to list", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, "storage", KindOf(err).String())
}
