package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := NewError(ErrSearchFailed, "backend returned 503")
	assert.Equal(t, "[SEARCH_FAILED] backend returned 503", e.Error())

	wrapped := WrapError(ErrFetchTimeout, "fetch https://example.com", errors.New("deadline exceeded"))
	assert.Contains(t, wrapped.Error(), "FETCH_TIMEOUT")
	assert.Contains(t, wrapped.Error(), "deadline exceeded")
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := WrapError(ErrOracleUnavailable, "infer", cause)

	require.ErrorIs(t, e, cause)
	assert.Equal(t, ErrOracleUnavailable, CodeOf(fmt.Errorf("phase clarify: %w", e)))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, WrapError(ErrSearchFailed, "s", nil).Retryable)
	assert.True(t, WrapError(ErrOracleTimeout, "o", nil).Retryable)
	assert.False(t, WrapError(ErrNodeNotRegistered, "n", nil).Retryable)
	assert.False(t, WrapError(ErrCheckpointSave, "c", nil).Retryable)
}
