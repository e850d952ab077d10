package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeError(t *testing.T) {
	cause := errors.New("registry region corrupt")
	err := NewRuntimeError(cause)

	assert.True(t, IsRuntimeError(err))
	assert.False(t, IsTestFailureError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "runtime error")

	wrapped := fmt.Errorf("starting harness: %w", err)
	assert.True(t, IsRuntimeError(wrapped), "detection must see through wrapping")
}

func TestTestFailureError(t *testing.T) {
	err := NewTestFailureError("2 of 8 tests failed")

	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "2 of 8 tests failed")

	wrapped := fmt.Errorf("run once: %w", err)
	assert.True(t, IsTestFailureError(wrapped))
}

func TestErrorChecksOnNil(t *testing.T) {
	require.False(t, IsRuntimeError(nil))
	require.False(t, IsTestFailureError(nil))
	require.False(t, IsRuntimeError(errors.New("plain")))
	require.False(t, IsTestFailureError(errors.New("plain")))
}
