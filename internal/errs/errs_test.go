package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableClassification(t *testing.T) {
	base := errors.New("connection reset")
	wrapped := NewRetryable("query_macro_observations", base)

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, base)
}

func TestFatalClassification(t *testing.T) {
	base := errors.New("composite weights sum to 0.97")
	wrapped := NewFatal("composite_builder", base)

	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, base)
}

func TestPlainErrorIsNeitherClass(t *testing.T) {
	plain := errors.New("not classified")
	assert.False(t, IsRetryable(plain))
	assert.False(t, IsFatal(plain))
}
