package executor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Rendering(t *testing.T) {
	err := capacityExceeded(4)
	assert.Equal(t, "CAPACITY_EXCEEDED: handle table full (capacity 4)", err.Error())

	wrapped := middlewareError("wait failed", errors.New("socket closed"))
	assert.Equal(t, "MIDDLEWARE: wait failed: socket closed", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := middlewareError("context", cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_CodeHelpers(t *testing.T) {
	assert.True(t, IsInvalidArgument(invalidArgument("x")))
	assert.True(t, IsCapacityExceeded(capacityExceeded(1)))
	assert.True(t, IsNotFound(notFound(KindTimer)))

	// Helpers see through wrapping.
	wrapped := fmt.Errorf("outer: %w", notFound(KindSubscription))
	assert.True(t, IsNotFound(wrapped))

	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsInvalidArgument(capacityExceeded(1)))
}
