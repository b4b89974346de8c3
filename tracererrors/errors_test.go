package tracererrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorParts(t *testing.T) {
	assert.Equal(t, "UnmappedPC", GetErrorName(ErrUnmappedPC))
	assert.Equal(t, "T1", GetErrorCode(ErrUnmappedPC))
	assert.Equal(t, "T1_UnmappedPC", GetErrorCodeWithName(ErrUnmappedPC))
	assert.Equal(t, "A reachable program counter has no value in memory.", GetErrorDesc(ErrUnmappedPC))
}

func TestWrappedErrorParts(t *testing.T) {
	err := fmt.Errorf("decode pc 4: %w", ErrMalformedEncoding)
	assert.Equal(t, "MalformedEncoding", GetErrorName(err))
	assert.Equal(t, "T3", GetErrorCode(err))
	assert.True(t, errors.Is(err, ErrMalformedEncoding))
}

func TestForeignError(t *testing.T) {
	err := errors.New("plain failure")
	assert.Equal(t, "plain failure", GetErrorName(err))
	assert.Equal(t, "", GetErrorCode(err))
	assert.Equal(t, "", GetErrorCodeWithName(err))
	assert.Equal(t, "DESC NOT SET", GetErrorDesc(err))
	assert.Equal(t, "No Error", GetErrorName(nil))
}
