package treeerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorParts(t *testing.T) {
	assert.Equal(t, "R3", GetErrorCode(ErrInsufficientFunds))
	assert.Equal(t, "InsufficientFunds", GetErrorName(ErrInsufficientFunds))
	assert.Equal(t, "R3_InsufficientFunds", GetErrorCodeWithName(ErrInsufficientFunds))
	assert.Equal(t, "Funding source cannot cover the required deposit.", GetErrorDesc(ErrInsufficientFunds))
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, "", GetErrorCode(nil))
}

func TestWrappedErrors(t *testing.T) {
	inner := fmt.Errorf("need 10 have 3: %w", ErrInsufficientFunds)
	err := fmt.Errorf("%w: %w", ErrGrow, inner)

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, "Grow", GetErrorName(err))
	assert.Equal(t, "R7", GetErrorCode(err))

	plain := errors.New("boom")
	assert.Equal(t, "boom", GetErrorName(plain))
	assert.Equal(t, "", GetErrorCode(plain))
	assert.Equal(t, []string{"Decode", "boom"}, GetErrorNames([]error{ErrDecode, plain}))
}
