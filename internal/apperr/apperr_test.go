package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Validation, KindOf(Validationf("bad input")))
	assert.Equal(t, NotFound, KindOf(NotFoundf("missing")))
	assert.Equal(t, BusinessRule, KindOf(New(BusinessRule, CodeInsufficientBalance, "no funds")))
	assert.Equal(t, Transient, KindOf(Transientf(errors.New("down"), "db")))
	assert.Equal(t, Transient, KindOf(errors.New("unclassified")), "unknown errors default to transient")
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("placing trade: %w", New(BusinessRule, CodeInvalidState, "already executed"))
	assert.Equal(t, BusinessRule, KindOf(err))
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transientf(cause, "load account")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "load account")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transientf(nil, "db unavailable")))
	assert.False(t, IsRetryable(Validationf("bad input")))
	assert.False(t, IsRetryable(New(BusinessRule, CodeInsufficientShares, "not enough shares")))
	assert.False(t, IsRetryable(NotFoundf("missing")))
}
