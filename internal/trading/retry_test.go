package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep-jaiswar/core/internal/apperr"
)

func newTestRetrier(attempts int) *Retrier {
	return NewRetrier(attempts, 0, zerolog.Nop())
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	r := newTestRetrier(3)
	calls := 0

	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperr.Transientf(errors.New("connection reset"), "db unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_DoesNotRetryBusinessRuleFailures(t *testing.T) {
	r := newTestRetrier(3)
	calls := 0

	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return apperr.New(apperr.BusinessRule, apperr.CodeInsufficientBalance, "insufficient balance")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "business rule failures must not be retried")
}

func TestRetrier_DoesNotRetryValidationFailures(t *testing.T) {
	r := newTestRetrier(3)
	calls := 0

	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return apperr.Validationf("quantity must be positive")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_RetriesSerializationFailures(t *testing.T) {
	r := newTestRetrier(3)
	calls := 0

	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetrier_RetriesDeadlocks(t *testing.T) {
	r := newTestRetrier(2)
	calls := 0

	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls, "attempts are exhausted, then the last error surfaces")
}

func TestRetrier_StopsWhenContextCancelled(t *testing.T) {
	r := NewRetrier(5, time.Minute, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	err := r.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		return apperr.Transientf(errors.New("down"), "db unavailable")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
