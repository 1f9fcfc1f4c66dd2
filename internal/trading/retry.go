package trading

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/sandeep-jaiswar/core/internal/apperr"
)

// Retrier re-runs the whole trade-placement unit on transient failure with
// a fixed delay between attempts. Business-rule and validation failures are
// returned immediately: retrying them would not change the outcome.
// Idempotency across attempts is guaranteed by the order reference, which
// resolves duplicate submissions to the already-created trade.
type Retrier struct {
	attempts int
	delay    time.Duration
	log      zerolog.Logger
}

func NewRetrier(attempts int, delay time.Duration, log zerolog.Logger) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{attempts: attempts, delay: delay, log: log.With().Str("component", "trade-retry").Logger()}
}

func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == r.attempts {
			break
		}
		r.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("transient failure, retrying")
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// retryable accepts classified transient errors plus the postgres
// serialization and deadlock failures that a Serializable settlement
// transaction can surface.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return apperr.IsRetryable(err)
}
