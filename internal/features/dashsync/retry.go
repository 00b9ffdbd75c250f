package dashsync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// TerminalError marks an application-level rejection: the server answered,
// and answered no. Retrying it wastes time and can break idempotency
// assumptions downstream, so the retry controller returns it immediately.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return e.Err.Error() }
func (e *TerminalError) Unwrap() error { return e.Err }

// Terminal wraps err so the retry controller will not retry it.
func Terminal(err error) error {
	return &TerminalError{Err: err}
}

// IsTerminal reports whether err is an application-level rejection.
func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.As(err, &te)
}

// RetryConfig drives the exponential-backoff retry controller. The delay
// before attempt n+1 is BackoffBase * 2^(n-1).
type RetryConfig struct {
	Attempts    int
	BackoffBase time.Duration
}

func DefaultRetry() RetryConfig {
	return RetryConfig{
		Attempts:    3,
		BackoffBase: 500 * time.Millisecond,
	}
}

// Do invokes op until it succeeds, fails terminally, or attempts are
// exhausted. Each failed attempt is logged; the last error surfaces to the
// caller. Context cancellation stops further attempts promptly.
func (rc RetryConfig) Do(ctx context.Context, logger *zap.Logger, name string, op func(ctx context.Context) error) error {
	attempts := rc.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsTerminal(err) {
			return err
		}

		lastErr = err
		logger.Warn("retry attempt failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == attempts {
			break
		}

		delay := rc.BackoffBase << (attempt - 1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
