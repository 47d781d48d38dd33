package database

import (
	"errors"
	"strings"
	"time"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrRetryExhausted is returned when a transaction kept hitting lock
// contention through every allowed attempt. The last underlying store error
// is wrapped and reachable via errors.Unwrap.
var ErrRetryExhausted = errors.New("transaction retries exhausted")

// errRetryableMarker lets tests and non-postgres callers flag an error as
// contention without a real deadlock.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// MarkRetryable wraps err so IsRetryable reports it as lock contention.
func MarkRetryable(err error) error {
	return &retryableError{err: err}
}

// IsRetryable reports whether err belongs to the lock-contention class:
// deadlock detected or lock-wait timeout. Anything else, including not-found
// and constraint violations, must propagate without retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var marked *retryableError
	if errors.As(err, &marked) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40P01 deadlock_detected, 55P03 lock_not_available.
		return pgErr.Code == "40P01" || pgErr.Code == "55P03"
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") || strings.Contains(msg, "lock wait timeout")
}

// WithRetry executes fn inside a transaction, retrying on lock contention
// with bounded exponential backoff: min(maxDelay, baseDelay << attempt). The
// unit of work must be safe to re-run from a clean transaction start; every
// failed attempt is fully rolled back before the next begins.
func WithRetry(db *gorm.DB, cfg config.RetryConfig, lockTimeout time.Duration, fn func(tx *gorm.DB) error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		err := RunInTransaction(db, lockTimeout, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}

		lastErr = err
		delay := cfg.BaseDelay << uint(attempt+1)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		logger.Warn("tx_contention_retry", map[string]interface{}{
			"attempt":     attempt + 1,
			"max_retries": cfg.MaxRetries,
			"delay_ms":    delay.Milliseconds(),
			"error":       err.Error(),
		})

		time.Sleep(delay)
	}

	return &exhaustedError{cause: lastErr}
}

type exhaustedError struct{ cause error }

func (e *exhaustedError) Error() string {
	return ErrRetryExhausted.Error() + ": " + e.cause.Error()
}

func (e *exhaustedError) Unwrap() error { return e.cause }

func (e *exhaustedError) Is(target error) bool { return target == ErrRetryExhausted }
