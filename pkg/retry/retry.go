// Package retry runs operations with bounded, backoff-spaced attempts.
// The retry predicate is driven by the error taxonomy: navigation and
// browser failures retry, an expired session or extraction miss does not.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
)

// Operation is retried until it succeeds or the budget runs out.
type Operation func() error

// OperationWithResult is an Operation that also yields a value.
type OperationWithResult[T any] func() (T, error)

// Config controls one retry loop.
type Config struct {
	// MaxAttempts caps total attempts; 0 means unlimited.
	MaxAttempts int
	Backoff     BackoffStrategy
	RetryIf     func(error) bool
	// OnRetry is invoked before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
	Context context.Context
	Logger  logger.Logger
}

// DefaultConfig retries three times with exponential backoff.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf consults the error taxonomy when the error carries a
// type, treats context cancellation as final, and retries anything else.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return errs.IsRetryable(typed.Type)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Do runs op until it succeeds, fails non-retryably, exhausts the
// attempt budget, or the context is cancelled.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	for attempt := 1; cfg.MaxAttempts == 0 || attempt <= cfg.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				cfg.debug("operation succeeded after retry", map[string]interface{}{"attempt": attempt})
			}
			return nil
		}
		lastErr = err

		if !cfg.RetryIf(err) {
			cfg.debug("error is not retryable", map[string]interface{}{"error": err.Error()})
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		cfg.warn("retrying operation", map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if waitErr := Wait(cfg.Context, delay); waitErr != nil {
			return fmt.Errorf("retry cancelled: %w", waitErr)
		}
	}

	cfg.warn("max retry attempts exceeded", map[string]interface{}{
		"attempts":   cfg.MaxAttempts,
		"last_error": lastErr.Error(),
	})
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// DoWithResult is Do for operations that yield a value.
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}

func (cfg *Config) debug(msg string, fields map[string]interface{}) {
	if cfg.Logger != nil {
		cfg.Logger.DebugWithFields(msg, fields)
	}
}

func (cfg *Config) warn(msg string, fields map[string]interface{}) {
	if cfg.Logger != nil {
		cfg.Logger.WarnWithFields(msg, fields)
	}
}
