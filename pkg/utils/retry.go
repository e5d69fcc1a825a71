// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package utils provides utility functions for the attendee auth service.
package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// BackoffFunc returns the wait before retry number n, where n starts at 1.
type BackoffFunc func(n int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryConfig holds retry configuration for operations
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Backoff overrides the exponential schedule derived from BaseDelay and MaxDelay.
	Backoff BackoffFunc
	// ShouldRetry reports whether a failed attempt may be retried. Nil retries every error.
	ShouldRetry func(error) bool
	// Sleep replaces the wall-clock wait between attempts.
	Sleep SleepFunc
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// NewRetryConfig creates a RetryConfig with specified parameters
func NewRetryConfig(maxAttempts int, baseDelay, maxDelay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
}

// LinearBackoff waits n*step before retry n.
func LinearBackoff(step time.Duration) BackoffFunc {
	return func(n int) time.Duration {
		return time.Duration(n) * step
	}
}

// ExponentialBackoff waits base*2^(n-1) before retry n, capped at maxDelay.
func ExponentialBackoff(base, maxDelay time.Duration) BackoffFunc {
	return func(n int) time.Duration {
		delay := time.Duration(1<<uint(n-1)) * base
		if maxDelay > 0 && delay > maxDelay {
			delay = maxDelay
		}
		return delay
	}
}

// Sleep blocks for d, returning early with the context error when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry runs fn up to config.MaxAttempts times. fn receives the 1-based attempt number.
// A non-retryable error is returned unchanged; exhausting the attempts returns *ExhaustedError.
func Retry(ctx context.Context, config RetryConfig, fn func(attempt int) error) error {
	backoff := config.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(config.BaseDelay, config.MaxDelay)
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoff(attempt - 1)

			slog.WarnContext(ctx, "retrying operation",
				"attempt", attempt,
				"total_attempts", maxAttempts,
				"retry_delay_ms", delay.Milliseconds(),
			)

			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("retry cancelled: %w", err)
			}
		}

		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "retry succeeded",
					"attempt", attempt,
					"total_attempts", maxAttempts,
				)
			}
			return nil
		}

		if config.ShouldRetry != nil && !config.ShouldRetry(err) {
			return err
		}

		lastErr = err
		slog.WarnContext(ctx, "operation attempt failed",
			"attempt", attempt,
			"total_attempts", maxAttempts,
			"error", err,
		)
	}

	return &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// RetryWithExponentialBackoff executes a function with exponential backoff retry logic
// The delay between retries follows the formula: baseDelay * 2^(attempt-1)
// The delay is capped at maxDelay to prevent excessively long waits
func RetryWithExponentialBackoff(ctx context.Context, config RetryConfig, fn func() error) error {
	config.Backoff = ExponentialBackoff(config.BaseDelay, config.MaxDelay)
	return Retry(ctx, config, func(int) error {
		return fn()
	})
}
