// retry.go: exponential-backoff retry executor for L2/datasource
// failures (spec §4.10).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"context"
	"time"
)

// RetryConfig tunes the retry executor's backoff schedule and which
// error kinds are retried.
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RetryableErrors   map[CacheErrorType]bool
}

// DefaultRetryConfig mirrors the default retryable set named in
// spec §4.10.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableErrors: map[CacheErrorType]bool{
			ErrTypeL2Connection: true,
			ErrTypeL2Timeout:    true,
			ErrTypeDataSource:   true,
		},
	}
}

// retryExecutor runs an operation with exponential backoff, retrying
// only error kinds the config marks retryable.
type retryExecutor struct {
	cfg RetryConfig
}

func newRetryExecutor(cfg RetryConfig) *retryExecutor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.RetryableErrors == nil {
		cfg.RetryableErrors = DefaultRetryConfig().RetryableErrors
	}
	return &retryExecutor{cfg: cfg}
}

func (r *retryExecutor) isRetryable(kind CacheErrorType) bool {
	return r.cfg.RetryableErrors[kind]
}

func (r *retryExecutor) delayFor(attempt int) time.Duration {
	d := r.cfg.InitialDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * r.cfg.BackoffMultiplier)
		if d > r.cfg.MaxDelay {
			d = r.cfg.MaxDelay
			break
		}
	}
	return d
}

// ExecuteWithRetry runs operation up to MaxAttempts times, sleeping
// with exponential backoff between attempts, as long as the last
// error is classified as errType and errType is retryable. Context
// cancellation interrupts the backoff sleep.
func (r *retryExecutor) ExecuteWithRetry(ctx context.Context, errType CacheErrorType, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if !r.isRetryable(errType) || attempt >= r.cfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(r.delayFor(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// ExecuteWithFallback runs operation under retry, falling back to
// fallback if every retry attempt fails.
func (r *retryExecutor) ExecuteWithFallback(ctx context.Context, errType CacheErrorType, operation func() error, fallback func() error) error {
	if err := r.ExecuteWithRetry(ctx, errType, operation); err != nil {
		return fallback()
	}
	return nil
}
