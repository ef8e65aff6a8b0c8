// breaker.go: downstream-failure circuit breaker (spec §4.6).
//
// Hand-rolled on atomics rather than wrapping a third-party breaker:
// see DESIGN.md for why sony/gobreaker's Counts type doesn't carry the
// last_success_time/open_since fields this breaker needs to expose.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"sync/atomic"
	"time"
)

// BreakerState is one of CLOSED, OPEN, HALF_OPEN.
type BreakerState int32

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// circuitBreaker guards calls to the data loader (or any downstream
// collaborator) behind CLOSED/OPEN/HALF_OPEN states, per spec §4.6's
// transition table. All fields are updated via atomics so Execute
// never blocks on a lock.
type circuitBreaker struct {
	state            atomic.Int32
	failureCount     atomic.Int32
	successCount     atomic.Int32
	lastFailureTime  atomic.Int64
	lastSuccessTime  atomic.Int64
	openSince        atomic.Int64
	halfOpenInFlight atomic.Bool

	failureThreshold int32
	resetTimeout     time.Duration
	tp               TimeProvider
}

func newCircuitBreaker(cfg BreakerConfig, tp TimeProvider) *circuitBreaker {
	b := &circuitBreaker{
		failureThreshold: int32(cfg.FailureThreshold), // #nosec G115 - validated, bounded config value
		resetTimeout:     cfg.ResetTimeout,
		tp:               tp,
	}
	b.state.Store(int32(BreakerClosed))
	return b
}

// State returns the breaker's current state, resolving an expired OPEN
// window to HALF_OPEN as a side-effect-free read.
func (b *circuitBreaker) State() BreakerState {
	s := BreakerState(b.state.Load())
	if s == BreakerOpen && b.resetDeadlinePassed() {
		return BreakerHalfOpen
	}
	return s
}

func (b *circuitBreaker) resetDeadlinePassed() bool {
	openSince := b.openSince.Load()
	return b.tp.Now() >= openSince+b.resetTimeout.Nanoseconds()
}

// Execute runs primary under breaker protection. If the breaker is
// OPEN and the reset timeout has not elapsed, fallback runs
// immediately without invoking primary. If the breaker has just
// transitioned to HALF_OPEN, only one concurrent caller is admitted to
// probe with primary; other concurrent callers fall back.
func (b *circuitBreaker) Execute(primary func() error, fallback func() error) error {
	switch BreakerState(b.state.Load()) {
	case BreakerOpen:
		if !b.resetDeadlinePassed() {
			return fallback()
		}
		if !b.halfOpenInFlight.CompareAndSwap(false, true) {
			return fallback()
		}
		defer b.halfOpenInFlight.Store(false)
		return b.probe(primary, fallback)
	default:
		return b.run(primary, fallback)
	}
}

func (b *circuitBreaker) probe(primary func() error, fallback func() error) error {
	err := primary()
	if err != nil {
		b.trip()
		return fallback()
	}
	b.onSuccess()
	return nil
}

func (b *circuitBreaker) run(primary func() error, fallback func() error) error {
	err := primary()
	if err != nil {
		tripped := b.onFailure()
		if tripped {
			return fallback()
		}
		return err
	}
	b.onSuccess()
	return nil
}

// onFailure records a CLOSED-state failure and trips the breaker once
// failureCount reaches the threshold. Returns true if this call
// tripped the breaker.
func (b *circuitBreaker) onFailure() bool {
	b.lastFailureTime.Store(b.tp.Now())
	count := b.failureCount.Add(1)
	if count >= b.failureThreshold {
		b.trip()
		return true
	}
	return false
}

// trip forces the breaker into OPEN, stamping open_since. Used both
// for a CLOSED breaker reaching its failure threshold and for a failed
// HALF_OPEN probe.
func (b *circuitBreaker) trip() {
	b.state.Store(int32(BreakerOpen))
	b.openSince.Store(b.tp.Now())
}

func (b *circuitBreaker) onSuccess() {
	b.lastSuccessTime.Store(b.tp.Now())
	b.successCount.Add(1)
	if BreakerState(b.state.Load()) != BreakerClosed {
		b.state.Store(int32(BreakerClosed))
	}
	b.failureCount.Store(0)
}

// Reset forces the breaker back to CLOSED with zeroed counters.
func (b *circuitBreaker) Reset() {
	b.state.Store(int32(BreakerClosed))
	b.failureCount.Store(0)
	b.successCount.Store(0)
	b.openSince.Store(0)
}

// BreakerSnapshot is a point-in-time read of breaker fields, per
// spec §3's named field set.
type BreakerSnapshot struct {
	State           BreakerState
	FailureCount    int32
	SuccessCount    int32
	LastFailureTime time.Time
	LastSuccessTime time.Time
	OpenSince       time.Time
}

func (b *circuitBreaker) Snapshot() BreakerSnapshot {
	return BreakerSnapshot{
		State:           b.State(),
		FailureCount:    b.failureCount.Load(),
		SuccessCount:    b.successCount.Load(),
		LastFailureTime: nanosToTime(b.lastFailureTime.Load()),
		LastSuccessTime: nanosToTime(b.lastSuccessTime.Load()),
		OpenSince:       nanosToTime(b.openSince.Load()),
	}
}

func nanosToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
