// cerberus.go: package constants and version
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import "time"

const (
	// Version of the cerberus cache library.
	Version = "v0.1.0-dev"

	// DefaultNearMaxSize is the default maximum number of near-cache entries.
	DefaultNearMaxSize = 10_000

	// DefaultNearTTL is the default near-cache entry lifetime.
	DefaultNearTTL = 60 * time.Second

	// DefaultFarTTL is the default far-cache entry lifetime.
	DefaultFarTTL = 300 * time.Second

	// DefaultTTLJitterPct is the default (clamped, see put_with_random_ttl)
	// jitter percentage applied to far-cache writes.
	DefaultTTLJitterPct = 20

	// DefaultLockTimeout bounds both the distributed lock acquisition
	// round trip and its auto-release TTL.
	DefaultLockTimeout = 3 * time.Second

	// DefaultExpectedInsertions sizes the membership filter.
	DefaultExpectedInsertions = 100_000

	// DefaultFalsePositiveRate is the membership filter's target FP rate.
	DefaultFalsePositiveRate = 0.01

	// DefaultRebuildThreshold is the estimated FP rate above which
	// Facade.FilterStats logs a rebuild warning.
	DefaultRebuildThreshold = 0.05

	// DefaultNegativeTTL bounds how long an absent result is cached.
	DefaultNegativeTTL = 5 * time.Minute

	// MaxNegativeTTL is the upper bound Validate clamps Negative.TTL to.
	MaxNegativeTTL = 5 * time.Minute

	// DefaultHotKeyThreshold is the access count within DefaultHotKeyWindow
	// at or above which a key is classified hot.
	DefaultHotKeyThreshold = 100

	// DefaultHotKeyWindow is the sliding window used by the hot-key detector.
	DefaultHotKeyWindow = 60 * time.Second

	// DefaultFailureThreshold is the consecutive-failure count that trips
	// the circuit breaker.
	DefaultFailureThreshold = 5

	// DefaultResetTimeout is how long the breaker stays OPEN before
	// allowing a HALF_OPEN probe.
	DefaultResetTimeout = 30 * time.Second

	// invalidateDelay is the fixed gap between the two deletes of a
	// delayed double delete. Not tunable in the core (spec §4.5).
	invalidateDelay = 500 * time.Millisecond

	// lockLostBackoff is the brief sleep before the single re-read of L2
	// when the single-flight branch fails to acquire the distributed lock.
	lockLostBackoff = 50 * time.Millisecond

	// Values passed as the near-cache engine's WindowRatio/CounterBits;
	// the engine accepts but does not read them (see engineConfig). Not
	// exposed through the Near config group, which only names max_size,
	// default_ttl and record_stats.
	defaultWindowRatio = 0.01
	defaultCounterBits = 4
)
