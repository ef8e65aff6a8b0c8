// config.go: grouped configuration for the cerberus cache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"time"

	"github.com/agilira/go-timecache"
)

// NearConfig tunes the process-local near cache (L1).
type NearConfig struct {
	// MaxSize is the maximum number of entries. Must be > 0.
	MaxSize int

	// DefaultTTL is applied to every entry written to the near cache.
	// Must be > 0.
	DefaultTTL time.Duration

	// RecordStats is not read by the default near cache (NewNearCache):
	// its hit/miss/eviction counters are always kept and Stats() always
	// reports them.
	RecordStats bool
}

// FarConfig tunes the shared, networked far cache (L2).
type FarConfig struct {
	// DefaultTTL is the base TTL before jitter is applied. Must be > 0.
	DefaultTTL time.Duration

	// TTLJitterPct is clamped into [10, 30] before use. See farcache.go
	// for the exact (source-faithful) jitter anomaly: this value is
	// clamped but then discarded in favor of an independently drawn
	// uniform jitter.
	TTLJitterPct int

	// LockTimeout bounds single-flight lock acquisition, both as the
	// lock's auto-release TTL and as the time limit on the acquisition
	// round trip. Must be > 0.
	LockTimeout time.Duration
}

// FilterConfig tunes the penetration-guard membership filter.
type FilterConfig struct {
	// ExpectedInsertions sizes the filter's bit array. Must be > 0.
	ExpectedInsertions int

	// FalsePositiveRate is the target false-positive rate used to
	// derive bit-array size and hash count. Must be in (0, 1).
	FalsePositiveRate float64

	// RebuildThreshold is the estimated-FP-rate above which
	// Facade.FilterStats logs a warning. The filter never rebuilds
	// itself. Must be in (0, 1).
	RebuildThreshold float64
}

// NegativeConfig tunes negative (null-value) caching.
type NegativeConfig struct {
	// Enabled gates whether absent loader results are cached at all.
	Enabled bool

	// TTL bounds how long a negative entry lives. Must be > 0;
	// Validate clamps it to at most MaxNegativeTTL (5 minutes).
	TTL time.Duration
}

// HotkeyConfig tunes the sliding-window hot-key detector.
type HotkeyConfig struct {
	// Threshold is the access count within Window at or above which a
	// key is considered hot. Must be ≥ 1.
	Threshold int

	// Window is the sliding time window over which accesses are counted.
	// Must be > 0.
	Window time.Duration
}

// BreakerConfig tunes the downstream-failure circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker from CLOSED to OPEN. Must be ≥ 1.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays OPEN before admitting
	// one HALF_OPEN probe call. Must be > 0.
	ResetTimeout time.Duration
}

// Config groups every tunable of the cache, per its six collaborator
// groups, plus cross-cutting Logger/TimeProvider injection points.
// Configuration is immutable after construction, except hot-key
// threshold/window via Facade.Reconfigure.
type Config struct {
	Near     NearConfig
	Far      FarConfig
	Filter   FilterConfig
	Negative NegativeConfig
	Hotkey   HotkeyConfig
	Breaker  BreakerConfig

	// Logger receives structured diagnostic events. Defaults to
	// NoOpLogger if nil.
	Logger Logger

	// TimeProvider supplies current time. Defaults to a go-timecache
	// backed clock if nil.
	TimeProvider TimeProvider
}

// Validate normalizes out-of-range fields to their documented defaults.
// It never returns an error: every field has a safe default, matching
// the teacher's "normalize, don't fail" posture for configuration.
func (c *Config) Validate() error {
	if c.Near.MaxSize <= 0 {
		c.Near.MaxSize = DefaultNearMaxSize
	}
	if c.Near.DefaultTTL <= 0 {
		c.Near.DefaultTTL = DefaultNearTTL
	}

	if c.Far.DefaultTTL <= 0 {
		c.Far.DefaultTTL = DefaultFarTTL
	}
	if c.Far.TTLJitterPct < 10 || c.Far.TTLJitterPct > 30 {
		c.Far.TTLJitterPct = DefaultTTLJitterPct
	}
	if c.Far.LockTimeout <= 0 {
		c.Far.LockTimeout = DefaultLockTimeout
	}

	if c.Filter.ExpectedInsertions <= 0 {
		c.Filter.ExpectedInsertions = DefaultExpectedInsertions
	}
	if c.Filter.FalsePositiveRate <= 0 || c.Filter.FalsePositiveRate >= 1 {
		c.Filter.FalsePositiveRate = DefaultFalsePositiveRate
	}
	if c.Filter.RebuildThreshold <= 0 || c.Filter.RebuildThreshold >= 1 {
		c.Filter.RebuildThreshold = DefaultRebuildThreshold
	}

	if c.Negative.TTL <= 0 {
		c.Negative.TTL = DefaultNegativeTTL
	}
	if c.Negative.TTL > MaxNegativeTTL {
		c.Negative.TTL = MaxNegativeTTL
	}

	if c.Hotkey.Threshold < 1 {
		c.Hotkey.Threshold = DefaultHotKeyThreshold
	}
	if c.Hotkey.Window <= 0 {
		c.Hotkey.Window = DefaultHotKeyWindow
	}

	if c.Breaker.FailureThreshold < 1 {
		c.Breaker.FailureThreshold = DefaultFailureThreshold
	}
	if c.Breaker.ResetTimeout <= 0 {
		c.Breaker.ResetTimeout = DefaultResetTimeout
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	return nil
}

// DefaultConfig returns the configuration table's defaults, with
// negative caching enabled.
func DefaultConfig() Config {
	cfg := Config{
		Near: NearConfig{
			MaxSize:     DefaultNearMaxSize,
			DefaultTTL:  DefaultNearTTL,
			RecordStats: true,
		},
		Far: FarConfig{
			DefaultTTL:   DefaultFarTTL,
			TTLJitterPct: DefaultTTLJitterPct,
			LockTimeout:  DefaultLockTimeout,
		},
		Filter: FilterConfig{
			ExpectedInsertions: DefaultExpectedInsertions,
			FalsePositiveRate:  DefaultFalsePositiveRate,
			RebuildThreshold:   DefaultRebuildThreshold,
		},
		Negative: NegativeConfig{
			Enabled: true,
			TTL:     DefaultNegativeTTL,
		},
		Hotkey: HotkeyConfig{
			Threshold: DefaultHotKeyThreshold,
			Window:    DefaultHotKeyWindow,
		},
		Breaker: BreakerConfig{
			FailureThreshold: DefaultFailureThreshold,
			ResetTimeout:     DefaultResetTimeout,
		},
		Logger:       NoOpLogger{},
		TimeProvider: &systemTimeProvider{},
	}
	return cfg
}

// systemTimeProvider is the default time provider using go-timecache.
// This provides fast time access compared to time.Now() with zero
// allocations on the hot path.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
