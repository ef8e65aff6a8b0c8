package cerberus

import (
	"testing"
	"time"
)

func TestConfig_ValidateNormalizesZeroValue(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil (normalize, never fail)", err)
	}

	if cfg.Near.MaxSize != DefaultNearMaxSize {
		t.Errorf("Near.MaxSize = %d, want default %d", cfg.Near.MaxSize, DefaultNearMaxSize)
	}
	if cfg.Near.DefaultTTL != DefaultNearTTL {
		t.Errorf("Near.DefaultTTL = %v, want default %v", cfg.Near.DefaultTTL, DefaultNearTTL)
	}
	if cfg.Far.DefaultTTL != DefaultFarTTL {
		t.Errorf("Far.DefaultTTL = %v, want default %v", cfg.Far.DefaultTTL, DefaultFarTTL)
	}
	if cfg.Far.TTLJitterPct != DefaultTTLJitterPct {
		t.Errorf("Far.TTLJitterPct = %d, want default %d", cfg.Far.TTLJitterPct, DefaultTTLJitterPct)
	}
	if cfg.Far.LockTimeout != DefaultLockTimeout {
		t.Errorf("Far.LockTimeout = %v, want default %v", cfg.Far.LockTimeout, DefaultLockTimeout)
	}
	if cfg.Filter.ExpectedInsertions != DefaultExpectedInsertions {
		t.Errorf("Filter.ExpectedInsertions = %d, want default %d", cfg.Filter.ExpectedInsertions, DefaultExpectedInsertions)
	}
	if cfg.Filter.FalsePositiveRate != DefaultFalsePositiveRate {
		t.Errorf("Filter.FalsePositiveRate = %v, want default %v", cfg.Filter.FalsePositiveRate, DefaultFalsePositiveRate)
	}
	if cfg.Filter.RebuildThreshold != DefaultRebuildThreshold {
		t.Errorf("Filter.RebuildThreshold = %v, want default %v", cfg.Filter.RebuildThreshold, DefaultRebuildThreshold)
	}
	if cfg.Negative.TTL != DefaultNegativeTTL {
		t.Errorf("Negative.TTL = %v, want default %v", cfg.Negative.TTL, DefaultNegativeTTL)
	}
	if cfg.Hotkey.Threshold != DefaultHotKeyThreshold {
		t.Errorf("Hotkey.Threshold = %d, want default %d", cfg.Hotkey.Threshold, DefaultHotKeyThreshold)
	}
	if cfg.Hotkey.Window != DefaultHotKeyWindow {
		t.Errorf("Hotkey.Window = %v, want default %v", cfg.Hotkey.Window, DefaultHotKeyWindow)
	}
	if cfg.Breaker.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("Breaker.FailureThreshold = %d, want default %d", cfg.Breaker.FailureThreshold, DefaultFailureThreshold)
	}
	if cfg.Breaker.ResetTimeout != DefaultResetTimeout {
		t.Errorf("Breaker.ResetTimeout = %v, want default %v", cfg.Breaker.ResetTimeout, DefaultResetTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger is nil after Validate, want NoOpLogger default")
	}
	if cfg.TimeProvider == nil {
		t.Error("TimeProvider is nil after Validate, want systemTimeProvider default")
	}
}

func TestConfig_ValidateClampsJitterOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Far.TTLJitterPct = 99
	cfg.Validate()
	if cfg.Far.TTLJitterPct != DefaultTTLJitterPct {
		t.Errorf("Far.TTLJitterPct = %d after out-of-range Validate, want default %d", cfg.Far.TTLJitterPct, DefaultTTLJitterPct)
	}

	cfg2 := DefaultConfig()
	cfg2.Far.TTLJitterPct = 20 // within [10,30], unchanged
	cfg2.Validate()
	if cfg2.Far.TTLJitterPct != 20 {
		t.Errorf("Far.TTLJitterPct = %d, want unchanged 20 (already in range)", cfg2.Far.TTLJitterPct)
	}
}

func TestConfig_ValidatePreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Near:    NearConfig{MaxSize: 500, DefaultTTL: 10 * time.Second},
		Far:     FarConfig{DefaultTTL: 30 * time.Second, TTLJitterPct: 15, LockTimeout: time.Second},
		Filter:  FilterConfig{ExpectedInsertions: 1000, FalsePositiveRate: 0.05, RebuildThreshold: 0.1},
		Negative: NegativeConfig{Enabled: true, TTL: time.Minute},
		Hotkey:  HotkeyConfig{Threshold: 50, Window: 30 * time.Second},
		Breaker: BreakerConfig{FailureThreshold: 10, ResetTimeout: 15 * time.Second},
	}
	cfg.Validate()

	if cfg.Near.MaxSize != 500 {
		t.Errorf("Near.MaxSize = %d, want explicit value preserved (500)", cfg.Near.MaxSize)
	}
	if cfg.Hotkey.Threshold != 50 {
		t.Errorf("Hotkey.Threshold = %d, want explicit value preserved (50)", cfg.Hotkey.Threshold)
	}
}

func TestConfig_ValidateClampsNegativeTTLUpperBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Negative.TTL = time.Hour
	cfg.Validate()
	if cfg.Negative.TTL != MaxNegativeTTL {
		t.Errorf("Negative.TTL = %v after above-cap Validate, want clamped to %v", cfg.Negative.TTL, MaxNegativeTTL)
	}

	cfg2 := DefaultConfig()
	cfg2.Negative.TTL = time.Minute
	cfg2.Validate()
	if cfg2.Negative.TTL != time.Minute {
		t.Errorf("Negative.TTL = %v, want unchanged %v (already within bound)", cfg2.Negative.TTL, time.Minute)
	}
}

func TestDefaultConfig_NegativeCachingEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Negative.Enabled {
		t.Error("DefaultConfig().Negative.Enabled = false, want true")
	}
}
