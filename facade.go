// facade.go: the read-through/write-through orchestrator composing the
// near cache, far cache, membership filter, hot-key detector, circuit
// breaker, retry executor, scheduler and metrics recorder (spec §4.1-§4.5).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"context"
	"time"
)

// Facade is the public entry point: a two-tier read-through cache with
// penetration, avalanche, breakdown and downstream-failure protection.
// A Facade is safe for concurrent use; no global lock serializes calls.
type Facade struct {
	cfg Config

	near   NearCache
	far    FarCache
	filter MembershipFilter

	hotkey  *hotKeyDetector
	breaker *circuitBreaker
	metrics *metricsRecorder
	retry   *retryExecutor
	sched   *scheduler

	loader DataLoader
	logger Logger
	tp     TimeProvider
}

// New builds a Facade from cfg and loader. near and filter may be nil,
// in which case the default W-TinyLFU near cache and Bloom-style
// filter are constructed from cfg. far must not be nil: it is a
// networked collaborator (e.g. NewRedisFarCache) this package cannot
// default to in-process.
func New(cfg Config, loader DataLoader, near NearCache, far FarCache, filter MembershipFilter) (*Facade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if far == nil {
		return nil, NewErrInternal("cerberus.new", nil)
	}
	if loader == nil {
		return nil, NewErrInternal("cerberus.new", nil)
	}

	if near == nil {
		near = NewNearCache(cfg.Near)
	}
	if filter == nil {
		filter = newBloomFilter(cfg.Filter)
	}

	f := &Facade{
		cfg:     cfg,
		near:    near,
		far:     far,
		filter:  filter,
		hotkey:  newHotKeyDetector(cfg.Hotkey, cfg.TimeProvider),
		breaker: newCircuitBreaker(cfg.Breaker, cfg.TimeProvider),
		metrics: newMetricsRecorder(),
		retry:   newRetryExecutor(DefaultRetryConfig()),
		sched:   newScheduler(),
		loader:  loader,
		logger:  cfg.Logger,
		tp:      cfg.TimeProvider,
	}

	f.logger.Info("cerberus facade initialized")
	return f, nil
}

func (f *Facade) now() time.Time { return now(f.tp) }

// Get implements the facade read path (spec §4.1).
func (f *Facade) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := f.now()
	defer func() {
		f.metrics.RecordLatency(OpGet, f.now().Sub(start))
	}()

	f.hotkey.RecordAccess(key)

	if !f.filter.MightContain(key) {
		f.metrics.RecordEvent(EventPenetration)
		f.logger.Debug("key rejected by membership filter", "key", key)
		return nil, false, nil
	}

	if entry, ok := f.near.Get(key); ok && !entry.Stale(f.now()) {
		f.metrics.RecordHit(LevelNear)
		if entry.IsNegative {
			return nil, false, nil
		}
		return entry.Payload, true, nil
	}
	f.metrics.RecordMiss(LevelNear)

	farEntry, err := f.far.Get(ctx, key)
	if err != nil {
		f.logger.Warn("far cache get failed, treating as miss", "key", key, "error", err.Error())
		farEntry = nil
	}
	if farEntry != nil && !farEntry.Stale(f.now()) {
		f.near.Put(key, farEntry, f.cfg.Near.DefaultTTL)
		f.metrics.RecordHit(LevelFar)
		if farEntry.IsNegative {
			return nil, false, nil
		}
		return farEntry.Payload, true, nil
	}
	f.metrics.RecordMiss(LevelFar)

	if f.hotkey.IsHot(key) {
		return f.getWithLock(ctx, key)
	}
	return f.loadFromDataSource(ctx, key)
}

// getWithLock is the single-flight branch guarding against breakdown
// (spec §4.2).
func (f *Facade) getWithLock(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := f.far.GetWithLock(ctx, key, f.cfg.Far.LockTimeout)
	if err != nil {
		f.logger.Warn("lock acquisition failed", "key", key, "error", err.Error())
		return nil, false, nil
	}

	if result.Acquired {
		defer func() {
			if relErr := f.far.ReleaseLock(ctx, key, result.Token); relErr != nil {
				f.logger.Warn("lock release failed", "key", key, "error", relErr.Error())
			}
		}()
		f.metrics.RecordEvent(EventBreakdown)
		return f.loadFromDataSource(ctx, key)
	}

	if result.Value != nil && !result.Value.Stale(f.now()) {
		if result.Value.IsNegative {
			return nil, false, nil
		}
		return result.Value.Payload, true, nil
	}

	select {
	case <-time.After(lockLostBackoff):
	case <-ctx.Done():
		return nil, false, nil
	}

	retryEntry, err := f.far.Get(ctx, key)
	if err != nil || retryEntry == nil || retryEntry.Stale(f.now()) {
		return nil, false, nil
	}
	if retryEntry.IsNegative {
		return nil, false, nil
	}
	return retryEntry.Payload, true, nil
}

// loadFromDataSource runs the loader through the circuit breaker
// (spec §4.3).
func (f *Facade) loadFromDataSource(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)

	primary := func() error {
		var (
			v        []byte
			ok       bool
			err      error
			panicErr error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicErr = NewErrPanicRecovered("cerberus.get:"+key, r)
				}
			}()
			v, ok, err = f.loader(ctx, key)
		}()
		if panicErr != nil {
			return panicErr
		}
		if err != nil {
			return NewTypedError(ErrTypeDataSource, "cerberus.get", err)
		}
		if ok {
			if putErr := f.Put(ctx, key, v, f.cfg.Far.DefaultTTL); putErr != nil {
				f.logger.Warn("write-back after load failed", "key", key, "error", putErr.Error())
			}
			value, found = v, true
			return nil
		}
		if f.cfg.Negative.Enabled {
			f.cacheNegative(ctx, key)
		}
		return nil
	}

	fallback := func() error {
		f.metrics.RecordEvent(EventCircuitOpen)
		f.logger.Warn("circuit breaker fallback", "key", key)
		return nil
	}

	if err := f.breaker.Execute(primary, fallback); err != nil {
		return nil, false, nil
	}
	return value, found, nil
}

func (f *Facade) cacheNegative(ctx context.Context, key string) {
	entry := newEntry(nil, f.cfg.Negative.TTL, f.now(), true, f.hotkey.IsHot(key))
	f.near.Put(key, entry, f.cfg.Negative.TTL)
	if err := f.far.Put(ctx, key, entry, f.cfg.Negative.TTL); err != nil {
		f.logger.Warn("negative cache far-put failed", "key", key, "error", err.Error())
	}
}

// Put implements the facade write path (spec §4.4).
func (f *Facade) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := f.now()
	defer func() {
		f.metrics.RecordLatency(OpPut, f.now().Sub(start))
	}()

	if ttl <= 0 {
		ttl = f.cfg.Far.DefaultTTL
	}

	entry := newEntry(value, ttl, f.now(), false, f.hotkey.IsHot(key))

	f.near.Put(key, entry, f.cfg.Near.DefaultTTL)

	if err := f.far.PutWithRandomTTL(ctx, key, entry, ttl, f.cfg.Far.TTLJitterPct); err != nil {
		f.logger.Warn("far cache put failed", "key", key, "error", err.Error())
	}

	f.filter.Insert(key)
	f.logger.Debug("cache put", "key", key, "ttl", ttl.String())
	return nil
}

// Delete removes key from both tiers. Idempotent.
func (f *Facade) Delete(ctx context.Context, key string) error {
	start := f.now()
	defer func() {
		f.metrics.RecordLatency(OpDelete, f.now().Sub(start))
	}()

	f.near.Delete(key)
	if err := f.far.Delete(ctx, key); err != nil {
		f.logger.Warn("far cache delete failed", "key", key, "error", err.Error())
	}
	return nil
}

// MultiGet is a serial composition of Get; absent keys are omitted.
func (f *Facade) MultiGet(ctx context.Context, keys []string) map[string][]byte {
	results := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok, _ := f.Get(ctx, k); ok {
			results[k] = v
		}
	}
	return results
}

// MultiPut is a serial composition of Put.
func (f *Facade) MultiPut(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	for k, v := range entries {
		if err := f.Put(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate implements delayed double delete (spec §4.5): an
// immediate delete followed by a second delete ~500ms later, to close
// the window where a concurrent reader repopulates stale data read
// before the authoritative write committed.
func (f *Facade) Invalidate(ctx context.Context, key string) error {
	if err := f.Delete(ctx, key); err != nil {
		return err
	}
	f.sched.After(invalidateDelay, func() {
		if err := f.Delete(ctx, key); err != nil {
			f.logger.Warn("delayed delete failed", "key", key, "error", err.Error())
		} else {
			f.logger.Debug("delayed delete executed", "key", key)
		}
	})
	return nil
}

// Reconfigure replaces the hot-key detector's threshold/window, the
// only configuration mutable after construction.
func (f *Facade) Reconfigure(threshold int, window time.Duration) {
	f.hotkey.Reconfigure(threshold, window)
}

// Metrics returns a snapshot of hit/miss/event/latency counters.
func (f *Facade) Metrics() MetricsSnapshot {
	return f.metrics.Snapshot()
}

// MetricsText renders the current metrics in Prometheus-style text
// exposition.
func (f *Facade) MetricsText() string {
	return f.metrics.ExportText()
}

// NearStats returns the near cache's own counters.
func (f *Facade) NearStats() NearCacheStats {
	return f.near.Stats()
}

// FilterStats returns the membership filter's current bookkeeping,
// logging a warning if the estimated false-positive rate has drifted
// past the configured rebuild threshold (spec §4.8).
func (f *Facade) FilterStats() FilterStats {
	stats := f.filter.Stats()
	if stats.EstimatedFPRate > f.cfg.Filter.RebuildThreshold {
		f.logger.Warn("membership filter false-positive rate exceeds rebuild threshold",
			"estimated_fp_rate", stats.EstimatedFPRate,
			"rebuild_threshold", f.cfg.Filter.RebuildThreshold)
	}
	return stats
}

// RebuildFilter atomically replaces the membership filter with a fresh
// one re-inserting keys. Rebuilding is an operator decision, never
// performed automatically by the facade.
func (f *Facade) RebuildFilter(keys []string) {
	f.filter.Rebuild(keys)
}

// Close stops the scheduler and closes the far-cache connection.
func (f *Facade) Close() error {
	f.sched.Close()
	err := f.far.Close()
	f.logger.Info("cerberus facade closed")
	return err
}
