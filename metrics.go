// metrics.go: operation/event/latency counters and a Prometheus-style
// text exposition format (spec §4.11).
//
// No Prometheus client library appears anywhere in the retrieved
// corpus, so the counters and the exposition format are hand-rolled
// here rather than grounded in a third-party metrics SDK; see
// DESIGN.md.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// levelCounters holds hit/miss counters for one cache level.
type levelCounters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

// latencyAccumulator tracks count and total duration for one
// operation, enough to derive an average; percentile tracking is left
// to an external sink (see otel/collector.go) rather than duplicated
// here.
type latencyAccumulator struct {
	count        atomic.Uint64
	totalNanos   atomic.Uint64
}

// metricsRecorder is the facade's built-in metrics sink. It is always
// present (never nil) so hot-path code never branches on a missing
// collector.
type metricsRecorder struct {
	near levelCounters
	far  levelCounters

	events map[CacheEventType]*atomic.Uint64
	opLat  map[CacheOperation]*latencyAccumulator

	mu sync.RWMutex
}

func newMetricsRecorder() *metricsRecorder {
	m := &metricsRecorder{
		events: make(map[CacheEventType]*atomic.Uint64),
		opLat:  make(map[CacheOperation]*latencyAccumulator),
	}
	for _, e := range []CacheEventType{EventPenetration, EventAvalancheRisk, EventBreakdown, EventCircuitOpen} {
		m.events[e] = &atomic.Uint64{}
	}
	for _, op := range []CacheOperation{OpGet, OpPut, OpDelete} {
		m.opLat[op] = &latencyAccumulator{}
	}
	return m
}

func (m *metricsRecorder) RecordHit(level CacheLevel) {
	switch level {
	case LevelNear:
		m.near.hits.Add(1)
	case LevelFar:
		m.far.hits.Add(1)
	}
}

func (m *metricsRecorder) RecordMiss(level CacheLevel) {
	switch level {
	case LevelNear:
		m.near.misses.Add(1)
	case LevelFar:
		m.far.misses.Add(1)
	}
}

func (m *metricsRecorder) RecordEvent(event CacheEventType) {
	m.mu.RLock()
	counter, ok := m.events[event]
	m.mu.RUnlock()
	if ok {
		counter.Add(1)
	}
}

func (m *metricsRecorder) RecordLatency(op CacheOperation, d time.Duration) {
	m.mu.RLock()
	acc, ok := m.opLat[op]
	m.mu.RUnlock()
	if !ok {
		return
	}
	acc.count.Add(1)
	acc.totalNanos.Add(uint64(d.Nanoseconds())) // #nosec G115 - duration is non-negative
}

// MetricsSnapshot is a point-in-time read of every counter.
type MetricsSnapshot struct {
	Timestamp            time.Time
	NearHits, NearMisses uint64
	FarHits, FarMisses   uint64
	HitRatesByLevel      map[CacheLevel]float64
	Events               map[CacheEventType]uint64
	AvgLatency           map[CacheOperation]time.Duration
}

// hitRate returns hits/(hits+misses), 0 if neither has happened yet.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (m *metricsRecorder) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Timestamp:  time.Now(),
		NearHits:   m.near.hits.Load(),
		NearMisses: m.near.misses.Load(),
		FarHits:    m.far.hits.Load(),
		FarMisses:  m.far.misses.Load(),
		Events:     make(map[CacheEventType]uint64),
		AvgLatency: make(map[CacheOperation]time.Duration),
	}

	snap.HitRatesByLevel = map[CacheLevel]float64{
		LevelNear: hitRate(snap.NearHits, snap.NearMisses),
		LevelFar:  hitRate(snap.FarHits, snap.FarMisses),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for e, c := range m.events {
		snap.Events[e] = c.Load()
	}
	for op, acc := range m.opLat {
		count := acc.count.Load()
		if count == 0 {
			snap.AvgLatency[op] = 0
			continue
		}
		snap.AvgLatency[op] = time.Duration(acc.totalNanos.Load() / count)
	}
	return snap
}

// ExportText renders the snapshot as Prometheus-style text exposition:
// one metric family per counter, labeled by level/event/operation.
func (m *metricsRecorder) ExportText() string {
	snap := m.Snapshot()
	var b strings.Builder

	b.WriteString("# HELP cerberus_cache_hits_total Cache hits per level\n")
	b.WriteString("# TYPE cerberus_cache_hits_total counter\n")
	fmt.Fprintf(&b, "cerberus_cache_hits_total{level=\"near\"} %d\n", snap.NearHits)
	fmt.Fprintf(&b, "cerberus_cache_hits_total{level=\"far\"} %d\n", snap.FarHits)

	b.WriteString("# HELP cerberus_cache_misses_total Cache misses per level\n")
	b.WriteString("# TYPE cerberus_cache_misses_total counter\n")
	fmt.Fprintf(&b, "cerberus_cache_misses_total{level=\"near\"} %d\n", snap.NearMisses)
	fmt.Fprintf(&b, "cerberus_cache_misses_total{level=\"far\"} %d\n", snap.FarMisses)

	b.WriteString("# HELP cerberus_cache_hit_rate Hit ratio per level in [0,1]\n")
	b.WriteString("# TYPE cerberus_cache_hit_rate gauge\n")
	fmt.Fprintf(&b, "cerberus_cache_hit_rate{level=\"near\"} %g\n", snap.HitRatesByLevel[LevelNear])
	fmt.Fprintf(&b, "cerberus_cache_hit_rate{level=\"far\"} %g\n", snap.HitRatesByLevel[LevelFar])

	b.WriteString("# HELP cerberus_cache_events_total Mass-miss protection events\n")
	b.WriteString("# TYPE cerberus_cache_events_total counter\n")
	for event, count := range snap.Events {
		fmt.Fprintf(&b, "cerberus_cache_events_total{event=\"%s\"} %d\n", event.String(), count)
	}

	b.WriteString("# HELP cerberus_cache_operation_latency_nanoseconds Average per-operation latency\n")
	b.WriteString("# TYPE cerberus_cache_operation_latency_nanoseconds gauge\n")
	for op, d := range snap.AvgLatency {
		fmt.Fprintf(&b, "cerberus_cache_operation_latency_nanoseconds{operation=\"%s\"} %d\n", op.String(), d.Nanoseconds())
	}

	return b.String()
}
