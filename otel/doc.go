// Package otel provides OpenTelemetry integration for cerberus cache
// metrics.
//
// # Overview
//
// This package wires cerberus's hit/miss/event/latency callbacks to
// OpenTelemetry instruments, adding automatic percentile calculation
// (p50, p95, p99) on top of the core's own running-average latency
// counters. It is a separate module so applications that only need the
// core's built-in text exposition don't pay for OTEL dependencies.
//
// # Quick start
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, err := cerberusotel.NewCollector(provider)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Wire collector's RecordHit/RecordMiss/RecordEvent/RecordLatency
// methods into a custom metricsRecorder-like sink alongside the
// facade's built-in one, or call them directly from code that already
// observes cache operations.
//
// # Metrics exposed
//
//   - cerberus_get_latency_ns, cerberus_put_latency_ns, cerberus_delete_latency_ns: histograms
//   - cerberus_near_hits_total, cerberus_near_misses_total: counters
//   - cerberus_far_hits_total, cerberus_far_misses_total: counters
//   - cerberus_events_total{type=...}: counter
package otel
