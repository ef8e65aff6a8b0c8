// Package otel provides OpenTelemetry integration for cerberus cache
// metrics, as an optional secondary sink alongside the core's built-in
// metricsRecorder/export_text() (spec §4.11).
//
// This package is a separate module so applications that don't need an
// OTEL pipeline don't pay for its dependencies.
package otel

import (
	"context"
	"errors"

	"github.com/agilira/cerberus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Collector forwards cerberus cache events to OpenTelemetry
// instruments, giving automatic percentile calculation (via
// histograms) on top of the core's own average-latency counters.
type Collector struct {
	getLatency    metric.Int64Histogram
	putLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram

	nearHits   metric.Int64Counter
	nearMisses metric.Int64Counter
	farHits    metric.Int64Counter
	farMisses  metric.Int64Counter

	events metric.Int64Counter
}

// Options configures Collector construction.
type Options struct {
	// MeterName is the OpenTelemetry meter name. Default:
	// "github.com/agilira/cerberus".
	MeterName string
}

// Option is a functional option for NewCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful when distinguishing
// metrics from multiple cache instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewCollector builds a Collector from an OpenTelemetry MeterProvider.
func NewCollector(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/cerberus"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &Collector{}
	var err error

	if c.getLatency, err = meter.Int64Histogram(
		"cerberus_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.putLatency, err = meter.Int64Histogram(
		"cerberus_put_latency_ns",
		metric.WithDescription("Latency of Put operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.deleteLatency, err = meter.Int64Histogram(
		"cerberus_delete_latency_ns",
		metric.WithDescription("Latency of Delete operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.nearHits, err = meter.Int64Counter(
		"cerberus_near_hits_total",
		metric.WithDescription("Total near-cache hits"),
	); err != nil {
		return nil, err
	}
	if c.nearMisses, err = meter.Int64Counter(
		"cerberus_near_misses_total",
		metric.WithDescription("Total near-cache misses"),
	); err != nil {
		return nil, err
	}
	if c.farHits, err = meter.Int64Counter(
		"cerberus_far_hits_total",
		metric.WithDescription("Total far-cache hits"),
	); err != nil {
		return nil, err
	}
	if c.farMisses, err = meter.Int64Counter(
		"cerberus_far_misses_total",
		metric.WithDescription("Total far-cache misses"),
	); err != nil {
		return nil, err
	}
	if c.events, err = meter.Int64Counter(
		"cerberus_events_total",
		metric.WithDescription("Mass-miss protection events (penetration, avalanche_risk, breakdown, circuit_open)"),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordHit forwards a per-level hit.
func (c *Collector) RecordHit(level cerberus.CacheLevel) {
	ctx := context.Background()
	switch level {
	case cerberus.LevelNear:
		c.nearHits.Add(ctx, 1)
	case cerberus.LevelFar:
		c.farHits.Add(ctx, 1)
	}
}

// RecordMiss forwards a per-level miss.
func (c *Collector) RecordMiss(level cerberus.CacheLevel) {
	ctx := context.Background()
	switch level {
	case cerberus.LevelNear:
		c.nearMisses.Add(ctx, 1)
	case cerberus.LevelFar:
		c.farMisses.Add(ctx, 1)
	}
}

// RecordEvent forwards a mass-miss-protection event, labeled by type.
func (c *Collector) RecordEvent(event cerberus.CacheEventType) {
	c.events.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", event.String()),
	))
}

// RecordLatency forwards an operation's latency in nanoseconds.
func (c *Collector) RecordLatency(op cerberus.CacheOperation, nanos int64) {
	ctx := context.Background()
	switch op {
	case cerberus.OpGet:
		c.getLatency.Record(ctx, nanos)
	case cerberus.OpPut:
		c.putLatency.Record(ctx, nanos)
	case cerberus.OpDelete:
		c.deleteLatency.Record(ctx, nanos)
	}
}
