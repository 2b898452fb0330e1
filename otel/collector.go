// collector.go: OpenTelemetry MetricsCollector adapter for cachevane
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"
	"time"

	"github.com/agilira/cachevane"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements cachevane.MetricsCollector using
// OpenTelemetry, wiring the counters and histograms to the hits,
// misses, refreshes, lock waits, and deserialize failures cachevane's
// engine actually emits.
//
// Thread-safety: safe for concurrent use; the underlying OTEL
// instruments are lock-free.
type OTelMetricsCollector struct {
	hits                metric.Int64Counter
	misses              metric.Int64Counter
	staleServed         metric.Int64Counter
	refreshStarted      metric.Int64Counter
	refreshCompleted    metric.Int64Counter
	deserializeFailures metric.Int64Counter
	lockWaitNs          metric.Int64Histogram
	computeNs           metric.Int64Histogram
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/cachevane"
	MeterName string
}

// Option is a functional option for OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple Engine instances.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// NewOTelMetricsCollector creates an OpenTelemetry-backed MetricsCollector.
// provider must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/cachevane"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	if c.hits, err = meter.Int64Counter("cachevane_hits_total", metric.WithDescription("Total number of cache hits")); err != nil {
		return nil, err
	}
	if c.misses, err = meter.Int64Counter("cachevane_misses_total", metric.WithDescription("Total number of cache misses")); err != nil {
		return nil, err
	}
	if c.staleServed, err = meter.Int64Counter("cachevane_stale_served_total", metric.WithDescription("Total number of stale-while-revalidate serves")); err != nil {
		return nil, err
	}
	if c.refreshStarted, err = meter.Int64Counter("cachevane_refresh_started_total", metric.WithDescription("Total number of background refreshes started")); err != nil {
		return nil, err
	}
	if c.refreshCompleted, err = meter.Int64Counter("cachevane_refresh_completed_total", metric.WithDescription("Total number of background refreshes completed")); err != nil {
		return nil, err
	}
	if c.deserializeFailures, err = meter.Int64Counter("cachevane_deserialize_failures_total", metric.WithDescription("Total number of corrupted-payload recoveries")); err != nil {
		return nil, err
	}
	if c.lockWaitNs, err = meter.Int64Histogram("cachevane_lock_wait_ns", metric.WithDescription("Time spent waiting for the per-key gate"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.computeNs, err = meter.Int64Histogram("cachevane_compute_ns", metric.WithDescription("Time spent running the caller's compute function"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *OTelMetricsCollector) IncHits()                { c.hits.Add(context.Background(), 1) }
func (c *OTelMetricsCollector) IncMisses()              { c.misses.Add(context.Background(), 1) }
func (c *OTelMetricsCollector) IncStaleServed()         { c.staleServed.Add(context.Background(), 1) }
func (c *OTelMetricsCollector) IncRefreshStarted()      { c.refreshStarted.Add(context.Background(), 1) }
func (c *OTelMetricsCollector) IncRefreshCompleted()    { c.refreshCompleted.Add(context.Background(), 1) }
func (c *OTelMetricsCollector) IncDeserializeFailures() { c.deserializeFailures.Add(context.Background(), 1) }

func (c *OTelMetricsCollector) ObserveLockWait(d time.Duration) {
	c.lockWaitNs.Record(context.Background(), d.Nanoseconds())
}

func (c *OTelMetricsCollector) ObserveCompute(d time.Duration) {
	c.computeNs.Record(context.Background(), d.Nanoseconds())
}

var _ cachevane.MetricsCollector = (*OTelMetricsCollector)(nil)
