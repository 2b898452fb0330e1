// collector.go: Prometheus MetricsCollector adapter for cachevane
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0
package prom

import (
	"time"

	"github.com/agilira/cachevane"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements cachevane.MetricsCollector and exports
// Prometheus counters/histograms. Safe for concurrent use; all
// Prometheus metric types are goroutine-safe. Grounded on
// shardcache's metrics/prom.Adapter, retargeted from its eviction/size
// gauges to the counters and histograms cachevane's engine emits.
type Collector struct {
	hits                prometheus.Counter
	misses              prometheus.Counter
	staleServed         prometheus.Counter
	refreshStarted      prometheus.Counter
	refreshCompleted    prometheus.Counter
	deserializeFailures prometheus.Counter
	lockWait            prometheus.Histogram
	compute             prometheus.Histogram
}

// New constructs a Prometheus metrics collector.
//   - reg: registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub: Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1e5, 4, 10), // 100us .. ~26s, in ns
		})
	}

	c := &Collector{
		hits:                counter("hits_total", "Cache hits"),
		misses:              counter("misses_total", "Cache misses"),
		staleServed:         counter("stale_served_total", "Stale-while-revalidate serves"),
		refreshStarted:      counter("refresh_started_total", "Background refreshes started"),
		refreshCompleted:    counter("refresh_completed_total", "Background refreshes completed"),
		deserializeFailures: counter("deserialize_failures_total", "Corrupted-payload recoveries"),
		lockWait:            histogram("lock_wait_ns", "Time spent waiting for the per-key gate, in nanoseconds"),
		compute:             histogram("compute_ns", "Time spent running the compute function, in nanoseconds"),
	}
	reg.MustRegister(c.hits, c.misses, c.staleServed, c.refreshStarted, c.refreshCompleted, c.deserializeFailures, c.lockWait, c.compute)
	return c
}

func (c *Collector) IncHits()                { c.hits.Inc() }
func (c *Collector) IncMisses()              { c.misses.Inc() }
func (c *Collector) IncStaleServed()         { c.staleServed.Inc() }
func (c *Collector) IncRefreshStarted()      { c.refreshStarted.Inc() }
func (c *Collector) IncRefreshCompleted()    { c.refreshCompleted.Inc() }
func (c *Collector) IncDeserializeFailures() { c.deserializeFailures.Inc() }

func (c *Collector) ObserveLockWait(d time.Duration) { c.lockWait.Observe(float64(d.Nanoseconds())) }
func (c *Collector) ObserveCompute(d time.Duration)  { c.compute.Observe(float64(d.Nanoseconds())) }

var _ cachevane.MetricsCollector = (*Collector)(nil)
