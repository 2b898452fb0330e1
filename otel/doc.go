// Package otel provides OpenTelemetry integration for cachevane's
// MetricsCollector contract.
//
// # Overview
//
// This package implements cachevane.MetricsCollector using
// OpenTelemetry, enabling observability with automatic percentile
// calculation (via histograms) and multi-backend export (Prometheus,
// Jaeger, DataDog, or any OTEL-compatible collector). It is a separate
// module so the cachevane core carries no OTEL dependency; applications
// that don't need metrics don't pay for them.
//
// # Quick start
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := cachevaneotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine, err := cachevane.NewEngine(backend, cachevane.WithMetricsCollector(collector))
//
// # Metrics exposed
//
// Counters: cachevane_hits_total, cachevane_misses_total,
// cachevane_stale_served_total, cachevane_refresh_started_total,
// cachevane_refresh_completed_total, cachevane_deserialize_failures_total.
//
// Histograms: cachevane_lock_wait_ns, cachevane_compute_ns.
package otel
