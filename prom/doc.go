// Package prom provides a Prometheus implementation of cachevane's
// MetricsCollector, for applications that export metrics directly via
// github.com/prometheus/client_golang instead of through OpenTelemetry.
//
// It is a separate module, grounded on the shardcache example repo's
// metrics/prom adapter, so the cachevane core carries no Prometheus
// client dependency.
//
//	reg := prometheus.NewRegistry()
//	collector := prom.New(reg, "myapp", "cache", nil)
//	engine, err := cachevane.NewEngine(backend, cachevane.WithMetricsCollector(collector))
package prom
