package otel

import (
	"context"
	"testing"
	"time"

	"github.com/agilira/cachevane"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOTelMetricsCollector_Interface(t *testing.T) {
	var _ cachevane.MetricsCollector = (*OTelMetricsCollector)(nil)
}

func TestNewOTelMetricsCollector(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Errorf("Failed to shutdown provider: %v", err)
		}
	}()

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}
}

func TestNewOTelMetricsCollector_NilProvider(t *testing.T) {
	collector, err := NewOTelMetricsCollector(nil)
	if err == nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return error")
	}
	if collector != nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return nil collector")
	}
}

func TestOTelMetricsCollector_HitsAndMisses(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.IncHits()
	collector.IncHits()
	collector.IncMisses()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundHits, foundMisses bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "cachevane_hits_total":
				foundHits = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Fatalf("expected Sum[int64] with data points, got %T", m.Data)
				}
				if sum.DataPoints[0].Value != 2 {
					t.Errorf("expected 2 hits, got %d", sum.DataPoints[0].Value)
				}
			case "cachevane_misses_total":
				foundMisses = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Fatalf("expected Sum[int64] with data points, got %T", m.Data)
				}
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("expected 1 miss, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}
	if !foundHits {
		t.Error("cachevane_hits_total metric not found")
	}
	if !foundMisses {
		t.Error("cachevane_misses_total metric not found")
	}
}

func TestOTelMetricsCollector_RefreshAndStale(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.IncStaleServed()
	collector.IncRefreshStarted()
	collector.IncRefreshStarted()
	collector.IncRefreshCompleted()
	collector.IncDeserializeFailures()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 {
				counts[m.Name] = sum.DataPoints[0].Value
			}
		}
	}

	if counts["cachevane_stale_served_total"] != 1 {
		t.Errorf("expected 1 stale served, got %d", counts["cachevane_stale_served_total"])
	}
	if counts["cachevane_refresh_started_total"] != 2 {
		t.Errorf("expected 2 refreshes started, got %d", counts["cachevane_refresh_started_total"])
	}
	if counts["cachevane_refresh_completed_total"] != 1 {
		t.Errorf("expected 1 refresh completed, got %d", counts["cachevane_refresh_completed_total"])
	}
	if counts["cachevane_deserialize_failures_total"] != 1 {
		t.Errorf("expected 1 deserialize failure, got %d", counts["cachevane_deserialize_failures_total"])
	}
}

func TestOTelMetricsCollector_ObserveLockWaitAndCompute(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.ObserveLockWait(5 * time.Millisecond)
	collector.ObserveLockWait(10 * time.Millisecond)
	collector.ObserveCompute(50 * time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundLockWait, foundCompute bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "cachevane_lock_wait_ns":
				foundLockWait = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok || len(hist.DataPoints) == 0 {
					t.Fatalf("expected Histogram[int64] with data points, got %T", m.Data)
				}
				if hist.DataPoints[0].Count != 2 {
					t.Errorf("expected 2 lock wait observations, got %d", hist.DataPoints[0].Count)
				}
			case "cachevane_compute_ns":
				foundCompute = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok || len(hist.DataPoints) == 0 {
					t.Fatalf("expected Histogram[int64] with data points, got %T", m.Data)
				}
				if hist.DataPoints[0].Count != 1 {
					t.Errorf("expected 1 compute observation, got %d", hist.DataPoints[0].Count)
				}
			}
		}
	}
	if !foundLockWait {
		t.Error("cachevane_lock_wait_ns metric not found")
	}
	if !foundCompute {
		t.Error("cachevane_compute_ns metric not found")
	}
}

func TestOTelMetricsCollector_Concurrent(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	const numGoroutines = 10
	const opsPerGoroutine = 100
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < opsPerGoroutine; j++ {
				if j%2 == 0 {
					collector.IncHits()
				} else {
					collector.IncMisses()
				}
				collector.ObserveLockWait(time.Duration(id) * time.Microsecond)
				collector.ObserveCompute(time.Duration(id) * time.Microsecond)
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("test timeout - deadlock?")
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no metrics collected after concurrent operations")
	}
}

func TestOTelMetricsCollector_WithOptions(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider, WithMeterName("custom_cachevane"))
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}

	collector.IncHits()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no scope metrics")
	}
	if rm.ScopeMetrics[0].Scope.Name != "custom_cachevane" {
		t.Errorf("expected scope name 'custom_cachevane', got '%s'", rm.ScopeMetrics[0].Scope.Name)
	}
}
