// interfaces.go: external collaborator interfaces for cachevane
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"context"
	"time"
)

// Backend is the abstract byte-oriented distributed cache collaborator.
// Implementations must be safe for concurrent use. cachevane never holds
// a lock across a Backend call on the cache-hit path.
type Backend interface {
	// Get retrieves the raw bytes stored for key. found is false when the
	// key is absent; err is reserved for transport-level failures (a miss
	// is not an error).
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value for key with the given entry options.
	Set(ctx context.Context, key string, value []byte, opts EntryOptions) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Serializer converts values to and from the byte representation stored
// in the Backend.
type Serializer interface {
	// Encode marshals v to bytes.
	Encode(v interface{}) ([]byte, error)

	// Decode unmarshals data into out, which must be a non-nil pointer.
	Decode(data []byte, out interface{}) error
}

// Logger defines a minimal structured logging interface, matching the
// shape callers already use for their own services. Implementations
// should be allocation-free on the hot path.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards everything. Used as the default so the engine
// never has to nil-check its logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// isNoOpLogger reports whether logger is the zero-overhead default, so
// hot-path call sites can skip building Debug keyvals entirely instead
// of paying for a slice allocation that NoOpLogger would discard anyway.
func isNoOpLogger(logger Logger) bool {
	_, ok := logger.(NoOpLogger)
	return ok
}

// TimeProvider supplies the current time. Injectable so tests can use a
// fake clock to exercise TTL/jitter boundaries deterministically.
type TimeProvider interface {
	// Now returns the current time. Must be fast and allocation-free.
	Now() time.Time
}

// MetricsCollector receives the observability counters/histograms named
// in the engine's contract. A nil-safe NoOpMetricsCollector is the
// default so instrumentation is opt-in and zero overhead otherwise.
type MetricsCollector interface {
	IncHits()
	IncMisses()
	IncStaleServed()
	IncRefreshStarted()
	IncRefreshCompleted()
	IncDeserializeFailures()
	ObserveLockWait(d time.Duration)
	ObserveCompute(d time.Duration)
}

// NoOpMetricsCollector implements MetricsCollector with no-ops.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncHits()                         {}
func (NoOpMetricsCollector) IncMisses()                       {}
func (NoOpMetricsCollector) IncStaleServed()                  {}
func (NoOpMetricsCollector) IncRefreshStarted()                {}
func (NoOpMetricsCollector) IncRefreshCompleted()              {}
func (NoOpMetricsCollector) IncDeserializeFailures()           {}
func (NoOpMetricsCollector) ObserveLockWait(d time.Duration)   {}
func (NoOpMetricsCollector) ObserveCompute(d time.Duration)    {}

// Stats is a snapshot of the engine's built-in atomic counters, available
// even when no MetricsCollector is wired in.
type Stats struct {
	Hits                uint64
	Misses              uint64
	StaleServed         uint64
	RefreshesStarted    uint64
	RefreshesCompleted  uint64
	DeserializeFailures uint64
}

// HitRatio returns the hit ratio as a percentage (0-100), counting a
// stale-served hit as a hit.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
