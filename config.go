// config.go: process-wide configuration for the read-compute-write engine
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"strings"
	"time"
)

// EntryOptions controls the effective lifetime of a single stored entry.
// At least one field should drive the lifetime; an EntryOptions with every
// field nil leaves expiration to the backend's default. A nil *EntryOptions
// passed to GetOrCreate instead makes the engine plan one from the
// effective hard TTL (see planExpiration). Callers' EntryOptions are always
// deep-cloned before the planner mutates them (jitter), so the caller's
// original struct is never touched.
type EntryOptions struct {
	// AbsoluteExpiration is a fixed point in time after which the entry expires.
	AbsoluteExpiration *time.Time

	// AbsoluteExpirationRelativeToNow is a duration from "now" (at write
	// time) after which the entry expires.
	AbsoluteExpirationRelativeToNow *time.Duration

	// SlidingExpiration extends the entry's lifetime on every access.
	// Sliding expiration is passed through to the Backend as-is; the
	// engine does not interpret it for freshness decisions.
	SlidingExpiration *time.Duration
}

// Clone returns a deep copy so the planner's jitter mutation never
// touches the caller's original EntryOptions.
func (o *EntryOptions) Clone() *EntryOptions {
	if o == nil {
		return nil
	}
	clone := &EntryOptions{}
	if o.AbsoluteExpiration != nil {
		t := *o.AbsoluteExpiration
		clone.AbsoluteExpiration = &t
	}
	if o.AbsoluteExpirationRelativeToNow != nil {
		d := *o.AbsoluteExpirationRelativeToNow
		clone.AbsoluteExpirationRelativeToNow = &d
	}
	if o.SlidingExpiration != nil {
		d := *o.SlidingExpiration
		clone.SlidingExpiration = &d
	}
	return clone
}

// Policy holds optional per-call overrides of GlobalConfig. Any nil
// field falls through to the global configuration in effect at call time.
type Policy struct {
	SoftTTL                 *time.Duration
	HardTTL                 *time.Duration
	MaxStaleOnFailure       *time.Duration
	EarlyRefreshWindow      *time.Duration
	ExpirationJitterFraction *float64
	LockWaitTimeout         *time.Duration
	MaxPayloadBytes         *int
	SkipCachingNullOrDefault *bool
}

func durationOr(p *time.Duration, fallback time.Duration) time.Duration {
	if p == nil {
		return fallback
	}
	return *p
}

func floatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

// resolved is the fully-resolved set of parameters for a single call,
// merging Policy overrides onto GlobalConfig.
type resolved struct {
	softTTL                  time.Duration
	hardTTL                  time.Duration
	earlyRefreshWindow       time.Duration
	expirationJitterFraction float64
	lockWaitTimeout          time.Duration
	maxPayloadBytes          int // 0 means unlimited
	skipCachingNullOrDefault bool
}

func resolvePolicy(p *Policy, cfg *GlobalConfig) resolved {
	r := resolved{
		softTTL:                  cfg.DefaultSoftTTL,
		hardTTL:                  cfg.DefaultHardTTL,
		expirationJitterFraction: cfg.ExpirationJitterFraction,
		maxPayloadBytes:          cfg.MaxPayloadBytes,
		skipCachingNullOrDefault: cfg.SkipCachingNullOrDefault,
	}
	if cfg.LockWaitTimeout != nil {
		r.lockWaitTimeout = *cfg.LockWaitTimeout
	}
	if p == nil {
		return r
	}
	r.softTTL = durationOr(p.SoftTTL, r.softTTL)
	r.hardTTL = durationOr(p.HardTTL, r.hardTTL)
	r.earlyRefreshWindow = durationOr(p.EarlyRefreshWindow, r.earlyRefreshWindow)
	r.expirationJitterFraction = floatOr(p.ExpirationJitterFraction, r.expirationJitterFraction)
	r.maxPayloadBytes = intOr(p.MaxPayloadBytes, r.maxPayloadBytes)
	r.skipCachingNullOrDefault = boolOr(p.SkipCachingNullOrDefault, r.skipCachingNullOrDefault)
	if p.LockWaitTimeout != nil {
		r.lockWaitTimeout = *p.LockWaitTimeout
	}
	return r
}

// GlobalConfig is the process-wide configuration for an Engine. It is
// replaceable atomically via Engine.Configure; replacing it also
// rebuilds the lock pool.
type GlobalConfig struct {
	// Serializer encodes/decodes values and envelopes. Default: JSONSerializer.
	Serializer Serializer

	// DefaultHardTTL is the hard expiration applied when neither Policy
	// nor caller EntryOptions override it.
	DefaultHardTTL time.Duration

	// DefaultSoftTTL is the soft (SWR) expiration.
	DefaultSoftTTL time.Duration

	// ExpirationJitterFraction is the default jitter fraction, clamped to [0, 0.9].
	ExpirationJitterFraction float64

	// KeyPrefix is prepended to every key. Empty/whitespace-only means no prefix.
	KeyPrefix string

	// KeyLockEvictionWindow (W) is how long an idle, unreferenced lock
	// pool entry survives before eviction.
	KeyLockEvictionWindow time.Duration

	// MaxPayloadBytes bounds the serialized compute result. 0 means unlimited.
	MaxPayloadBytes int

	// SkipCachingNullOrDefault, if true, skips writing zero/nil compute results.
	SkipCachingNullOrDefault bool

	// LockWaitTimeout bounds how long GetOrCreate waits for the per-key
	// gate before taking the timeout fallback path. nil means wait
	// indefinitely (subject to the caller's context).
	LockWaitTimeout *time.Duration

	// Logger receives debug/warn logging from the engine.
	Logger Logger

	// MetricsCollector receives observability counters/histograms.
	MetricsCollector MetricsCollector

	// TimeProvider supplies the current time.
	TimeProvider TimeProvider
}

// Validate normalizes a GlobalConfig in place, applying documented
// defaults. It never returns a non-nil error today (mirrors the
// teacher library's Validate, which is defaults-only); the error
// return is kept for forward compatibility with stricter validation.
func (c *GlobalConfig) Validate() error {
	if c.Serializer == nil {
		c.Serializer = JSONSerializer{}
	}
	if c.DefaultHardTTL <= 0 {
		c.DefaultHardTTL = DefaultHardTTL
	}
	if c.DefaultSoftTTL <= 0 {
		c.DefaultSoftTTL = DefaultSoftTTL
	}
	if c.DefaultSoftTTL > c.DefaultHardTTL {
		c.DefaultSoftTTL = c.DefaultHardTTL
	}
	if c.ExpirationJitterFraction < 0 {
		c.ExpirationJitterFraction = 0
	}
	if c.ExpirationJitterFraction > maxJitterFraction {
		c.ExpirationJitterFraction = maxJitterFraction
	}
	if c.KeyLockEvictionWindow <= 0 {
		c.KeyLockEvictionWindow = DefaultKeyLockEvictionWindow
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = systemTimeProvider{}
	}
	return nil
}

// effectiveKey applies KeyPrefix, treating an all-whitespace prefix as
// no prefix.
func (c *GlobalConfig) effectiveKey(key string) string {
	prefix := strings.TrimSpace(c.KeyPrefix)
	if prefix == "" {
		return key
	}
	return prefix + key
}

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults,
// already validated.
func DefaultGlobalConfig() GlobalConfig {
	cfg := GlobalConfig{
		Serializer:               JSONSerializer{},
		DefaultHardTTL:           DefaultHardTTL,
		DefaultSoftTTL:           DefaultSoftTTL,
		ExpirationJitterFraction: DefaultExpirationJitterFraction,
		KeyLockEvictionWindow:    DefaultKeyLockEvictionWindow,
		Logger:                   NoOpLogger{},
		MetricsCollector:         NoOpMetricsCollector{},
		TimeProvider:             systemTimeProvider{},
	}
	_ = cfg.Validate()
	return cfg
}
