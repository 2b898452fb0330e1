// cachevane.go: package-wide constants and version metadata
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style fragment
// SPDX-License-Identifier: MPL-2.0

package cachevane

import "time"

const (
	// Version of the cachevane coordination layer.
	Version = "v0.1.0-dev"

	// DefaultSoftTTL is the default soft (SWR) expiration applied when a
	// caller's Policy and GlobalConfig both leave SoftTTL unset.
	DefaultSoftTTL = 5 * time.Minute

	// DefaultHardTTL is the default hard expiration. Must recompute past
	// this point; no stale value is ever served.
	DefaultHardTTL = 30 * time.Minute

	// DefaultExpirationJitterFraction spreads synchronous TTLs created at
	// the same instant across a +/-10% band.
	DefaultExpirationJitterFraction = 0.10

	// DefaultKeyLockEvictionWindow is how long an idle, unreferenced
	// lock pool entry survives before it becomes eligible for eviction.
	DefaultKeyLockEvictionWindow = 2 * time.Minute

	// minSweepPeriod is the floor for the lock pool sweeper period,
	// regardless of how small KeyLockEvictionWindow is configured.
	minSweepPeriod = 30 * time.Second

	// maxJitterFraction is the upper clamp for Policy/GlobalConfig jitter
	// fractions; kept below 1.0 so planned TTLs stay meaningful.
	maxJitterFraction = 0.9

	// minPlannedTTL is the floor applied to a jittered relative TTL.
	minPlannedTTL = time.Millisecond

	// backgroundRefreshAcquireTimeout bounds how long a fire-and-forget
	// refresh will wait for the per-key gate before giving up, since a
	// peer already holding it means a refresh is already in flight.
	backgroundRefreshAcquireTimeout = 500 * time.Millisecond
)
