// planner.go: expiration planning with jitter
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// jitterSeedCounter guarantees seed independence across goroutines that
// happen to plan expirations within the same clock tick, avoiding
// correlated jitter across concurrent callers. A per-call *rand.Rand
// is cheap and avoids contending a shared source.
var jitterSeedCounter uint64

func newJitterRand(now time.Time) *rand.Rand {
	seed := now.UnixNano() ^ int64(atomic.AddUint64(&jitterSeedCounter, 1))
	// #nosec G404 -- jitter is a load-shedding heuristic, not a security boundary.
	return rand.New(rand.NewSource(seed))
}

// planExpiration builds the EntryOptions to pass to Backend.Set.
//
// If the original caller supplied opts, it is cloned and returned
// unmodified — caller intent is respected and jitter never applies.
// The same rule governs both the foreground write and any
// background-refresh write, since a background refresh never receives
// caller-supplied opts in the first place.
//
// If opts is nil, the engine constructs { AbsoluteExpirationRelativeToNow: hardTTL }
// and, when jitterFraction > 0, perturbs it by δ ∈ [-f, +f], flooring at 1ms.
func planExpiration(opts *EntryOptions, hardTTL time.Duration, jitterFraction float64, callerSupplied bool, now time.Time) *EntryOptions {
	var planned *EntryOptions
	if opts != nil {
		planned = opts.Clone()
	} else {
		rel := hardTTL
		planned = &EntryOptions{AbsoluteExpirationRelativeToNow: &rel}
	}

	if callerSupplied {
		return planned
	}

	if jitterFraction <= 0 {
		return planned
	}
	if jitterFraction > maxJitterFraction {
		jitterFraction = maxJitterFraction
	}
	if planned.AbsoluteExpirationRelativeToNow == nil {
		return planned
	}
	rel := *planned.AbsoluteExpirationRelativeToNow
	if rel <= 0 {
		return planned
	}

	rng := newJitterRand(now)
	delta := (rng.Float64()*2 - 1) * jitterFraction // δ ∈ [-f, +f]
	jittered := time.Duration(float64(rel) * (1 + delta))
	if jittered < minPlannedTTL {
		jittered = minPlannedTTL
	}
	planned.AbsoluteExpirationRelativeToNow = &jittered
	return planned
}
