// bulk.go: bounded-concurrency batched get-or-create
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// PerKeyComputeFunc produces the value for one key during a bulk call.
type PerKeyComputeFunc func(ctx context.Context, key string) (interface{}, error)

// GetOrCreateMany runs GetOrCreate for every key in keys, admitting at
// most d = max(1, min(len(keys), maxConcurrency)) concurrent calls
// (maxConcurrency <= 0 defaults to GOMAXPROCS). Results preserve input
// order. The first error encountered is returned after outstanding
// work settles. outs[i] must be the destination pointer for keys[i]
// (e.g. a *T); it is left untouched for any key whose call never
// started, and its contents are unspecified for any key whose call
// returned an error (a decoded cached value or the computed value may
// already have been written into it).
//
// Bounded via golang.org/x/sync/semaphore, grounded on shardcache's
// go.mod carrying golang.org/x/sync for exactly this purpose.
func (e *Engine) GetOrCreateMany(ctx context.Context, keys []string, compute PerKeyComputeFunc, maxConcurrency int, policy *Policy, opts *EntryOptions, ser Serializer, outs []interface{}) error {
	if len(keys) == 0 {
		return nil
	}
	if len(outs) != len(keys) {
		return NewErrInternal("GetOrCreateMany", fmt.Errorf("outs must have the same length as keys (%d != %d)", len(outs), len(keys)))
	}

	degree := maxConcurrency
	if degree <= 0 {
		degree = runtime.GOMAXPROCS(0)
	}
	if degree > len(keys) {
		degree = len(keys)
	}
	if degree < 1 {
		degree = 1
	}

	sem := semaphore.NewWeighted(int64(degree))
	var wg sync.WaitGroup
	var firstErrOnce sync.Once
	var firstErr error

	for i, key := range keys {
		i, key := i, key
		if err := sem.Acquire(ctx, 1); err != nil {
			firstErrOnce.Do(func() { firstErr = err })
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			perKeyCompute := func(c context.Context) (interface{}, error) {
				return compute(c, key)
			}
			if err := e.GetOrCreate(ctx, key, outs[i], ComputeFunc(perKeyCompute), policy, opts, ser); err != nil {
				firstErrOnce.Do(func() { firstErr = err })
			}
		}()
	}

	wg.Wait()
	return firstErr
}
