// generic.go: generic public surface over the type-erased Engine
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import "context"

// GetOrCreate is a generic convenience wrapper over Engine.GetOrCreate:
// the type-erased core decodes/assigns directly into a *T here, so
// callers never see an interface{} round-trip.
func GetOrCreate[T any](ctx context.Context, e *Engine, key string, compute func(context.Context) (T, error), policy *Policy, opts *EntryOptions) (T, error) {
	var out T
	wrapped := func(c context.Context) (interface{}, error) {
		return compute(c)
	}
	err := e.GetOrCreate(ctx, key, &out, ComputeFunc(wrapped), policy, opts, nil)
	return out, err
}

// GetOrCreateMany is the generic counterpart of Engine.GetOrCreateMany:
// results are decoded directly into a []T instead of []interface{}.
func GetOrCreateMany[T any](ctx context.Context, e *Engine, keys []string, compute func(context.Context, string) (T, error), maxConcurrency int, policy *Policy, opts *EntryOptions) ([]T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	outs := make([]T, len(keys))
	ptrs := make([]interface{}, len(keys))
	for i := range outs {
		ptrs[i] = &outs[i]
	}

	wrapped := func(c context.Context, key string) (interface{}, error) {
		return compute(c, key)
	}

	err := e.GetOrCreateMany(ctx, keys, PerKeyComputeFunc(wrapped), maxConcurrency, policy, opts, nil, ptrs)
	return outs, err
}
