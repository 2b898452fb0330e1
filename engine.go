// engine.go: the read-compute-write coordination engine
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"time"
)

// ComputeFunc produces the value to cache on a miss or recompute. It
// must be safe to call from a background goroutine when invoked as
// part of a background refresh.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// EngineOption customizes the GlobalConfig an Engine starts with.
type EngineOption func(*GlobalConfig)

func WithSerializer(s Serializer) EngineOption { return func(c *GlobalConfig) { c.Serializer = s } }
func WithLogger(l Logger) EngineOption         { return func(c *GlobalConfig) { c.Logger = l } }
func WithMetricsCollector(m MetricsCollector) EngineOption {
	return func(c *GlobalConfig) { c.MetricsCollector = m }
}
func WithTimeProvider(t TimeProvider) EngineOption { return func(c *GlobalConfig) { c.TimeProvider = t } }
func WithDefaultSoftTTL(d time.Duration) EngineOption {
	return func(c *GlobalConfig) { c.DefaultSoftTTL = d }
}
func WithDefaultHardTTL(d time.Duration) EngineOption {
	return func(c *GlobalConfig) { c.DefaultHardTTL = d }
}
func WithExpirationJitterFraction(f float64) EngineOption {
	return func(c *GlobalConfig) { c.ExpirationJitterFraction = f }
}
func WithKeyPrefix(p string) EngineOption { return func(c *GlobalConfig) { c.KeyPrefix = p } }
func WithKeyLockEvictionWindow(w time.Duration) EngineOption {
	return func(c *GlobalConfig) { c.KeyLockEvictionWindow = w }
}
func WithMaxPayloadBytes(n int) EngineOption { return func(c *GlobalConfig) { c.MaxPayloadBytes = n } }
func WithSkipCachingNullOrDefault(b bool) EngineOption {
	return func(c *GlobalConfig) { c.SkipCachingNullOrDefault = b }
}
func WithLockWaitTimeout(d time.Duration) EngineOption {
	return func(c *GlobalConfig) { c.LockWaitTimeout = &d }
}

// Engine drives the lookup -> (early-refresh?) -> (serve | lock ->
// recompute -> store) protocol over an abstract Backend. A single
// Engine is meant to be shared process-wide: GlobalConfig and the lock
// pool are swapped atomically by Configure rather than guarded by a mutex.
type Engine struct {
	backend Backend

	cfg  atomic.Pointer[GlobalConfig]
	pool atomic.Pointer[lockPool]

	hits                atomic.Uint64
	misses              atomic.Uint64
	staleServed         atomic.Uint64
	refreshesStarted    atomic.Uint64
	refreshesCompleted  atomic.Uint64
	deserializeFailures atomic.Uint64

	closed atomic.Bool
}

// NewEngine constructs an Engine over backend with GlobalConfig
// defaults, applying opts in order. backend must not be nil.
func NewEngine(backend Backend, opts ...EngineOption) (*Engine, error) {
	if backend == nil {
		return nil, NewErrNilBackend()
	}
	cfg := DefaultGlobalConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{backend: backend}
	e.cfg.Store(&cfg)
	e.pool.Store(newLockPool(cfg.KeyLockEvictionWindow, cfg.TimeProvider))
	return e, nil
}

// Configure atomically replaces the GlobalConfig in effect and
// rebuilds the lock pool against it. The old pool's sweeper is stopped
// after the swap so in-flight rents against it still resolve correctly.
func (e *Engine) Configure(mutator func(*GlobalConfig)) error {
	cur := *e.cfg.Load()
	mutator(&cur)
	if err := cur.Validate(); err != nil {
		return err
	}
	oldPool := e.pool.Load()
	newPool := newLockPool(cur.KeyLockEvictionWindow, cur.TimeProvider)
	e.cfg.Store(&cur)
	e.pool.Store(newPool)
	if oldPool != nil {
		oldPool.close()
	}
	return nil
}

// Close stops the lock pool sweeper. An Engine is not usable after Close.
func (e *Engine) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		if p := e.pool.Load(); p != nil {
			p.close()
		}
	}
	return nil
}

// Stats returns a snapshot of the engine's built-in atomic counters,
// available without wiring a MetricsCollector.
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:                e.hits.Load(),
		Misses:              e.misses.Load(),
		StaleServed:         e.staleServed.Load(),
		RefreshesStarted:    e.refreshesStarted.Load(),
		RefreshesCompleted:  e.refreshesCompleted.Load(),
		DeserializeFailures: e.deserializeFailures.Load(),
	}
}

// lookupState classifies a backend payload relative to now.
type lookupState int

const (
	stateMiss lookupState = iota
	stateFresh
	stateStaleServeable
	stateExpired
	statePlainHit // decoded via decodePlain: no SWR metadata, always fresh
)

type lookupResult struct {
	state      lookupState
	hardExpire time.Time // only meaningful for stateFresh/stateStaleServeable/stateExpired
}

// lookup fetches effectiveKey and, on a hit, decodes it into out,
// classifying it as fresh/stale-serveable/expired/plain. A decode
// failure on a hit is corruption; removeOnCorruption controls whether
// this call is allowed to issue the Backend.Remove for it: only the
// pre-lock lookup removes a corrupted payload, so the post-lock
// double-check treats a second corrupted read as a plain miss and
// Remove is issued exactly once per call.
func (e *Engine) lookup(ctx context.Context, cfg *GlobalConfig, r resolved, effectiveKey string, out interface{}, ser Serializer, removeOnCorruption bool) (lookupResult, bool, error) {
	raw, found, err := e.backend.Get(ctx, effectiveKey)
	if err != nil {
		return lookupResult{}, false, NewErrBackendGetFailed(effectiveKey, err)
	}
	if !found {
		return lookupResult{state: stateMiss}, false, nil
	}

	if valueBytes, softExpireUTC, ok := tryDecodeEnvelope(raw); ok {
		if err := ser.Decode(valueBytes, out); err != nil {
			return e.handleCorruption(ctx, cfg, effectiveKey, err, removeOnCorruption)
		}
		now := cfg.TimeProvider.Now()
		createdAt := softExpireUTC.Add(-r.softTTL)
		hardExpire := createdAt.Add(r.hardTTL)
		switch {
		case !now.After(softExpireUTC):
			return lookupResult{state: stateFresh, hardExpire: hardExpire}, true, nil
		case !now.After(hardExpire):
			return lookupResult{state: stateStaleServeable, hardExpire: hardExpire}, true, nil
		default:
			return lookupResult{state: stateExpired, hardExpire: hardExpire}, true, nil
		}
	}

	if err := decodePlain(ser, raw, out); err != nil {
		return e.handleCorruption(ctx, cfg, effectiveKey, err, removeOnCorruption)
	}
	return lookupResult{state: statePlainHit}, true, nil
}

// handleCorruption counts a decode failure on a hit, removes the key
// when removeOnCorruption is set, and proceeds as though it were a miss.
func (e *Engine) handleCorruption(ctx context.Context, cfg *GlobalConfig, effectiveKey string, decodeErr error, removeOnCorruption bool) (lookupResult, bool, error) {
	e.deserializeFailures.Add(1)
	cfg.MetricsCollector.IncDeserializeFailures()
	corruptErr := NewErrCorruptedData(effectiveKey, decodeErr)
	if !removeOnCorruption {
		cfg.Logger.Warn("cachevane: corrupted payload seen again under lock, not re-removing", "key", effectiveKey, "error", corruptErr)
		return lookupResult{state: stateMiss}, false, nil
	}
	if err := e.backend.Remove(ctx, effectiveKey); err != nil {
		cfg.Logger.Warn("cachevane: remove after corruption failed", "key", effectiveKey, "corruption", corruptErr, "remove_error", err)
	} else {
		cfg.Logger.Warn("cachevane: corrupted payload removed", "key", effectiveKey, "error", corruptErr)
	}
	return lookupResult{state: stateMiss}, false, nil
}

// GetOrCreate fetches the cached value for key into out (a non-nil
// pointer), computing and storing it via compute on a miss or
// recompute, with at-most-one in-flight compute per effective key.
//
// policy and opts may be nil; ser may be nil to use the configured
// default Serializer. When policy is nil the write is plain (no SWR
// envelope); reads still accept either representation.
func (e *Engine) GetOrCreate(ctx context.Context, key string, out interface{}, compute ComputeFunc, policy *Policy, opts *EntryOptions, ser Serializer) error {
	if isBlank(key) {
		return NewErrEmptyKey("GetOrCreate")
	}
	if compute == nil {
		return NewErrNilCompute(key)
	}

	cfg := e.cfg.Load()
	if ser == nil {
		ser = cfg.Serializer
	}
	r := resolvePolicy(policy, cfg)
	effectiveKey := cfg.effectiveKey(key)
	useEnvelope := policy != nil
	callerSuppliedOpts := opts != nil

	result, hasValue, err := e.lookup(ctx, cfg, r, effectiveKey, out, ser, true)
	if err != nil {
		return err
	}

	switch result.state {
	case stateFresh:
		e.hits.Add(1)
		cfg.MetricsCollector.IncHits()
		if !isNoOpLogger(cfg.Logger) {
			cfg.Logger.Debug("cachevane: cache hit", "key", effectiveKey, "state", "fresh")
		}
		if r.earlyRefreshWindow > 0 && !result.hardExpire.IsZero() {
			now := cfg.TimeProvider.Now()
			if result.hardExpire.Sub(now) <= r.earlyRefreshWindow {
				e.spawnBackgroundRefresh(effectiveKey, compute, r, ser)
			}
		}
		return nil

	case stateStaleServeable:
		e.hits.Add(1)
		e.staleServed.Add(1)
		cfg.MetricsCollector.IncHits()
		cfg.MetricsCollector.IncStaleServed()
		if !isNoOpLogger(cfg.Logger) {
			cfg.Logger.Debug("cachevane: cache hit", "key", effectiveKey, "state", "stale")
		}
		e.spawnBackgroundRefresh(effectiveKey, compute, r, ser)
		return nil

	case statePlainHit:
		e.hits.Add(1)
		cfg.MetricsCollector.IncHits()
		if !isNoOpLogger(cfg.Logger) {
			cfg.Logger.Debug("cachevane: cache hit", "key", effectiveKey, "state", "plain")
		}
		return nil
	}

	if !isNoOpLogger(cfg.Logger) {
		cfg.Logger.Debug("cachevane: cache miss", "key", effectiveKey)
	}

	// stateMiss or stateExpired: recompute under the per-key gate.
	return e.recompute(ctx, cfg, r, effectiveKey, out, compute, ser, useEnvelope, opts, callerSuppliedOpts, hasValue)
}

// recompute rents the per-key lock, double-checks for a peer's result,
// and on a genuine miss runs compute and stores the value. If the lock
// can't be acquired in time it takes timeoutFallback (the value read
// before the wait, or an uncached compute); if the caller's context
// ends during the wait, its error is returned.
func (e *Engine) recompute(ctx context.Context, cfg *GlobalConfig, r resolved, effectiveKey string, out interface{}, compute ComputeFunc, ser Serializer, useEnvelope bool, opts *EntryOptions, callerSuppliedOpts bool, hadStaleValue bool) error {
	pool := e.pool.Load()
	handle := pool.rent(effectiveKey)
	defer handle.release()

	waitStart := cfg.TimeProvider.Now()
	acquired := handle.acquire(ctx, r.lockWaitTimeout)
	cfg.MetricsCollector.ObserveLockWait(cfg.TimeProvider.Now().Sub(waitStart))
	if !acquired {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg.Logger.Warn("cachevane: lock wait timed out, taking fallback path", "key", effectiveKey)
		return e.timeoutFallback(ctx, effectiveKey, out, compute, hadStaleValue)
	}
	defer handle.unlock()

	// Double-check: a peer may have populated the entry while we waited.
	dc, _, err := e.lookup(ctx, cfg, r, effectiveKey, out, ser, false)
	if err != nil {
		return err
	}
	if dc.state == stateFresh || dc.state == stateStaleServeable || dc.state == statePlainHit {
		e.hits.Add(1)
		cfg.MetricsCollector.IncHits()
		if !isNoOpLogger(cfg.Logger) {
			cfg.Logger.Debug("cachevane: cache hit", "key", effectiveKey, "state", "double-check")
		}
		return nil
	}

	e.misses.Add(1)
	cfg.MetricsCollector.IncMisses()
	if !isNoOpLogger(cfg.Logger) {
		cfg.Logger.Debug("cachevane: cache miss", "key", effectiveKey, "state", "double-check")
	}

	start := cfg.TimeProvider.Now()
	value, err := runCompute(ctx, compute)
	cfg.MetricsCollector.ObserveCompute(cfg.TimeProvider.Now().Sub(start))
	if err != nil {
		return NewErrComputeFailed(effectiveKey, err)
	}
	if err := assignOut(out, value); err != nil {
		return err
	}

	if err := e.store(ctx, cfg, r, effectiveKey, value, ser, useEnvelope, opts, callerSuppliedOpts); err != nil {
		return err
	}
	return nil
}

// timeoutFallback implements the not-acquired branch of [LockPath]: a
// stale-but-present value is served as-is; otherwise compute runs
// uncoordinated and its result is never stored.
func (e *Engine) timeoutFallback(ctx context.Context, effectiveKey string, out interface{}, compute ComputeFunc, hadStaleValue bool) error {
	if hadStaleValue {
		e.hits.Add(1)
		e.staleServed.Add(1)
		return nil
	}
	value, err := runCompute(ctx, compute)
	if err != nil {
		return NewErrComputeFailed(effectiveKey, err)
	}
	return assignOut(out, value)
}

// store skips writing a zero/default value when skipCachingNullOrDefault
// is set, and otherwise encodes and writes the value back.
func (e *Engine) store(ctx context.Context, cfg *GlobalConfig, r resolved, effectiveKey string, value interface{}, ser Serializer, useEnvelope bool, opts *EntryOptions, callerSuppliedOpts bool) error {
	if r.skipCachingNullOrDefault && isZeroValue(value) {
		return nil
	}

	now := cfg.TimeProvider.Now()
	var payload []byte
	var err error
	if useEnvelope {
		payload, err = encodeEnvelope(ser, value, now.Add(r.softTTL))
	} else {
		payload, err = ser.Encode(value)
	}
	if err != nil {
		return NewErrInternal("encode", err)
	}

	if r.maxPayloadBytes > 0 && len(payload) > r.maxPayloadBytes {
		cfg.Logger.Warn("cachevane: compute result exceeds MaxPayloadBytes, not cached",
			"error", NewErrPayloadTooLarge(effectiveKey, len(payload), r.maxPayloadBytes))
		return nil
	}

	storeOpts := planExpiration(opts, r.hardTTL, r.expirationJitterFraction, callerSuppliedOpts, now)
	if err := e.backend.Set(ctx, effectiveKey, payload, *storeOpts); err != nil {
		return NewErrBackendSetFailed(effectiveKey, err)
	}
	return nil
}

// spawnBackgroundRefresh fires a fire-and-forget refresh for
// effectiveKey. It never propagates an error to the caller.
func (e *Engine) spawnBackgroundRefresh(effectiveKey string, compute ComputeFunc, r resolved, ser Serializer) {
	go e.backgroundRefresh(effectiveKey, compute, r, ser)
}

func (e *Engine) backgroundRefresh(effectiveKey string, compute ComputeFunc, r resolved, ser Serializer) {
	cfg := e.cfg.Load()
	pool := e.pool.Load()
	handle := pool.rent(effectiveKey)
	defer handle.release()

	ctx := context.Background()
	if !handle.acquire(ctx, backgroundRefreshAcquireTimeout) {
		return // a peer is already refreshing
	}
	defer handle.unlock()

	e.refreshesStarted.Add(1)
	cfg.MetricsCollector.IncRefreshStarted()

	value, err := runCompute(ctx, compute)
	if err != nil {
		cfg.Logger.Warn("cachevane: background refresh compute failed", "key", effectiveKey, "error", err)
		return
	}

	if err := e.store(ctx, cfg, r, effectiveKey, value, ser, true, nil, false); err != nil {
		cfg.Logger.Warn("cachevane: background refresh store failed", "key", effectiveKey, "error", err)
		return
	}

	e.refreshesCompleted.Add(1)
	cfg.MetricsCollector.IncRefreshCompleted()
}

// runCompute invokes compute, converting a panic into a
// CACHEVANE_PANIC_RECOVERED error rather than crashing the caller or
// (for background refreshes) the process.
func runCompute(ctx context.Context, compute ComputeFunc) (value interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = NewErrPanicRecovered("", rec)
		}
	}()
	return compute(ctx)
}

// assignOut writes value into *out via reflection. out must be a
// non-nil pointer whose element type is assignable from value; this is
// the reflection shim that lets GetOrCreate stay type-erased while
// generic.go's wrappers give callers a typed API.
func assignOut(out interface{}, value interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return NewErrInternal("assignOut", errors.New("out must be a non-nil pointer"))
	}
	elem := rv.Elem()
	if value == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(elem.Type()) {
		return NewErrInternal("assignOut", fmt.Errorf("cannot assign %T into %s", value, elem.Type()))
	}
	elem.Set(vv)
	return nil
}

func isZeroValue(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
