// lockpool.go: self-evicting per-key lock pool
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// lockEntry is a per-key mutual-exclusion gate plus the bookkeeping
// needed to evict it once nothing references it. gate is a 1-buffered
// channel used as a mutex whose acquire can give up on a timeout or a
// cancelled context, and which survives across
// multiple GetOrCreate calls for the same key instead of being deleted
// after one.
type lockEntry struct {
	gate        chan struct{}
	refCount    atomic.Int64
	lastUsedUTC atomic.Int64 // unix nanoseconds
}

func newLockEntry() *lockEntry {
	e := &lockEntry{gate: make(chan struct{}, 1)}
	e.gate <- struct{}{}
	return e
}

// lockHandle is what callers hold between rent and release. It wraps
// the shared *lockEntry with the specific key, so release can perform
// conditional-removal-by-identity against the pool's map.
type lockHandle struct {
	pool  *lockPool
	key   string
	entry *lockEntry
}

// lockPool hands out per-key lockHandles, ref-counting each lockEntry
// so idle entries are reclaimed — opportunistically on release, and
// otherwise by a periodic sweep — rather than living forever: a
// sync.Map keyed by cache key, using conditional remove-by-identity so
// neither path evicts an entry a new renter has already picked up.
type lockPool struct {
	entries sync.Map // string -> *lockEntry
	window  time.Duration
	clock   TimeProvider
	stop    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
}

func newLockPool(window time.Duration, clock TimeProvider) *lockPool {
	if window <= 0 {
		window = DefaultKeyLockEvictionWindow
	}
	p := &lockPool{
		window: window,
		clock:  clock,
		stop:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.sweepLoop()
	return p
}

// rent returns the lockHandle for key, creating its lockEntry if
// absent and incrementing its reference count. Callers must call
// release exactly once per rent.
func (p *lockPool) rent(key string) *lockHandle {
	actual, _ := p.entries.LoadOrStore(key, newLockEntry())
	entry := actual.(*lockEntry)
	entry.refCount.Add(1)
	entry.lastUsedUTC.Store(p.clock.Now().UnixNano())
	return &lockHandle{pool: p, key: key, entry: entry}
}

// release decrements the handle's reference count and, if that drops
// it to zero and the entry was already idle past the eviction window,
// opportunistically evicts it right away instead of waiting for the
// next sweep. The idle check runs against the timestamp from before
// this release, matching sweep's own refCount==0 && lastUsedUTC<cutoff
// condition; the timestamp is stamped to now afterward either way.
func (h *lockHandle) release() {
	now := h.pool.clock.Now()
	if h.entry.refCount.Add(-1) == 0 {
		cutoff := now.Add(-h.pool.window).UnixNano()
		if h.entry.lastUsedUTC.Load() < cutoff {
			h.pool.entries.CompareAndDelete(h.key, h.entry)
		}
	}
	h.entry.lastUsedUTC.Store(now.UnixNano())
}

// acquire blocks until the handle's gate is held, ctx is done, or
// timeout elapses (timeout <= 0 means wait indefinitely subject only
// to ctx). It reports whether the gate was acquired.
func (h *lockHandle) acquire(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-h.entry.gate:
			return true
		case <-ctx.Done():
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.entry.gate:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

// unlock releases the gate held by a prior successful acquire. Calling
// unlock without a matching successful acquire is a programmer error.
func (h *lockHandle) unlock() {
	h.entry.gate <- struct{}{}
}

// sweepLoop periodically evicts lockEntry values that are both
// unreferenced and idle past the eviction window. The sweep period is
// max(window, minSweepPeriod) so a small window configured for
// responsiveness never turns the sweeper into a busy loop.
func (p *lockPool) sweepLoop() {
	defer p.wg.Done()
	period := p.window
	if period < minSweepPeriod {
		period = minSweepPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.sweep()
		}
	}
}

// sweep removes every lockEntry with zero references whose last use
// predates the eviction window. Removal is conditional on identity
// (CompareAndDelete) so a lockEntry that was just replaced by a
// concurrent rent racing the sweep is never evicted out from under its
// new renter.
func (p *lockPool) sweep() {
	cutoff := p.clock.Now().Add(-p.window).UnixNano()
	p.entries.Range(func(k, v interface{}) bool {
		entry := v.(*lockEntry)
		if entry.refCount.Load() == 0 && entry.lastUsedUTC.Load() < cutoff {
			p.entries.CompareAndDelete(k, entry)
		}
		return true
	})
}

// close stops the sweeper goroutine and waits for it to exit. Renting
// after close is safe but entries will never be swept again; Engine
// rebuilds the pool entirely on Configure instead of reusing a closed one.
func (p *lockPool) close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.stop)
	}
	p.wg.Wait()
}
