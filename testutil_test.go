// testutil_test.go: shared test doubles for cachevane's test suite
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0
package cachevane

import (
	"context"
	"sync"
	"time"
)

// fakeClock is a manually-advanced TimeProvider for deterministic TTL
// and sweep tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memBackend is an in-memory Backend for engine tests. It ignores the
// requested EntryOptions entirely: expiration in these tests is driven
// by the engine's own envelope soft/hard expiry, not by backend TTL.
type memBackend struct {
	mu         sync.Mutex
	data       map[string][]byte
	getErr     error
	setErr     error
	getHits    int
	setHits    int
	removeHits int
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (b *memBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getHits++
	if b.getErr != nil {
		return nil, false, b.getErr
	}
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *memBackend) Set(_ context.Context, key string, value []byte, _ EntryOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setHits++
	if b.setErr != nil {
		return b.setErr
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b.data[key] = cp
	return nil
}

func (b *memBackend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeHits++
	delete(b.data, key)
	return nil
}

func (b *memBackend) counts() (get, set, remove int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.getHits, b.setHits, b.removeHits
}

func (b *memBackend) rawSet(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
}
