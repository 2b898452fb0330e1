// clock.go: default TimeProvider backed by go-timecache
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"time"

	"github.com/agilira/go-timecache"
)

// systemTimeProvider is the default TimeProvider. go-timecache keeps a
// background-refreshed timestamp so Now() avoids a syscall on every call,
// which matters here because Now() is read on every lookup to decide
// fresh/stale/expired.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() time.Time {
	return time.Unix(0, timecache.CachedTimeNano())
}
