// config_test.go: tests for GlobalConfig/Policy/EntryOptions resolution
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0
package cachevane

import (
	"testing"
	"time"
)

func TestEntryOptions_Clone(t *testing.T) {
	abs := time.Now()
	rel := 5 * time.Minute
	slide := 2 * time.Minute
	orig := &EntryOptions{
		AbsoluteExpiration:              &abs,
		AbsoluteExpirationRelativeToNow: &rel,
		SlidingExpiration:               &slide,
	}
	clone := orig.Clone()

	if clone == orig {
		t.Fatal("Clone must return a distinct struct")
	}
	if clone.AbsoluteExpiration == orig.AbsoluteExpiration {
		t.Error("AbsoluteExpiration must be a distinct pointer")
	}
	if *clone.AbsoluteExpirationRelativeToNow != rel {
		t.Error("relative TTL value mismatch after clone")
	}

	*clone.AbsoluteExpirationRelativeToNow = time.Hour
	if *orig.AbsoluteExpirationRelativeToNow != rel {
		t.Error("mutating the clone must not affect the original")
	}
}

func TestEntryOptions_CloneNil(t *testing.T) {
	var o *EntryOptions
	if o.Clone() != nil {
		t.Error("cloning a nil EntryOptions must return nil")
	}
}

func TestDefaultGlobalConfig(t *testing.T) {
	cfg := DefaultGlobalConfig()
	if cfg.Serializer == nil {
		t.Error("expected default Serializer")
	}
	if cfg.DefaultSoftTTL != DefaultSoftTTL {
		t.Errorf("expected default soft TTL %v, got %v", DefaultSoftTTL, cfg.DefaultSoftTTL)
	}
	if cfg.DefaultHardTTL != DefaultHardTTL {
		t.Errorf("expected default hard TTL %v, got %v", DefaultHardTTL, cfg.DefaultHardTTL)
	}
	if cfg.Logger == nil || cfg.MetricsCollector == nil || cfg.TimeProvider == nil {
		t.Error("expected every collaborator to have a default")
	}
}

func TestGlobalConfig_Validate_ClampsJitter(t *testing.T) {
	cfg := GlobalConfig{ExpirationJitterFraction: 5.0}
	_ = cfg.Validate()
	if cfg.ExpirationJitterFraction != maxJitterFraction {
		t.Errorf("expected jitter clamped to %v, got %v", maxJitterFraction, cfg.ExpirationJitterFraction)
	}

	cfg2 := GlobalConfig{ExpirationJitterFraction: -1}
	_ = cfg2.Validate()
	if cfg2.ExpirationJitterFraction != 0 {
		t.Errorf("expected negative jitter clamped to 0, got %v", cfg2.ExpirationJitterFraction)
	}
}

func TestGlobalConfig_Validate_SoftNeverExceedsHard(t *testing.T) {
	cfg := GlobalConfig{DefaultSoftTTL: time.Hour, DefaultHardTTL: time.Minute}
	_ = cfg.Validate()
	if cfg.DefaultSoftTTL != cfg.DefaultHardTTL {
		t.Errorf("expected soft TTL clamped down to hard TTL, got soft=%v hard=%v", cfg.DefaultSoftTTL, cfg.DefaultHardTTL)
	}
}

func TestGlobalConfig_EffectiveKey(t *testing.T) {
	cfg := GlobalConfig{KeyPrefix: "svc:"}
	if got := cfg.effectiveKey("user:1"); got != "svc:user:1" {
		t.Errorf("expected prefixed key, got %q", got)
	}

	blank := GlobalConfig{KeyPrefix: "   "}
	if got := blank.effectiveKey("user:1"); got != "user:1" {
		t.Errorf("whitespace-only prefix must be treated as no prefix, got %q", got)
	}
}

func TestResolvePolicy_NilPolicyUsesGlobalDefaults(t *testing.T) {
	cfg := DefaultGlobalConfig()
	r := resolvePolicy(nil, &cfg)
	if r.softTTL != cfg.DefaultSoftTTL || r.hardTTL != cfg.DefaultHardTTL {
		t.Error("nil Policy must fall through entirely to GlobalConfig")
	}
}

func TestResolvePolicy_OverridesWin(t *testing.T) {
	cfg := DefaultGlobalConfig()
	soft := 30 * time.Second
	maxPayload := 1024
	p := &Policy{SoftTTL: &soft, MaxPayloadBytes: &maxPayload}

	r := resolvePolicy(p, &cfg)
	if r.softTTL != soft {
		t.Errorf("expected overridden soft TTL %v, got %v", soft, r.softTTL)
	}
	if r.hardTTL != cfg.DefaultHardTTL {
		t.Error("unset Policy fields must fall through to GlobalConfig")
	}
	if r.maxPayloadBytes != maxPayload {
		t.Errorf("expected overridden max payload %d, got %d", maxPayload, r.maxPayloadBytes)
	}
}

func TestResolvePolicy_LockWaitTimeout(t *testing.T) {
	cfg := DefaultGlobalConfig()
	globalTimeout := 2 * time.Second
	cfg.LockWaitTimeout = &globalTimeout

	r := resolvePolicy(nil, &cfg)
	if r.lockWaitTimeout != globalTimeout {
		t.Errorf("expected global lock wait timeout, got %v", r.lockWaitTimeout)
	}

	policyTimeout := 500 * time.Millisecond
	r2 := resolvePolicy(&Policy{LockWaitTimeout: &policyTimeout}, &cfg)
	if r2.lockWaitTimeout != policyTimeout {
		t.Errorf("expected policy lock wait timeout to win, got %v", r2.lockWaitTimeout)
	}
}
