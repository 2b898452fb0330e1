// hotreload.go: dynamic GlobalConfig reload via Argus file watching
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"fmt"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file via argus and calls
// Engine.Configure whenever it changes, applying updates to
// GlobalConfig's tunable fields.
type HotConfig struct {
	engine  *Engine
	watcher *argus.Watcher

	// OnReload is called after a file change has been applied. Optional;
	// must be fast and non-blocking.
	OnReload func(applied map[string]interface{})

	logger Logger
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats (argus).
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after a file change has been applied.
	OnReload func(applied map[string]interface{})

	// Logger for hot reload operations. Defaults to NoOpLogger.
	Logger Logger
}

// Supported top-level keys in the watched configuration file, all
// optional: soft_ttl, hard_ttl, expiration_jitter_fraction,
// key_lock_eviction_window, lock_wait_timeout, key_prefix — each a
// direct field of GlobalConfig. Durations are strings parseable by
// time.ParseDuration (e.g. "30s", "5m").
func NewHotConfig(engine *Engine, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		engine:   engine,
		OnReload: opts.OnReload,
		logger:   opts.Logger,
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher
	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

func (hc *HotConfig) handleConfigChange(data map[string]interface{}) {
	applied := map[string]interface{}{}

	err := hc.engine.Configure(func(cfg *GlobalConfig) {
		if d, ok := parseDuration(data["soft_ttl"]); ok {
			cfg.DefaultSoftTTL = d
			applied["soft_ttl"] = d
		}
		if d, ok := parseDuration(data["hard_ttl"]); ok {
			cfg.DefaultHardTTL = d
			applied["hard_ttl"] = d
		}
		if f, ok := parseFloatInRange(data["expiration_jitter_fraction"], -0.0000001, 1); ok {
			cfg.ExpirationJitterFraction = f
			applied["expiration_jitter_fraction"] = f
		}
		if d, ok := parseDuration(data["key_lock_eviction_window"]); ok {
			cfg.KeyLockEvictionWindow = d
			applied["key_lock_eviction_window"] = d
		}
		if d, ok := parseDuration(data["lock_wait_timeout"]); ok {
			cfg.LockWaitTimeout = &d
			applied["lock_wait_timeout"] = d
		}
		if prefix, ok := data["key_prefix"].(string); ok {
			cfg.KeyPrefix = prefix
			applied["key_prefix"] = prefix
		}
	})
	if err != nil {
		hc.logger.Warn("cachevane: hot-reload Configure failed", "error", err)
		return
	}

	if hc.OnReload != nil && len(applied) > 0 {
		hc.OnReload(applied)
	}
}

// parseDuration extracts a time.Duration from a string value (e.g. "30s").
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

// parseFloatInRange extracts a float64 within (min, max], accepting
// both float64 and int JSON/YAML decodings.
func parseFloatInRange(value interface{}, min, max float64) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if v > min && v <= max {
			return v, true
		}
	case int:
		f := float64(v)
		if f > min && f <= max {
			return f, true
		}
	}
	return 0, false
}
