// hotreload.go: dynamic hot-key threshold/window reconfiguration via
// Argus file watching (spec §5 "Configuration... immutable thereafter,
// except hot-key threshold/window via reconfigure").
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file for hot-key threshold/window
// changes and applies them to a running Facade without reconstruction.
// This is the only mutable slice of an otherwise frozen Config (spec §5).
type HotConfig struct {
	facade  *Facade
	watcher *argus.Watcher
	mu      sync.RWMutex
	hotkey  HotkeyConfig

	// OnReload is called after a reload is applied. Optional, must be
	// fast and non-blocking.
	OnReload func(old, new HotkeyConfig)

	logger Logger
}

// HotConfigOptions configures hot-reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the file to watch. Supports JSON, YAML, TOML, HCL,
	// INI, Properties, per Argus' universal loader.
	ConfigPath string

	// PollInterval is how often to check for changes. Default 1s,
	// minimum 100ms.
	PollInterval time.Duration

	OnReload func(old, new HotkeyConfig)
	Logger   Logger
}

// NewHotConfig starts watching opts.ConfigPath and applies hot-key
// threshold/window changes to facade as they're detected. Recognized
// keys (optionally nested under a "hotkey" section):
//   - hotkey.threshold (int): accesses within window to mark a key hot
//   - hotkey.window (duration string, e.g. "60s"): sliding window size
//
// No other keys are read; in particular filter.rebuild_threshold is not
// reloaded and keeps its construction-time value.
func NewHotConfig(facade *Facade, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = facade.logger
	}

	hc := &HotConfig{
		facade:   facade,
		OnReload: opts.OnReload,
		hotkey:   facade.cfg.Hotkey,
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

// Start begins watching, a no-op if already running.
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

// CurrentHotkeyConfig returns the last-applied hot-key config.
func (hc *HotConfig) CurrentHotkeyConfig() HotkeyConfig {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.hotkey
}

func (hc *HotConfig) handleConfigChange(data map[string]interface{}) {
	hc.mu.Lock()
	old := hc.hotkey
	updated := parseHotkeyConfig(data, old)
	hc.hotkey = updated
	hc.mu.Unlock()

	if updated != old {
		hc.facade.Reconfigure(updated.Threshold, updated.Window)
		hc.logger.Info("hot-key configuration reloaded",
			"threshold", updated.Threshold, "window", updated.Window.String())
	}

	if hc.OnReload != nil {
		hc.OnReload(old, updated)
	}
}

func parseHotkeyConfig(data map[string]interface{}, fallback HotkeyConfig) HotkeyConfig {
	section, ok := data["hotkey"].(map[string]interface{})
	if !ok {
		section = data
	}

	result := fallback
	if threshold, ok := parsePositiveInt(section["threshold"]); ok {
		result.Threshold = threshold
	}
	if window, ok := parseDurationValue(section["window"]); ok {
		result.Window = window
	}
	return result
}

func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

func parseDurationValue(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}
