// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads and hot-reloads the toolkit's YAML configuration:
// per-preset live pipeline tuning, key rotation policy, failover targets,
// and the diagnostics HTTP surface.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PresetConfig configures one bitrate ladder rung.
type PresetConfig struct {
	Name               string  `yaml:"name"`
	TargetDuration     float64 `yaml:"target_duration_seconds"`
	WindowSize         int     `yaml:"window_size"`
	PartTargetDuration float64 `yaml:"part_target_duration_seconds"`
}

// KeyRotationConfig configures internal/keystore.Manager.
type KeyRotationConfig struct {
	Policy       string `yaml:"policy"` // none|every_segment|every_n_segments|interval|manual
	N            int    `yaml:"n,omitempty"`
	IntervalSecs int    `yaml:"interval_seconds,omitempty"`
	BadgerDir    string `yaml:"badger_dir,omitempty"`
}

// FailoverConfig configures internal/resilience.Failover for one redundant
// stream group.
type FailoverConfig struct {
	Primary              string   `yaml:"primary"`
	Backups              []string `yaml:"backups"`
	PrimaryRecoveryDelay int      `yaml:"primary_recovery_delay_seconds"`
}

// DiagnosticsConfig configures internal/diagnostics.NewServer.
type DiagnosticsConfig struct {
	Addr              string `yaml:"addr"`
	RequestLimit      int    `yaml:"request_limit"`
	WindowSeconds     int    `yaml:"window_seconds"`
	GlobalQPS         int    `yaml:"global_qps"`
}

// AppConfig is the root toolkit configuration document.
type AppConfig struct {
	Presets     []PresetConfig      `yaml:"presets"`
	KeyRotation KeyRotationConfig   `yaml:"key_rotation"`
	Failover    *FailoverConfig     `yaml:"failover,omitempty"`
	Diagnostics DiagnosticsConfig   `yaml:"diagnostics"`
}

// Default returns the toolkit's zero-config starting point: one generic
// preset, no key rotation, diagnostics bound to localhost.
func Default() AppConfig {
	return AppConfig{
		Presets: []PresetConfig{
			{Name: "default", TargetDuration: 6, WindowSize: 5},
		},
		KeyRotation: KeyRotationConfig{Policy: "none"},
		Diagnostics: DiagnosticsConfig{
			Addr:          "127.0.0.1:9080",
			RequestLimit:  60,
			WindowSeconds: 60,
			GlobalQPS:     50,
		},
	}
}

// Load reads and parses a YAML config file at path, merged onto Default().
func Load(path string) (AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, Validate(cfg)
}

// Validate enforces internal consistency the YAML schema alone can't: every
// preset needs a name and a positive target duration, and a rotation policy
// of every_n_segments/interval needs its corresponding parameter.
func Validate(cfg AppConfig) error {
	seen := make(map[string]bool, len(cfg.Presets))
	for _, p := range cfg.Presets {
		if p.Name == "" {
			return fmt.Errorf("config: preset missing name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate preset name %q", p.Name)
		}
		seen[p.Name] = true
		if p.TargetDuration <= 0 {
			return fmt.Errorf("config: preset %q target_duration_seconds must be positive", p.Name)
		}
	}

	switch cfg.KeyRotation.Policy {
	case "", "none", "every_segment", "manual":
	case "every_n_segments":
		if cfg.KeyRotation.N <= 0 {
			return fmt.Errorf("config: key_rotation.n must be positive for every_n_segments")
		}
	case "interval":
		if cfg.KeyRotation.IntervalSecs <= 0 {
			return fmt.Errorf("config: key_rotation.interval_seconds must be positive for interval")
		}
	default:
		return fmt.Errorf("config: unknown key_rotation.policy %q", cfg.KeyRotation.Policy)
	}

	if cfg.Failover != nil && cfg.Failover.Primary == "" {
		return fmt.Errorf("config: failover.primary is required when failover is configured")
	}

	return nil
}

// RecoveryDelay returns the configured primary recovery delay as a
// time.Duration, defaulting to 30s when unset.
func (f FailoverConfig) RecoveryDelay() time.Duration {
	if f.PrimaryRecoveryDelay <= 0 {
		return 30 * time.Second
	}
	return time.Duration(f.PrimaryRecoveryDelay) * time.Second
}
