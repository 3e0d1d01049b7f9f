// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/hlsforge/internal/keystore"
	"github.com/ManuGH/hlsforge/internal/resilience"
)

// RotationPolicy converts the YAML-facing rotation config into the
// internal/keystore.RotationPolicy its Manager expects. Validate already
// rejected any combination this would panic on.
func (k KeyRotationConfig) RotationPolicy() keystore.RotationPolicy {
	switch k.Policy {
	case "every_segment":
		return keystore.EverySegment()
	case "every_n_segments":
		return keystore.EveryNSegments(k.N)
	case "interval":
		return keystore.IntervalPolicy(time.Duration(k.IntervalSecs) * time.Second)
	case "manual":
		return keystore.ManualPolicy()
	default:
		return keystore.NoRotation()
	}
}

// ResilienceConfig converts the YAML-facing failover config into
// internal/resilience.FailoverConfig.
func (f FailoverConfig) ResilienceConfig() resilience.FailoverConfig {
	return resilience.FailoverConfig{
		Primary:              f.Primary,
		Backups:              f.Backups,
		PrimaryRecoveryDelay: f.RecoveryDelay(),
	}
}
