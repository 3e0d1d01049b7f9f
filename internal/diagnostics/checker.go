// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"time"

	"github.com/ManuGH/hlsforge/internal/version"
)

// HealthChecker reports one subsystem's current health.
type HealthChecker interface {
	Check(ctx context.Context) SubsystemHealth
}

// ComputeOverallStatus folds every subsystem's status into one. Any
// unavailable subsystem makes the toolkit unavailable for that ladder rung;
// any degraded subsystem makes it degraded; otherwise it is ok.
func ComputeOverallStatus(subsystems map[Subsystem]SubsystemHealth) HealthStatus {
	status := OK
	for _, h := range subsystems {
		switch h.Status {
		case Unavailable:
			return Unavailable
		case Degraded:
			status = Degraded
		}
	}
	return status
}

// Collect runs every checker and assembles a Report.
func Collect(ctx context.Context, checkers map[Subsystem]HealthChecker, now func() time.Time) Report {
	subsystems := make(map[Subsystem]SubsystemHealth, len(checkers))
	for name, checker := range checkers {
		subsystems[name] = checker.Check(ctx)
	}
	return Report{
		Version:       version.Version,
		Commit:        version.Commit,
		MeasuredAt:    now(),
		OverallStatus: ComputeOverallStatus(subsystems),
		Subsystems:    subsystems,
	}
}
