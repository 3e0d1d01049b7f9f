// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"time"

	"github.com/ManuGH/hlsforge/internal/resilience"
)

// FailoverChecker reports a redundant stream's current failover state.
type FailoverChecker struct {
	Failover *resilience.Failover
}

func (c *FailoverChecker) Check(ctx context.Context) SubsystemHealth {
	state := c.Failover.State()

	status := OK
	switch state {
	case resilience.FailoverFailed:
		status = Degraded
	case resilience.FailoverRecovering:
		status = Degraded
	}

	return SubsystemHealth{
		Subsystem:  SubsystemFailover,
		Status:     status,
		MeasuredAt: time.Now(),
		Detail: FailoverDetail{
			State:     state.String(),
			ActiveURI: c.Failover.ActiveURI(),
		},
	}
}
