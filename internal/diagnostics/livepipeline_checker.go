// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"time"

	"github.com/ManuGH/hlsforge/internal/livepipeline"
	"github.com/ManuGH/hlsforge/internal/resilience"
)

// LivePipelineChecker reports one ladder rung's window/breaker/gap state.
type LivePipelineChecker struct {
	Pipeline *livepipeline.Pipeline
	Breaker  *resilience.CircuitBreaker
	Gaps     *resilience.GapTracker
	now      func() time.Time
}

// NewLivePipelineChecker wraps a single ladder rung's live state for the
// diagnostics surface.
func NewLivePipelineChecker(pp *livepipeline.PresetPipeline) *LivePipelineChecker {
	return &LivePipelineChecker{Pipeline: pp.Run, Breaker: pp.Breaker, Gaps: pp.Gaps, now: time.Now}
}

func (c *LivePipelineChecker) Check(ctx context.Context) SubsystemHealth {
	segments, mediaSeq, discSeq := c.Pipeline.WindowSnapshot()

	status := OK
	breakerState := "closed"
	if c.Breaker != nil {
		breakerState = c.Breaker.GetState().String()
		if !c.Breaker.AllowRequest() {
			status = Unavailable
		}
	}

	now := c.now
	if now == nil {
		now = time.Now
	}

	return SubsystemHealth{
		Subsystem:  SubsystemLivePipeline,
		Status:     status,
		MeasuredAt: now(),
		Detail: LivePipelineDetail{
			SegmentsInWindow:      segments,
			MediaSequence:         mediaSeq,
			DiscontinuitySequence: discSeq,
			CircuitBreakerState:   breakerState,
		},
	}
}
