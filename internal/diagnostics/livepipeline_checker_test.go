// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"testing"

	"github.com/ManuGH/hlsforge/internal/livepipeline"
)

func TestLivePipelineChecker_ReportsWindowState(t *testing.T) {
	pp := livepipeline.NewPresetPipeline(livepipeline.Preset{Name: "720p"}, livepipeline.Config{TargetDuration: 2, WindowSize: 4}, 0, 0)
	checker := NewLivePipelineChecker(pp)

	health := checker.Check(context.Background())
	if health.Subsystem != SubsystemLivePipeline {
		t.Fatalf("subsystem = %v, want live_pipeline", health.Subsystem)
	}
	if health.Status != OK {
		t.Fatalf("status = %v, want ok for a fresh breaker", health.Status)
	}

	detail, ok := health.Detail.(LivePipelineDetail)
	if !ok {
		t.Fatalf("detail type = %T, want LivePipelineDetail", health.Detail)
	}
	if detail.CircuitBreakerState != "closed" {
		t.Fatalf("breaker state = %q, want closed", detail.CircuitBreakerState)
	}
}

func TestLivePipelineChecker_UnavailableWhenBreakerOpen(t *testing.T) {
	pp := livepipeline.NewPresetPipeline(livepipeline.Preset{Name: "480p"}, livepipeline.Config{TargetDuration: 2, WindowSize: 4}, 0, 0)
	for i := 0; i < 3; i++ {
		pp.Breaker.RecordAttempt()
		pp.Breaker.RecordTechnicalFailure()
	}

	checker := NewLivePipelineChecker(pp)
	health := checker.Check(context.Background())
	if health.Status != Unavailable {
		t.Fatalf("status = %v, want unavailable once the breaker trips", health.Status)
	}
}
