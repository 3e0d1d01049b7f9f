// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package livepipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/hlsforge/internal/resilience"
)

// Preset identifies one rung of a multi-bitrate ladder; fan-out results are
// joined by this identity (§5: "results are joined deterministically by
// preset identity").
type Preset struct {
	Name string
}

// PresetPipeline pairs one bitrate ladder rung with its own Pipeline and
// circuit breaker, so a single rung's repeated encoder failures trip only
// that rung's breaker rather than the whole ladder.
type PresetPipeline struct {
	Preset  Preset
	Run     *Pipeline
	Breaker *resilience.CircuitBreaker
	Gaps    *resilience.GapTracker
}

// NewPresetPipeline constructs one ladder rung. breakerWindow/resetTimeout
// tune how quickly a persistently failing encoder gets marked down; 0
// selects the CircuitBreaker's own defaults.
func NewPresetPipeline(preset Preset, cfg Config, breakerWindow, resetTimeout time.Duration) *PresetPipeline {
	return &PresetPipeline{
		Preset:  preset,
		Run:     New(cfg, nil),
		Breaker: resilience.NewCircuitBreaker(preset.Name, 3, 3, breakerWindow, resetTimeout),
		Gaps:    resilience.NewGapTracker(3),
	}
}

// EncodeAll fans out encodeOne across every rung concurrently via
// errgroup, cancelling every other rung's context as soon as one rung's
// encodeOne returns a non-nil error (§5: "a failure in any encoder cancels
// the others"). A rung whose circuit breaker is currently open is skipped
// and its current segment is marked as a gap instead of attempted, so a
// persistently failing rendition degrades to EXT-X-GAP rather than
// repeatedly retrying a dead encoder.
func EncodeAll(ctx context.Context, rungs []*PresetPipeline, encodeOne func(ctx context.Context, rung *PresetPipeline) error) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, rung := range rungs {
		rung := rung
		g.Go(func() error {
			if !rung.Breaker.AllowRequest() {
				rung.Run.SignalGap()
				return nil
			}

			rung.Breaker.RecordAttempt()
			if err := encodeOne(gctx, rung); err != nil {
				rung.Breaker.RecordTechnicalFailure()
				return err
			}
			rung.Breaker.RecordSuccess()
			return nil
		})
	}

	return g.Wait()
}
