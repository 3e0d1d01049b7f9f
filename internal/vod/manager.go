// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package vod is the VOD packaging entry point: it drives §4.2's segmenter
// and §4.4's playlist generator over a whole asset, deduplicating
// concurrent packaging requests for the same asset ID so a second request
// arriving mid-build attaches to the in-flight Run instead of re-segmenting
// the source from scratch.
package vod

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Manager runs at most one packaging job per asset ID at a time.
type Manager struct {
	mu   sync.Mutex
	runs map[string]*Run
	log  Logger
}

// NewManager constructs a Manager. The zero value of zerolog.Logger is a
// valid, disabled logger, so log may be passed uninitialized.
func NewManager(log Logger) *Manager {
	return &Manager{
		runs: make(map[string]*Run),
		log:  log,
	}
}

// Ensure guarantees exactly one job for spec.ID is running: if one is
// already active it returns that Run (isNew=false); otherwise it starts
// work in a new goroutine and returns the new Run (isNew=true). A Run left
// in the map whose Done channel is already closed (the previous job
// finished but hadn't been reaped yet) is treated as stale and replaced.
func (m *Manager) Ensure(ctx context.Context, spec JobSpec, work WorkFunc) (*Run, bool) {
	if err := ctx.Err(); err != nil {
		m.log.Debug().Str("id", spec.ID).Err(err).Msg("vod.Ensure: context already canceled")
		return nil, false
	}

	m.mu.Lock()

	if run, exists := m.runs[spec.ID]; exists {
		select {
		case <-run.Done:
			m.log.Debug().Str("id", spec.ID).Msg("vod.Ensure: cleaning stale run")
			delete(m.runs, spec.ID)
		default:
			m.mu.Unlock()
			m.log.Debug().Str("id", spec.ID).Msg("vod.Ensure: attaching to existing run")
			return run, false
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:        spec.ID,
		StartedAt: time.Now(),
		Done:      make(chan struct{}),
		Cancel:    cancel,
	}
	m.runs[spec.ID] = run
	m.log.Info().Str("id", spec.ID).Str("kind", spec.Kind).Msg("vod.Ensure: started new run")

	m.mu.Unlock()
	go m.execute(runCtx, run, spec, work)

	return run, true
}

// Get returns the in-flight run for id, or nil; a run is removed from the
// manager as soon as its work finishes.
func (m *Manager) Get(id string) *Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id]
}

// Cancel stops the run for id, if one is active.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	run, exists := m.runs[id]
	m.mu.Unlock()

	if exists {
		m.log.Info().Str("id", id).Msg("vod.Cancel: stopping run")
		run.Cancel()
	}
}

// CancelAll stops every active run, for graceful shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Info().Int("count", len(m.runs)).Msg("vod.CancelAll: stopping all runs")
	for id, run := range m.runs {
		m.log.Debug().Str("id", id).Msg("vod.CancelAll: canceling run")
		run.Cancel()
	}
}

func (m *Manager) execute(ctx context.Context, run *Run, spec JobSpec, work WorkFunc) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Str("id", run.ID).Interface("panic", r).Msg("vod.execute panicked")
			run.setError(fmt.Errorf("panic: %v", r))
		}

		close(run.Done)

		m.mu.Lock()
		delete(m.runs, run.ID)
		m.mu.Unlock()

		m.log.Info().Str("id", run.ID).Err(run.Error()).Msg("vod.execute: cleanup complete")
	}()

	result, err := work(ctx, spec)
	if err != nil {
		run.setError(err)
		return
	}
	run.setResult(result)
}
