// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vod

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so callers need not import it directly.
type Logger = zerolog.Logger

// NopLogger returns a disabled logger, for tests and callers that don't
// want packaging-job logs.
func NopLogger() Logger {
	return zerolog.Nop()
}

// JobSpec carries the observability metadata for one packaging run.
type JobSpec struct {
	ID   string
	Kind string // "package", "repackage", ...
}

// Run represents an active or completed packaging job.
type Run struct {
	ID        string
	StartedAt time.Time

	// Done is closed when the job completes (success or failure).
	Done chan struct{}

	mu     sync.RWMutex
	err    error
	result *PackageResult

	Cancel context.CancelFunc
}

// Error returns the run's error, safe to call while the run is still in
// flight (reads the zero value until setError runs).
func (r *Run) Error() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Run) setError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Result returns the packaging result once the run has completed
// successfully; nil before completion or on failure.
func (r *Run) Result() *PackageResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}

func (r *Run) setResult(res *PackageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = res
}

// Wait blocks until the run completes or ctx is canceled.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.Done:
		return r.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WorkFunc is the unit of execution a Manager runs exactly once per ID.
type WorkFunc func(ctx context.Context, spec JobSpec) (*PackageResult, error)
