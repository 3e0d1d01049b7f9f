// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"sync"
	"time"

	"github.com/ManuGH/hlsforge/internal/log"
)

// FailoverState is the closed set of per-primary states from §4.7: Healthy,
// Failed(k) (the k-th backup is active), or Recovering (probation after the
// primary recovery delay elapsed without further failures).
type FailoverState int

const (
	FailoverHealthy FailoverState = iota
	FailoverFailed
	FailoverRecovering
)

func (s FailoverState) String() string {
	switch s {
	case FailoverHealthy:
		return "healthy"
	case FailoverFailed:
		return "failed"
	case FailoverRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// FailoverConfig configures one Failover state machine instance.
type FailoverConfig struct {
	Primary               string
	Backups               []string
	PrimaryRecoveryDelay  time.Duration
}

// clock abstracts time for deterministic testing, grounded in
// circuit_breaker.go's clock interface.
type failoverClock interface {
	Now() time.Time
}

type realFailoverClock struct{}

func (realFailoverClock) Now() time.Time { return time.Now() }

// Failover implements the redundant-variant failover state machine (§4.7):
// reportFailure steps through backups one at a time; reportRecovery resets
// to Healthy; after PrimaryRecoveryDelay without further failures the
// machine moves to Recovering and activeURI starts offering the primary
// again for probation.
type Failover struct {
	mu sync.Mutex

	cfg FailoverConfig

	state         FailoverState
	backupIndex   int // 0-based index into cfg.Backups, valid when state != Healthy
	lastFailureAt time.Time

	clock failoverClock
}

// NewFailover constructs a Failover machine starting in the Healthy state.
func NewFailover(cfg FailoverConfig) *Failover {
	return &Failover{cfg: cfg, state: FailoverHealthy, clock: realFailoverClock{}}
}

// WithClock overrides the clock; test-only hook.
func (f *Failover) WithClock(c failoverClock) *Failover {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = c
	return f
}

// ReportFailure transitions Healthy -> Failed(0), Failed(k) -> Failed(k+1)
// (clamped at the last backup once all are exhausted), per §4.7.
func (f *Failover) ReportFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastFailureAt = f.clock.Now()

	switch f.state {
	case FailoverHealthy:
		f.state = FailoverFailed
		f.backupIndex = 0
	case FailoverFailed, FailoverRecovering:
		f.state = FailoverFailed
		if f.backupIndex+1 < len(f.cfg.Backups) {
			f.backupIndex++
		}
	}

	log.L().Warn().
		Str("component", "resilience.failover").
		Str("primary", f.cfg.Primary).
		Str("state", f.state.String()).
		Int("backup_index", f.backupIndex).
		Msg("stream failure reported")
}

// ReportRecovery transitions unconditionally back to Healthy.
func (f *Failover) ReportRecovery() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FailoverHealthy
	f.backupIndex = 0
	log.L().Info().
		Str("component", "resilience.failover").
		Str("primary", f.cfg.Primary).
		Msg("stream recovery reported")
}

// tick advances Failed -> Recovering once PrimaryRecoveryDelay has elapsed
// since the last failure without an intervening call. Callers observe this
// via State/ActiveURI, which both call tick first.
func (f *Failover) tick() {
	if f.state != FailoverFailed || f.cfg.PrimaryRecoveryDelay <= 0 {
		return
	}
	if f.clock.Now().Sub(f.lastFailureAt) >= f.cfg.PrimaryRecoveryDelay {
		f.state = FailoverRecovering
	}
}

// State returns the current state after evaluating the recovery-delay timer.
func (f *Failover) State() FailoverState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick()
	return f.state
}

// ActiveURI returns the primary when Healthy or Recovering (probation
// retries the primary), or the active backup's URI when Failed.
func (f *Failover) ActiveURI() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick()

	switch f.state {
	case FailoverFailed:
		if f.backupIndex < len(f.cfg.Backups) {
			return f.cfg.Backups[f.backupIndex]
		}
		return f.cfg.Primary
	default:
		return f.cfg.Primary
	}
}
