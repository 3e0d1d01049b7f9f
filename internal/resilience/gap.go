// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import "sync"

// GapTracker records per-segment-index gap flags and raises a consecutive-
// gap alert once a run of MaxConsecutiveGaps immediately preceding (and
// including) a given index are all gaps (§4.7).
type GapTracker struct {
	mu                 sync.Mutex
	flags              map[int]bool
	maxConsecutiveGaps int
}

// NewGapTracker constructs a tracker alerting after maxConsecutiveGaps
// consecutive gap-flagged segments.
func NewGapTracker(maxConsecutiveGaps int) *GapTracker {
	if maxConsecutiveGaps <= 0 {
		maxConsecutiveGaps = 1
	}
	return &GapTracker{flags: make(map[int]bool), maxConsecutiveGaps: maxConsecutiveGaps}
}

// Mark records whether the segment at index is a gap.
func (g *GapTracker) Mark(index int, isGap bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.flags[index] = isGap
}

// HasConsecutiveGapAlert reports whether the maxConsecutiveGaps indices
// ending at currentIndex (inclusive) are all marked as gaps.
func (g *GapTracker) HasConsecutiveGapAlert(currentIndex int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < g.maxConsecutiveGaps; i++ {
		idx := currentIndex - i
		if idx < 0 || !g.flags[idx] {
			return false
		}
	}
	return true
}

// Forget drops gap-flag bookkeeping for an index that has fallen out of the
// live window, bounding the tracker's memory to the window size.
func (g *GapTracker) Forget(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.flags, index)
}
