// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package livepipeline implements the live pipeline core (component K,
// §4.6): a sliding window of media segments fed by the encoder abstraction
// (component J), key rotation via the key manager (component L), and
// LL-HLS partial-segment accounting. The window and the pipeline actor are
// the single-owner, mutex-guarded object §5 describes: operations are
// serialized internally so callers may invoke from any goroutine.
package livepipeline

import (
	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/hls/validate"
)

// Window holds the live playlist's sliding segment list plus the running
// counters §3/§4.6/§8 require: a monotone media sequence number and a
// discontinuity sequence that only ever increases.
//
// Open Question 1 (SPEC_FULL.md/spec.md §9) is resolved here: MediaSequence
// equals the total count of segments ever evicted from the front of the
// window, not a fixed "+1 per trim" counter — the only reading consistent
// with the HLS spec's "MUST equal the number of segments removed from the
// beginning of the playlist since the earliest version of the playlist."
//
// Open Question 3 is resolved as a deliberate redesign: DiscontinuitySequence
// increments once per evicted segment that carried Discontinuity, not
// statically, so it always reflects discontinuities no longer represented
// in the window.
type Window struct {
	size     int
	segments []model.Segment

	mediaSequence         uint64
	discontinuitySequence uint64
}

// NewWindow constructs an empty Window holding at most size complete
// segments. size<=0 means unbounded (VOD-style growth).
func NewWindow(size int) *Window {
	return &Window{size: size}
}

// Append adds seg to the end of the window and, if the window now exceeds
// its configured size, trims from the front. It returns the segments
// evicted by this call (nil if none).
func (w *Window) Append(seg model.Segment) []model.Segment {
	w.segments = append(w.segments, seg)
	if w.size <= 0 || len(w.segments) <= w.size {
		return nil
	}

	overflow := len(w.segments) - w.size
	evicted := make([]model.Segment, overflow)
	copy(evicted, w.segments[:overflow])
	w.segments = w.segments[overflow:]

	w.mediaSequence += uint64(overflow)
	for _, s := range evicted {
		if s.Discontinuity {
			w.discontinuitySequence++
		}
	}

	return evicted
}

// Segments returns the segments currently retained in the window.
func (w *Window) Segments() []model.Segment {
	out := make([]model.Segment, len(w.segments))
	copy(out, w.segments)
	return out
}

// MediaSequence returns the EXT-X-MEDIA-SEQUENCE value for the window's
// current state.
func (w *Window) MediaSequence() uint64 { return w.mediaSequence }

// DiscontinuitySequence returns the EXT-X-DISCONTINUITY-SEQUENCE value for
// the window's current state.
func (w *Window) DiscontinuitySequence() uint64 { return w.discontinuitySequence }

// Len reports how many complete segments the window currently retains.
func (w *Window) Len() int { return len(w.segments) }

// Timeline summarizes the wall-clock span currently held in the window,
// for callers (steering, gap reporting, diagnostics) that need to know
// what point in time the live edge represents.
func (w *Window) Timeline() validate.Timeline {
	return validate.BuildTimeline(w.segments)
}
