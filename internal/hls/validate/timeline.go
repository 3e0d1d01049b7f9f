// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"time"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

// Timeline summarizes the wall-clock span a run of segments covers. It is
// the read-side counterpart to checkProgramDateTimeMonotonicity: that
// check rejects a playlist whose PDTs are inconsistent, this computes the
// span once a playlist is known-good, for callers that need to answer
// "what point in time does the live edge represent" (steering, gap
// reporting, diagnostics) without re-walking the segment list themselves.
type Timeline struct {
	HasPDT        bool
	FirstPDT      time.Time
	LastPDT       time.Time
	TotalDuration time.Duration
}

// BuildTimeline computes a Timeline over segments. Segments with an
// unparsable PROGRAM-DATE-TIME are skipped rather than erroring — callers
// needing strict rejection should run MediaPlaylist/checkProgramDateTimeMonotonicity
// first.
func BuildTimeline(segments []model.Segment) Timeline {
	var t Timeline
	for _, seg := range segments {
		t.TotalDuration += time.Duration(seg.Duration * float64(time.Second))

		if seg.ProgramDateTime == nil {
			continue
		}
		pdt, err := time.Parse(time.RFC3339Nano, *seg.ProgramDateTime)
		if err != nil {
			pdt, err = time.Parse(time.RFC3339, *seg.ProgramDateTime)
			if err != nil {
				continue
			}
		}
		if !t.HasPDT {
			t.FirstPDT = pdt
			t.HasPDT = true
		}
		t.LastPDT = pdt
	}
	return t
}
