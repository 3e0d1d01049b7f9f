// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package segmenter implements the fMP4/MPEG-TS segmenter (component D):
// it chooses segment boundaries on keyframes and emits init + media
// segments (or byte ranges within one file) with durations close to a
// target, aligned on keyframes.
package segmenter

import "github.com/ManuGH/hlsforge/internal/mp4"

// SampleSpan is one segment's worth of samples from a single track, in
// presentation order: samples [StartSample, StartSample+Count) (1-based,
// inclusive start per ISO-BMFF sample numbering).
type SampleSpan struct {
	StartSample  uint32
	Count        uint32
	StartPTS     uint64 // in the track's timescale units
	DurationTicks uint64 // in the track's timescale units
	IsKeyframeStart bool
}

// PlanBoundaries implements §4.2's boundary algorithm: iterate samples in
// presentation order using stts deltas, maintain a candidate boundary at
// the most recent sync sample, and close the current segment at the next
// keyframe once cumulative duration since the previous boundary reaches
// targetDurationSeconds. If the track lacks an stss table, every sample is
// independent and any sample may close a segment.
func PlanBoundaries(track *mp4.Track, targetDurationSeconds float64) []SampleSpan {
	durations := track.SampleDurations()
	if len(durations) == 0 {
		return nil
	}

	targetTicks := uint64(targetDurationSeconds * float64(track.Timescale))

	var spans []SampleSpan
	var pts uint64
	segStartSample := uint32(1)
	segStartPTS := uint64(0)
	var segTicks uint64

	for i, delta := range durations {
		sampleNum := uint32(i + 1)
		isSync := track.IsSync(sampleNum)

		if sampleNum > segStartSample && isSync && segTicks >= targetTicks {
			spans = append(spans, SampleSpan{
				StartSample:     segStartSample,
				Count:           sampleNum - segStartSample,
				StartPTS:        segStartPTS,
				DurationTicks:   segTicks,
				IsKeyframeStart: track.IsSync(segStartSample),
			})
			segStartSample = sampleNum
			segStartPTS = pts
			segTicks = 0
		}

		segTicks += uint64(delta)
		pts += uint64(delta)
	}

	// Final (possibly short) segment.
	totalSamples := uint32(len(durations))
	if segStartSample <= totalSamples {
		spans = append(spans, SampleSpan{
			StartSample:     segStartSample,
			Count:           totalSamples - segStartSample + 1,
			StartPTS:        segStartPTS,
			DurationTicks:   segTicks,
			IsKeyframeStart: track.IsSync(segStartSample),
		})
	}

	return spans
}

// DurationSeconds converts a span's tick duration into seconds using the
// given timescale.
func (s SampleSpan) DurationSeconds(timescale uint32) float64 {
	if timescale == 0 {
		return 0
	}
	return float64(s.DurationTicks) / float64(timescale)
}
