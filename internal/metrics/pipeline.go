// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	segmentsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsforge_segments_produced_total",
		Help: "Total number of media segments produced by the segmenter, by container and output mode.",
	}, []string{"container", "output_mode"})

	segmentDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hlsforge_segment_duration_seconds",
		Help:    "Observed duration of produced media segments.",
		Buckets: []float64{0.5, 1, 2, 4, 6, 8, 10, 15, 20, 30},
	}, []string{"container"})

	liveWindowSegments = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hlsforge_live_window_segments",
		Help: "Number of complete segments currently retained in a live pipeline's sliding window.",
	}, []string{"preset"})

	liveWindowPartials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsforge_live_window_partials_total",
		Help: "Total number of LL-HLS partial segments emitted by a live pipeline.",
	}, []string{"preset"})

	keyRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlsforge_key_rotations_total",
		Help: "Total number of encryption key rotations issued by the key manager.",
	})
)

// RecordSegmentProduced records one segmenter output unit: container
// ("fmp4"/"ts"), output mode ("discrete"/"byte_range"), and its duration.
func RecordSegmentProduced(container, outputMode string, durationSeconds float64) {
	segmentsProduced.WithLabelValues(container, outputMode).Inc()
	segmentDurationSeconds.WithLabelValues(container).Observe(durationSeconds)
}

// SetLiveWindowSize records the current complete-segment count retained by
// a live pipeline's sliding window, identified by preset (its URI prefix
// or another caller-chosen label).
func SetLiveWindowSize(preset string, size int) {
	liveWindowSegments.WithLabelValues(preset).Set(float64(size))
}

// RecordPartialSegment increments the LL-HLS partial-segment counter for a
// preset each time a partial segment closes.
func RecordPartialSegment(preset string) {
	liveWindowPartials.WithLabelValues(preset).Inc()
}

// RecordKeyRotation increments the global key-rotation counter each time
// the key manager issues a new KeyMaterial.
func RecordKeyRotation() {
	keyRotations.Inc()
}
