// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package livepipeline

import (
	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/streamprofile"
)

// LLHLSPreset builds a low-latency Pipeline Config from an LL-HLS profile:
// short segments (SegmentDuration, 1 s in the default profile) with
// sub-second parts, small playlist window, partial-segment emission
// enabled at PartDuration.
func LLHLSPreset(uriPrefix string, cfg streamprofile.LLHLSConfig) Config {
	return Config{
		TargetDuration:     float64(cfg.SegmentDuration),
		WindowSize:         cfg.PlaylistSize,
		URIPrefix:          uriPrefix,
		SegmentExt:         ".m4s",
		PlaylistType:       model.PlaylistTypeEvent,
		PartTargetDuration: cfg.PartDurationSeconds(),
	}
}

// SafariDVRPreset builds a long-DVR-window Pipeline Config sized for
// Safari's native HLS player: larger segments, no LL-HLS partials, a window
// sized to hold the configured DVR duration.
func SafariDVRPreset(uriPrefix string, cfg streamprofile.SafariDVRConfig) Config {
	windowSize := cfg.DVRWindowSize / cfg.SegmentDuration
	if windowSize <= 0 {
		windowSize = 1
	}
	return Config{
		TargetDuration: float64(cfg.SegmentDuration),
		WindowSize:     windowSize,
		URIPrefix:      uriPrefix,
		SegmentExt:     ".ts",
		PlaylistType:   model.PlaylistTypeEvent,
	}
}

// GenericPreset builds a plain MPEG-TS Pipeline Config with no LL-HLS
// extensions, sized to the configured DVR window.
func GenericPreset(uriPrefix string, cfg streamprofile.GenericHLSConfig) Config {
	windowSize := cfg.DVRWindowSize / cfg.SegmentDuration
	if windowSize <= 0 {
		windowSize = 1
	}
	return Config{
		TargetDuration: float64(cfg.SegmentDuration),
		WindowSize:     windowSize,
		URIPrefix:      uriPrefix,
		SegmentExt:     ".ts",
		PlaylistType:   model.PlaylistTypeEvent,
	}
}
