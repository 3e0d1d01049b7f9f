// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package livepipeline

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/streamprofile"
)

func TestLLHLSPreset_EnablesPartialSegments(t *testing.T) {
	cfg := LLHLSPreset("720p/", streamprofile.DefaultLLHLSConfig())
	if cfg.PartTargetDuration != 0.2 {
		t.Fatalf("part target = %v, want 0.2 (200ms)", cfg.PartTargetDuration)
	}
	if cfg.WindowSize != 6 {
		t.Fatalf("window size = %d, want 6", cfg.WindowSize)
	}
}

func TestSafariDVRPreset_SizesWindowToDVRDuration(t *testing.T) {
	cfg := SafariDVRPreset("", streamprofile.DefaultSafariDVRConfig())
	if cfg.PartTargetDuration != 0 {
		t.Fatal("Safari DVR preset must not enable LL-HLS partials")
	}
	if cfg.WindowSize != 2700/6 {
		t.Fatalf("window size = %d, want %d", cfg.WindowSize, 2700/6)
	}
}

func TestGenericPreset_SizesWindowToDVRDuration(t *testing.T) {
	cfg := GenericPreset("", streamprofile.DefaultGenericHLSConfig())
	if cfg.WindowSize != 1800/2 {
		t.Fatalf("window size = %d, want %d", cfg.WindowSize, 1800/2)
	}
}
