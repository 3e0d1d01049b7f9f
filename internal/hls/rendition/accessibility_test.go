// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rendition

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

func TestClosedCaptionsBuildsValidEntry(t *testing.T) {
	r := ClosedCaptions("cc", "English", "en-US", "CC1")
	if r.Type != model.RenditionClosedCaptions {
		t.Fatalf("type = %v, want CLOSED-CAPTIONS", r.Type)
	}
	if r.URI != "" {
		t.Fatal("closed captions must not carry a URI")
	}
	if r.InstreamID != "CC1" {
		t.Fatalf("instream id = %q, want CC1", r.InstreamID)
	}
}

func TestSubtitlesOptionsApply(t *testing.T) {
	r := Subtitles("subs", "Deutsch (Forced)", "de", "de-forced.vtt", Forced())
	if !r.Forced {
		t.Fatal("expected FORCED=YES")
	}

	sdh := Subtitles("subs", "English (SDH)", "en", "en-sdh.vtt", SDH())
	if sdh.Characteristics != CharacteristicTranscribesDialog {
		t.Fatalf("characteristics = %q, want transcribes-spoken-dialog", sdh.Characteristics)
	}
}

func TestAudioDescriptionSetsCharacteristic(t *testing.T) {
	r := AudioDescription("aud", "English (Audio Description)", "en", "en-ad.m3u8")
	if r.Characteristics != CharacteristicDescribesVideo {
		t.Fatalf("characteristics = %q, want describes-video", r.Characteristics)
	}
	if r.Type != model.RenditionAudio {
		t.Fatalf("type = %v, want AUDIO", r.Type)
	}
}

func TestSpatialAudioChannelsFormat(t *testing.T) {
	r := SpatialAudio("atmos", "English (Atmos)", "en", "en-atmos.m3u8", 6, LayoutJOC)
	if r.Channels != "6/JOC" {
		t.Fatalf("channels = %q, want 6/JOC", r.Channels)
	}
}

func TestNormalizeLanguagePassesThroughUnparseable(t *testing.T) {
	if got := NormalizeLanguage("not-a-real-tag-!!"); got != "not-a-real-tag-!!" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if got := NormalizeLanguage("en-us"); got != "en-US" {
		t.Fatalf("NormalizeLanguage(en-us) = %q, want canonical en-US", got)
	}
}
