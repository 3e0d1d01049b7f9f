package livepipeline

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/encoder"
	"github.com/ManuGH/hlsforge/internal/keystore"
)

func frame(durSeconds float64, keyframe bool) encoder.EncodedFrame {
	return encoder.EncodedFrame{
		Duration:   encoder.MediaTimestamp{Seconds: durSeconds},
		IsKeyframe: keyframe,
		Codec:      encoder.CodecH264,
	}
}

func TestPipeline_ClosesSegmentOnKeyframeAtTarget(t *testing.T) {
	p := New(Config{TargetDuration: 4, WindowSize: 10, SegmentExt: ".ts"}, nil)

	for i := 0; i < 4; i++ {
		if err := p.AppendFrame(frame(1, i == 3)); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
	}

	pl := p.BuildPlaylist()
	if len(pl.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(pl.Segments))
	}
	if pl.Segments[0].Duration != 4 {
		t.Errorf("segment duration = %v, want 4", pl.Segments[0].Duration)
	}
}

func TestPipeline_DoesNotCloseMidGOP(t *testing.T) {
	p := New(Config{TargetDuration: 4, WindowSize: 10, SegmentExt: ".ts"}, nil)

	// Four seconds accumulate, but the keyframe only arrives at t=6; the
	// segmenter must not cut mid-GOP (§4.2).
	for i := 0; i < 6; i++ {
		if err := p.AppendFrame(frame(1, i == 5)); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
	}

	pl := p.BuildPlaylist()
	if len(pl.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(pl.Segments))
	}
	if pl.Segments[0].Duration != 6 {
		t.Errorf("segment duration = %v, want 6 (closed late, at the next keyframe)", pl.Segments[0].Duration)
	}
}

func TestPipeline_KeyRotationBindsFirstSegmentUnderNewKey(t *testing.T) {
	keys := keystore.NewManager(keystore.EveryNSegments(2))
	p := New(Config{TargetDuration: 1, WindowSize: 10, SegmentExt: ".ts"}, keys)

	for i := 0; i < 6; i++ {
		if err := p.AppendFrame(frame(1, true)); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
	}

	pl := p.BuildPlaylist()
	if len(pl.Segments) != 6 {
		t.Fatalf("segments = %d, want 6", len(pl.Segments))
	}
	for i, s := range pl.Segments {
		if s.Key == nil {
			t.Fatalf("segment %d has no key, want encrypted", i)
		}
	}
	if pl.Segments[0].Key.URI == pl.Segments[2].Key.URI {
		t.Error("rotation every 2 segments should change the key by segment index 2")
	}
}

func TestPipeline_LLHLSPartialAccounting(t *testing.T) {
	p := New(Config{TargetDuration: 4, WindowSize: 10, PartTargetDuration: 1, SegmentExt: ".ts"}, nil)

	for i := 0; i < 3; i++ {
		if err := p.AppendFrame(frame(1, false)); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
	}

	pl := p.BuildPlaylist()
	if len(pl.PartialSegments) != 3 {
		t.Fatalf("partial segments = %d, want 3", len(pl.PartialSegments))
	}
	if pl.ServerControl == nil || !pl.ServerControl.CanBlockReload {
		t.Fatal("server control should advertise CAN-BLOCK-RELOAD=YES when LL-HLS is enabled")
	}
	if hb := pl.ServerControl.PartHoldBack; hb == nil || *hb != 3 {
		t.Errorf("part hold back = %v, want 3 (3x part target)", pl.ServerControl.PartHoldBack)
	}
}
