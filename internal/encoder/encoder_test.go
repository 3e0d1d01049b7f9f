package encoder

import (
	"math"
	"testing"
)

func TestAACFrameTiming(t *testing.T) {
	const sampleRate = 48000
	const channels = 2
	const totalSamples = 2600 // not a multiple of 1024

	enc := NewAACEncoder(nil)
	if err := enc.Configure(Config{Codec: CodecAAC, SampleRate: sampleRate, Channels: channels}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	pcm := make([]byte, totalSamples*channels*2)
	var frames []EncodedFrame

	// Feed in three uneven chunks to prove chunking doesn't affect timing.
	chunks := []int{700, 1200, totalSamples - 700 - 1200}
	off := 0
	for _, n := range chunks {
		chunkBytes := n * channels * 2
		out, err := enc.Encode(RawMediaBuffer{Data: pcm[off : off+chunkBytes], SampleRate: sampleRate, Channels: channels})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		frames = append(frames, out...)
		off += chunkBytes
	}

	wantFrames := totalSamples / 1024
	if len(frames) != wantFrames {
		t.Fatalf("got %d frames before flush, want %d", len(frames), wantFrames)
	}

	for i, f := range frames {
		wantTS := float64(i*1024) / sampleRate
		if math.Abs(f.PTS.Seconds-wantTS) > 1e-9 {
			t.Errorf("frame %d PTS = %v, want %v", i, f.PTS.Seconds, wantTS)
		}
	}

	flushed, err := enc.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(flushed) != 1 {
		t.Fatalf("Flush produced %d frames, want 1", len(flushed))
	}

	total := 0.0
	for _, f := range frames {
		total += f.Duration.Seconds
	}
	total += flushed[0].Duration.Seconds

	wantTotal := math.Ceil(float64(totalSamples)/1024) * 1024 / sampleRate
	if math.Abs(total-wantTotal) > 1e-9 {
		t.Errorf("total duration = %v, want %v", total, wantTotal)
	}

	// A second flush with nothing pending must be a no-op.
	again, err := enc.Flush()
	if err != nil || again != nil {
		t.Fatalf("second Flush = %v, %v, want nil, nil", again, err)
	}
}

func TestAACEncoderStateMachine(t *testing.T) {
	enc := NewAACEncoder(nil)
	if _, err := enc.Encode(RawMediaBuffer{}); err == nil {
		t.Fatal("expected NotConfigured before Configure")
	}

	if err := enc.Configure(Config{Codec: CodecAAC, SampleRate: 48000, Channels: 2}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if enc.State() != StateConfigured {
		t.Fatalf("State = %v, want Configured", enc.State())
	}

	enc.Teardown()
	if enc.State() != StateTornedown {
		t.Fatalf("State = %v, want Tornedown", enc.State())
	}
	if _, err := enc.Encode(RawMediaBuffer{}); err == nil {
		t.Fatal("expected TornDown after Teardown")
	}
}

func TestAACEncoderRejectsBadConfig(t *testing.T) {
	enc := NewAACEncoder(nil)
	if err := enc.Configure(Config{Codec: CodecAAC, SampleRate: 0, Channels: 2}); err == nil {
		t.Fatal("expected UnsupportedConfiguration for zero sample rate")
	}
}
