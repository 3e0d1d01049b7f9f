package livepipeline

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

func TestWindow_TrimIncrementsMediaSequenceByEvictedCount(t *testing.T) {
	w := NewWindow(6)
	for i := 0; i < 102; i++ {
		w.Append(model.Segment{Duration: 1, URI: "s.ts"})
	}

	if got := w.Len(); got != 6 {
		t.Fatalf("window length = %d, want 6", got)
	}
	if got := w.MediaSequence(); got != 96 {
		t.Fatalf("media sequence = %d, want 96 (102 fed, 6 retained, 96 evicted)", got)
	}
}

func TestWindow_DiscontinuitySequenceTracksEvictedDiscontinuities(t *testing.T) {
	w := NewWindow(2)
	w.Append(model.Segment{Duration: 1, URI: "a.ts", Discontinuity: true})
	w.Append(model.Segment{Duration: 1, URI: "b.ts"})
	w.Append(model.Segment{Duration: 1, URI: "c.ts"}) // evicts a.ts (discontinuity)
	if got := w.DiscontinuitySequence(); got != 1 {
		t.Fatalf("discontinuity sequence = %d, want 1", got)
	}

	w.Append(model.Segment{Duration: 1, URI: "d.ts"}) // evicts b.ts (no discontinuity)
	if got := w.DiscontinuitySequence(); got != 1 {
		t.Fatalf("discontinuity sequence = %d, want unchanged at 1", got)
	}
}

func TestWindow_UnboundedWhenSizeNonPositive(t *testing.T) {
	w := NewWindow(0)
	for i := 0; i < 20; i++ {
		w.Append(model.Segment{Duration: 1, URI: "s.ts"})
	}
	if got := w.Len(); got != 20 {
		t.Fatalf("unbounded window length = %d, want 20", got)
	}
	if got := w.MediaSequence(); got != 0 {
		t.Fatalf("unbounded window media sequence = %d, want 0", got)
	}
}
