package resilience

import "testing"

func TestGapTracker_ConsecutiveAlert(t *testing.T) {
	g := NewGapTracker(3)

	g.Mark(0, true)
	g.Mark(1, true)
	if g.HasConsecutiveGapAlert(1) {
		t.Fatal("alert fired before reaching the configured run length")
	}

	g.Mark(2, true)
	if !g.HasConsecutiveGapAlert(2) {
		t.Fatal("alert did not fire at the configured run length")
	}

	g.Mark(3, false)
	if g.HasConsecutiveGapAlert(3) {
		t.Fatal("alert fired across a non-gap segment")
	}
}

func TestGapTracker_ForgetBoundsMemory(t *testing.T) {
	g := NewGapTracker(2)
	g.Mark(0, true)
	g.Forget(0)
	g.Mark(1, true)
	if g.HasConsecutiveGapAlert(1) {
		t.Fatal("alert should require both indices marked; index 0 was forgotten")
	}
}
