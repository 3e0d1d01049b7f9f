package validate

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/hlserr"
)

func TestValidator_AccumulatesAndFolds(t *testing.T) {
	v := New()
	if !v.IsValid() {
		t.Fatalf("fresh Validator should be valid")
	}

	v.Positive("TargetDuration", 0)
	v.NonNegative("HoldBackParts", -1)
	v.OneOf("SegmentExt", ".mp4", []string{".ts", ".m4s"})
	v.NotEmpty("Name", "  ")
	v.Range("Bitrate", 9, 100, 1000)
	v.Custom("Custom", 42, func(val interface{}) error { return nil })

	if v.IsValid() {
		t.Fatalf("expected accumulated errors")
	}
	if len(v.Errors()) != 5 {
		t.Fatalf("Errors() = %d, want 5", len(v.Errors()))
	}

	err := v.Err()
	if err == nil {
		t.Fatalf("Err() = nil, want error")
	}
	if !hlserr.IsKind(err, hlserr.KindUnsupportedConfiguration) {
		t.Fatalf("Err() kind = %v, want UnsupportedConfiguration", err)
	}
}

func TestValidator_NoErrorsWhenAllChecksPass(t *testing.T) {
	v := New()
	v.Positive("TargetDuration", 6)
	v.NonNegative("HoldBackParts", 3)
	v.OneOf("SegmentExt", ".ts", []string{".ts", ".m4s"})
	v.NotEmpty("Name", "segment")
	v.Range("Bitrate", 500, 100, 1000)

	if !v.IsValid() {
		t.Fatalf("Errors() = %v, want none", v.Errors())
	}
	if err := v.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
}
