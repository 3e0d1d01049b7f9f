package livepipeline

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/hlserr"
)

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid ts", Config{TargetDuration: 6, SegmentExt: ".ts"}, false},
		{"valid fmp4 with parts", Config{TargetDuration: 6, SegmentExt: ".m4s", PartTargetDuration: 1, HoldBackParts: 3}, false},
		{"zero target duration", Config{TargetDuration: 0, SegmentExt: ".ts"}, true},
		{"negative target duration", Config{TargetDuration: -1, SegmentExt: ".ts"}, true},
		{"unknown extension", Config{TargetDuration: 6, SegmentExt: ".mp4"}, true},
		{"part exceeds target", Config{TargetDuration: 2, SegmentExt: ".m4s", PartTargetDuration: 3}, true},
		{"negative hold back", Config{TargetDuration: 6, SegmentExt: ".m4s", PartTargetDuration: 1, HoldBackParts: -1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tc.wantErr && !hlserr.IsKind(err, hlserr.KindUnsupportedConfiguration) {
				t.Fatalf("Validate() kind = %v, want UnsupportedConfiguration", err)
			}
		})
	}
}
