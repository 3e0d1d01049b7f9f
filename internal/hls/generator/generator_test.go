package generator

import (
	"strings"
	"testing"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

func TestScenario1MasterSingleAudioVariant(t *testing.T) {
	m := &model.MasterPlaylist{
		Variants: []model.Variant{
			{Bandwidth: 800000, URI: "480p/playlist.m3u8"},
		},
	}
	got := GenerateMaster(m)
	want := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\n480p/playlist.m3u8\n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestScenario2MediaVODDecimalSegment(t *testing.T) {
	p := &model.MediaPlaylist{
		TargetDuration: 10,
		PlaylistType:   model.PlaylistTypeVOD,
		HasEndList:     true,
		Segments: []model.Segment{
			{Duration: 9.009, URI: "s001.ts"},
		},
	}
	got := GenerateMedia(p)
	for _, want := range []string{
		"#EXT-X-TARGETDURATION:10",
		"#EXT-X-VERSION:3",
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"#EXTINF:9.009,",
		"s001.ts",
		"#EXT-X-ENDLIST",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q; got:\n%s", want, got)
		}
	}
}

func TestAutoVersionNoFeaturesOmitsTag(t *testing.T) {
	p := &model.MediaPlaylist{
		TargetDuration: 6,
		Segments: []model.Segment{
			{Duration: 6, URI: "a.ts"},
		},
	}
	got := GenerateMedia(p)
	if strings.Contains(got, "EXT-X-VERSION") {
		t.Errorf("expected no EXT-X-VERSION tag for all-integer playlist, got:\n%s", got)
	}
}

func TestAutoVersionByteRangeRaisesToV4(t *testing.T) {
	p := &model.MediaPlaylist{
		TargetDuration: 6,
		Segments: []model.Segment{
			{Duration: 6, URI: "a.ts", ByteRange: &model.ByteRange{Length: 100}},
		},
	}
	if v := AutoVersion(p); v < 4 {
		t.Errorf("AutoVersion = %d, want >= 4", v)
	}
}

func TestKeyMapBitrateDeduplication(t *testing.T) {
	key := &model.EncryptionKey{Method: model.MethodAES128, URI: "k1"}
	mp := &model.MapTag{URI: "init.mp4"}
	br := uint32(500000)

	p := &model.MediaPlaylist{
		TargetDuration: 6,
		Segments: []model.Segment{
			{Duration: 6, URI: "a.ts", Key: key, Map: mp, Bitrate: &br},
			{Duration: 6, URI: "b.ts", Key: key, Map: mp, Bitrate: &br},
			{Duration: 6, URI: "c.ts", Key: key, Map: mp, Bitrate: &br},
		},
	}
	got := GenerateMedia(p)
	if n := strings.Count(got, "#EXT-X-KEY:"); n != 1 {
		t.Errorf("EXT-X-KEY count = %d, want 1\n%s", n, got)
	}
	if n := strings.Count(got, "#EXT-X-MAP:"); n != 1 {
		t.Errorf("EXT-X-MAP count = %d, want 1\n%s", n, got)
	}
	if n := strings.Count(got, "#EXT-X-BITRATE:"); n != 1 {
		t.Errorf("EXT-X-BITRATE count = %d, want 1\n%s", n, got)
	}
}

func TestScenario6CENCMasterSessionKeys(t *testing.T) {
	m := &model.MasterPlaylist{
		SessionKeys: []model.EncryptionKey{
			{Method: model.MethodSampleAESCTR, KeyFormat: "urn:uuid:edef8ba9-79d6-4ace-a3c8-27dcd51d21ed"},
			{Method: model.MethodSampleAESCTR, KeyFormat: "urn:uuid:9a04f079-9840-4286-ab92-e65be0885f95"},
		},
		Variants: []model.Variant{{Bandwidth: 1, URI: "v.m3u8"}},
	}
	got := GenerateMaster(m)
	if strings.Count(got, "#EXT-X-SESSION-KEY:") != 2 {
		t.Errorf("expected 2 session keys, got:\n%s", got)
	}
	if !strings.Contains(got, `KEYFORMAT="urn:uuid:edef8ba9-79d6-4ace-a3c8-27dcd51d21ed"`) {
		t.Errorf("missing widevine keyformat:\n%s", got)
	}
}

func TestOutputEndsWithTrailingNewline(t *testing.T) {
	p := &model.MediaPlaylist{TargetDuration: 1}
	got := GenerateMedia(p)
	if !strings.HasSuffix(got, "\n") {
		t.Error("output must end with trailing newline")
	}
}
