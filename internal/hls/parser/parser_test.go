package parser

import (
	"testing"

	"github.com/ManuGH/hlsforge/internal/hls/generator"
	"github.com/ManuGH/hlsforge/internal/hls/model"
)

func TestClassifyAmbiguous(t *testing.T) {
	both := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nv.m3u8\n#EXTINF:1,\na.ts\n"
	if _, err := Classify(both); err == nil {
		t.Fatal("expected Ambiguous for playlist with both tags")
	}
	neither := "#EXTM3U\n#EXT-X-VERSION:3\n"
	if _, err := Classify(neither); err == nil {
		t.Fatal("expected Ambiguous for playlist with neither tag")
	}
}

func TestParseMediaScenario2RoundTrip(t *testing.T) {
	original := &model.MediaPlaylist{
		TargetDuration: 10,
		PlaylistType:   model.PlaylistTypeVOD,
		HasEndList:     true,
		Segments: []model.Segment{
			{Duration: 9.009, URI: "s001.ts"},
		},
	}
	text := generator.GenerateMedia(original)

	isMaster, err := Classify(text)
	if err != nil || isMaster {
		t.Fatalf("Classify = %v, %v", isMaster, err)
	}

	parsed, err := ParseMedia(text)
	if err != nil {
		t.Fatalf("ParseMedia: %v", err)
	}
	if parsed.TargetDuration != 10 {
		t.Errorf("TargetDuration = %d", parsed.TargetDuration)
	}
	if parsed.PlaylistType != model.PlaylistTypeVOD {
		t.Errorf("PlaylistType = %q", parsed.PlaylistType)
	}
	if !parsed.HasEndList {
		t.Error("HasEndList = false")
	}
	if len(parsed.Segments) != 1 || parsed.Segments[0].URI != "s001.ts" {
		t.Fatalf("Segments = %+v", parsed.Segments)
	}
	if parsed.Segments[0].Duration != 9.009 {
		t.Errorf("Duration = %v", parsed.Segments[0].Duration)
	}

	regenerated := generator.GenerateMedia(parsed)
	if regenerated != text {
		t.Errorf("idempotence failed:\noriginal:    %q\nregenerated: %q", text, regenerated)
	}
}

func TestParseMasterRoundTrip(t *testing.T) {
	res := model.Resolution{Width: 1280, Height: 720}
	original := &model.MasterPlaylist{
		Variants: []model.Variant{
			{Bandwidth: 2000000, URI: "720p.m3u8", Resolution: &res, Codecs: "avc1.4d401f,mp4a.40.2"},
		},
	}
	text := generator.GenerateMaster(original)

	isMaster, err := Classify(text)
	if err != nil || !isMaster {
		t.Fatalf("Classify = %v, %v", isMaster, err)
	}

	parsed, err := ParseMaster(text)
	if err != nil {
		t.Fatalf("ParseMaster: %v", err)
	}
	if len(parsed.Variants) != 1 {
		t.Fatalf("Variants = %+v", parsed.Variants)
	}
	v := parsed.Variants[0]
	if v.Bandwidth != 2000000 || v.URI != "720p.m3u8" || v.Codecs != "avc1.4d401f,mp4a.40.2" {
		t.Errorf("variant = %+v", v)
	}
	if v.Resolution == nil || *v.Resolution != res {
		t.Errorf("resolution = %+v", v.Resolution)
	}

	regenerated := generator.GenerateMaster(parsed)
	if regenerated != text {
		t.Errorf("idempotence failed:\noriginal:    %q\nregenerated: %q", text, regenerated)
	}
}

func TestParseAttrsQuotedCommaNotSplit(t *testing.T) {
	a, err := parseAttrs(`CODECS="avc1.4d401f,mp4a.40.2",BANDWIDTH=100`)
	if err != nil {
		t.Fatalf("parseAttrs: %v", err)
	}
	if a["CODECS"] != "avc1.4d401f,mp4a.40.2" {
		t.Errorf("CODECS = %q", a["CODECS"])
	}
	if a["BANDWIDTH"] != "100" {
		t.Errorf("BANDWIDTH = %q", a["BANDWIDTH"])
	}
}

func TestParseAttrsBareQuoteFails(t *testing.T) {
	if _, err := parseAttrs(`URI="unterminated`); err == nil {
		t.Fatal("expected MalformedAttributes for unterminated quote")
	}
}

func TestKeyDedupRoundTrip(t *testing.T) {
	key := &model.EncryptionKey{Method: model.MethodAES128, URI: "https://keys/1", IV: "0x00000000000000000000000000000001"}
	p := &model.MediaPlaylist{
		TargetDuration: 6,
		Segments: []model.Segment{
			{Duration: 6, URI: "a.ts", Key: key},
			{Duration: 6, URI: "b.ts", Key: key},
		},
	}
	text := generator.GenerateMedia(p)
	parsed, err := ParseMedia(text)
	if err != nil {
		t.Fatalf("ParseMedia: %v", err)
	}
	if len(parsed.Segments) != 2 {
		t.Fatalf("Segments = %+v", parsed.Segments)
	}
	if parsed.Segments[0].Key == nil || parsed.Segments[1].Key == nil {
		t.Fatal("key should carry forward to segment without its own EXT-X-KEY line")
	}
	if *parsed.Segments[0].Key != *parsed.Segments[1].Key {
		t.Errorf("keys differ: %+v vs %+v", parsed.Segments[0].Key, parsed.Segments[1].Key)
	}
}
