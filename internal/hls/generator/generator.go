// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package generator composes tag writer output into byte-exact master and
// media playlists (component G): header ordering, per-segment dedup of
// key/map/bitrate, LL-HLS tag placement, and auto-computed EXT-X-VERSION.
package generator

import (
	"sort"
	"strings"

	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/hls/tagwriter"
)

// AutoVersion computes the minimum protocol version implied by the
// features present in a media playlist, per §4.4. Returns 1 when nothing
// requires a higher version, in which case the generator emits no
// EXT-X-VERSION tag at all.
func AutoVersion(p *model.MediaPlaylist) int {
	version := 1

	raise := func(v int) {
		if v > version {
			version = v
		}
	}

	for _, s := range p.Segments {
		if s.Duration != float64(int64(s.Duration)) {
			raise(3)
		}
		if s.ByteRange != nil {
			raise(4)
		}
		if s.Key != nil {
			if s.Key.IV != "" {
				raise(5)
			}
			if s.Key.KeyFormatVersions != "" {
				raise(5)
			}
		}
		if s.Map != nil && !p.IFramesOnly {
			raise(6)
		}
	}

	if p.ServerControl != nil || p.PartTargetDuration != nil || p.Skip != nil || len(p.PartialSegments) > 0 || len(p.PreloadHints) > 0 {
		raise(9)
	}

	return version
}

// AutoVersionMaster computes the minimum protocol version for a master
// playlist: SUBTITLES/IV usage raises to v5, HDCP-LEVEL raises to v7,
// CLOSED-CAPTIONS=NONE raises to v7, SUPPLEMENTAL-CODECS raises to v10.
func AutoVersionMaster(m *model.MasterPlaylist) int {
	version := 1
	raise := func(v int) {
		if v > version {
			version = v
		}
	}
	for _, v := range m.Variants {
		if v.SubtitlesGroup != "" {
			raise(5)
		}
		if v.HDCPLevel != nil {
			raise(7)
		}
		if v.ClosedCaptions.IsNone() {
			raise(7)
		}
		if v.SupplementalCodecs != "" {
			raise(10)
		}
	}
	for _, k := range m.SessionKeys {
		if k.IV != "" {
			raise(5)
		}
		if k.KeyFormatVersions != "" {
			raise(5)
		}
	}
	return version
}

func resolveVersion(explicit *int, auto int) int {
	if explicit != nil {
		return *explicit
	}
	return auto
}

// GenerateMedia produces the byte-exact media playlist text for p, per
// §4.4's header order, per-segment emission rules, and LL-HLS ordering.
func GenerateMedia(p *model.MediaPlaylist) string {
	auto := AutoVersion(p)
	version := resolveVersion(p.Version, auto)

	var lines []string
	lines = append(lines, tagwriter.EXTM3U())

	if p.Version != nil || auto > 1 {
		lines = append(lines, tagwriter.EXTXVersion(version))
	}

	lines = append(lines, tagwriter.EXTXTargetDuration(p.TargetDuration))
	lines = append(lines, tagwriter.EXTXMediaSequence(p.MediaSequence))
	if p.DiscontinuitySequence > 0 {
		lines = append(lines, tagwriter.EXTXDiscontinuitySequence(p.DiscontinuitySequence))
	}
	if p.PlaylistType != model.PlaylistTypeNone {
		lines = append(lines, tagwriter.EXTXPlaylistType(p.PlaylistType))
	}
	if p.IFramesOnly {
		lines = append(lines, tagwriter.EXTXIFramesOnly())
	}
	if p.IndependentSegments {
		lines = append(lines, tagwriter.EXTXIndependentSegments())
	}
	if p.StartOffset != nil {
		lines = append(lines, tagwriter.EXTXStart(*p.StartOffset))
	}
	if p.ServerControl != nil {
		lines = append(lines, tagwriter.EXTXServerControl(*p.ServerControl))
	}
	if p.PartTargetDuration != nil {
		lines = append(lines, tagwriter.EXTXPartInf(model.PartInf{PartTarget: *p.PartTargetDuration}))
	}

	for _, name := range sortedKeys(p.Definitions) {
		lines = append(lines, tagwriter.EXTXDefine(name, p.Definitions[name]))
	}

	if p.Skip != nil {
		lines = append(lines, tagwriter.EXTXSkip(*p.Skip))
	}

	var lastKey *model.EncryptionKey
	var lastMap *model.MapTag
	var lastBitrate *uint32

	sameKey := func(a, b *model.EncryptionKey) bool {
		if a == nil && b == nil {
			return true
		}
		if a == nil || b == nil {
			return false
		}
		return *a == *b
	}
	sameMap := func(a, b *model.MapTag) bool {
		if a == nil && b == nil {
			return true
		}
		if a == nil || b == nil {
			return false
		}
		if a.URI != b.URI {
			return false
		}
		if (a.ByteRange == nil) != (b.ByteRange == nil) {
			return false
		}
		if a.ByteRange != nil && *a.ByteRange != *b.ByteRange {
			return false
		}
		return true
	}
	sameBitrate := func(a, b *uint32) bool {
		if a == nil && b == nil {
			return true
		}
		if a == nil || b == nil {
			return false
		}
		return *a == *b
	}

	for _, s := range p.Segments {
		if s.Discontinuity {
			lines = append(lines, tagwriter.EXTXDiscontinuity())
		}
		if !sameKey(s.Key, lastKey) {
			if s.Key != nil {
				lines = append(lines, tagwriter.EXTXKey(*s.Key, false))
			}
			lastKey = s.Key
		}
		if !sameMap(s.Map, lastMap) {
			if s.Map != nil {
				lines = append(lines, tagwriter.EXTXMap(*s.Map))
			}
			lastMap = s.Map
		}
		if !sameBitrate(s.Bitrate, lastBitrate) {
			if s.Bitrate != nil {
				lines = append(lines, tagwriter.EXTXBitrate(*s.Bitrate))
			}
			lastBitrate = s.Bitrate
		}
		if s.ProgramDateTime != nil {
			lines = append(lines, tagwriter.EXTXProgramDateTime(*s.ProgramDateTime))
		}
		if s.ByteRange != nil {
			lines = append(lines, tagwriter.EXTXByteRange(*s.ByteRange))
		}
		if s.IsGap {
			lines = append(lines, tagwriter.EXTXGap())
		}
		lines = append(lines, tagwriter.EXTINF(s.Duration, s.Title, version))
		lines = append(lines, s.URI)
	}

	for _, part := range p.PartialSegments {
		lines = append(lines, tagwriter.EXTXPart(part))
	}
	for _, hint := range p.PreloadHints {
		lines = append(lines, tagwriter.EXTXPreloadHint(hint))
	}
	for _, rep := range p.RenditionReports {
		lines = append(lines, tagwriter.EXTXRenditionReport(rep))
	}

	if p.HasEndList {
		lines = append(lines, tagwriter.EXTXEndList())
	}

	return strings.Join(lines, "\n") + "\n"
}

// GenerateMaster produces the byte-exact master playlist text for m.
func GenerateMaster(m *model.MasterPlaylist) string {
	auto := AutoVersionMaster(m)
	version := resolveVersion(m.Version, auto)

	var lines []string
	lines = append(lines, tagwriter.EXTM3U())
	if m.Version != nil || auto > 1 {
		lines = append(lines, tagwriter.EXTXVersion(version))
	}
	if m.IndependentSegments {
		lines = append(lines, tagwriter.EXTXIndependentSegments())
	}
	if m.StartOffset != nil {
		lines = append(lines, tagwriter.EXTXStart(*m.StartOffset))
	}
	for _, name := range sortedKeys(m.Definitions) {
		lines = append(lines, tagwriter.EXTXDefine(name, m.Definitions[name]))
	}
	for _, k := range m.SessionKeys {
		lines = append(lines, tagwriter.EXTXKey(k, true))
	}
	if m.ContentSteering != nil {
		lines = append(lines, tagwriter.EXTXContentSteering(*m.ContentSteering))
	}
	for _, sd := range m.SessionData {
		lines = append(lines, tagwriter.EXTXSessionData(sd))
	}
	for _, r := range m.Renditions {
		lines = append(lines, tagwriter.EXTXMedia(r))
	}
	for _, v := range m.IFrameVariants {
		lines = append(lines, tagwriter.EXTXIFrameStreamInf(v))
	}
	for _, v := range m.Variants {
		lines = append(lines, tagwriter.EXTXStreamInf(v))
		lines = append(lines, v.URI)
	}

	return strings.Join(lines, "\n") + "\n"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
