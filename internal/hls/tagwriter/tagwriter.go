// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tagwriter emits every HLS tag as a single line of text with
// deterministic attribute order (component F). Per §9, "attribute emission
// order is not data-driven; it is the writer's compile-time property" —
// one function per tag with fixed field order, matching §8's idempotence
// property.
package tagwriter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

// FormatDecimal prints the minimum number of fractional digits required to
// represent v, stripping trailing zeros beyond the first significant
// digit, per §4.3.
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatEXTINFDuration applies §4.3's version-gated precision: for
// version>=3, at least one fractional digit; for version<3, round down to
// an integer.
func FormatEXTINFDuration(d float64, version int) string {
	if version < 3 {
		return strconv.Itoa(int(d))
	}
	return FormatDecimal(d)
}

// FormatFrameRate prints three fractional digits, e.g. "30.000".
func FormatFrameRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatByteRange prints "length@offset" when offset is present, else just
// "length".
func FormatByteRange(br *model.ByteRange) string {
	if br == nil {
		return ""
	}
	if br.HasOffset {
		return fmt.Sprintf("%d@%d", br.Length, br.Offset)
	}
	return strconv.FormatUint(br.Length, 10)
}

func quote(s string) string { return `"` + s + `"` }

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// attr renders "KEY=value" and is omitted entirely by callers when the
// value is absent; this helper only handles present values.
func attr(key, value string) string { return key + "=" + value }

func joinAttrs(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ",")
}

// EXTM3U is the mandatory first line.
func EXTM3U() string { return "#EXTM3U" }

func EXTXVersion(v int) string {
	return fmt.Sprintf("#EXT-X-VERSION:%d", v)
}

func EXTXTargetDuration(seconds uint32) string {
	return fmt.Sprintf("#EXT-X-TARGETDURATION:%d", seconds)
}

func EXTXMediaSequence(n uint64) string {
	return fmt.Sprintf("#EXT-X-MEDIA-SEQUENCE:%d", n)
}

func EXTXDiscontinuitySequence(n uint64) string {
	return fmt.Sprintf("#EXT-X-DISCONTINUITY-SEQUENCE:%d", n)
}

func EXTXPlaylistType(t model.PlaylistType) string {
	return fmt.Sprintf("#EXT-X-PLAYLIST-TYPE:%s", string(t))
}

func EXTXIFramesOnly() string { return "#EXT-X-I-FRAMES-ONLY" }

func EXTXIndependentSegments() string { return "#EXT-X-INDEPENDENT-SEGMENTS" }

func EXTXDiscontinuity() string { return "#EXT-X-DISCONTINUITY" }

func EXTXGap() string { return "#EXT-X-GAP" }

func EXTXEndList() string { return "#EXT-X-ENDLIST" }

func EXTXStart(s model.StartOffset) string {
	parts := []string{attr("TIME-OFFSET", FormatDecimal(s.TimeOffset))}
	if s.Precise {
		parts = append(parts, attr("PRECISE", "YES"))
	}
	return "#EXT-X-START:" + joinAttrs(parts...)
}

// EXTXKey formats an EXT-X-KEY (or, with isSessionKey, EXT-X-SESSION-KEY)
// tag. Attribute order: METHOD, URI, IV, KEYFORMAT, KEYFORMATVERSIONS.
func EXTXKey(k model.EncryptionKey, isSessionKey bool) string {
	name := "#EXT-X-KEY:"
	if isSessionKey {
		name = "#EXT-X-SESSION-KEY:"
	}
	parts := []string{attr("METHOD", string(k.Method))}
	if k.URI != "" {
		parts = append(parts, attr("URI", quote(k.URI)))
	}
	if k.IV != "" {
		parts = append(parts, attr("IV", k.IV))
	}
	if k.KeyFormat != "" {
		parts = append(parts, attr("KEYFORMAT", quote(k.KeyFormat)))
	}
	if k.KeyFormatVersions != "" {
		parts = append(parts, attr("KEYFORMATVERSIONS", quote(k.KeyFormatVersions)))
	}
	return name + joinAttrs(parts...)
}

// EXTXMap formats an EXT-X-MAP tag: URI, BYTERANGE.
func EXTXMap(m model.MapTag) string {
	parts := []string{attr("URI", quote(m.URI))}
	if m.ByteRange != nil {
		parts = append(parts, attr("BYTERANGE", quote(FormatByteRange(m.ByteRange))))
	}
	return "#EXT-X-MAP:" + joinAttrs(parts...)
}

func EXTXByteRange(br model.ByteRange) string {
	return "#EXT-X-BYTERANGE:" + FormatByteRange(&br)
}

func EXTXProgramDateTime(rfc3339 string) string {
	return "#EXT-X-PROGRAM-DATE-TIME:" + rfc3339
}

func EXTXBitrate(bps uint32) string {
	return fmt.Sprintf("#EXT-X-BITRATE:%d", bps/1000)
}

// EXTINF formats "duration,title" (the comma is mandatory even with an
// empty title, per §4.3).
func EXTINF(duration float64, title string, version int) string {
	return fmt.Sprintf("#EXTINF:%s,%s", FormatEXTINFDuration(duration, version), title)
}

// closedCaptionsAttr renders the three-state CLOSED-CAPTIONS value: a
// quoted group id, the unquoted literal NONE, or "" (caller omits the
// attribute entirely) when omitted.
func closedCaptionsAttr(v model.ClosedCaptionsValue) string {
	if v.IsOmitted() {
		return ""
	}
	if v.IsNone() {
		return attr("CLOSED-CAPTIONS", "NONE")
	}
	g, _ := v.GroupID()
	return attr("CLOSED-CAPTIONS", quote(g))
}

// EXTXStreamInf formats EXT-X-STREAM-INF with the fixed attribute order
// from §4.3: BANDWIDTH, AVERAGE-BANDWIDTH, CODECS, SUPPLEMENTAL-CODECS,
// RESOLUTION, FRAME-RATE, HDCP-LEVEL, VIDEO-RANGE, CLOSED-CAPTIONS, AUDIO,
// SUBTITLES, VIDEO. The trailing URI line is emitted separately by the
// generator.
func EXTXStreamInf(v model.Variant) string {
	parts := []string{attr("BANDWIDTH", strconv.FormatUint(v.Bandwidth, 10))}
	if v.AverageBandwidth != nil {
		parts = append(parts, attr("AVERAGE-BANDWIDTH", strconv.FormatUint(*v.AverageBandwidth, 10)))
	}
	if v.Codecs != "" {
		parts = append(parts, attr("CODECS", quote(v.Codecs)))
	}
	if v.SupplementalCodecs != "" {
		parts = append(parts, attr("SUPPLEMENTAL-CODECS", quote(v.SupplementalCodecs)))
	}
	if v.Resolution != nil {
		parts = append(parts, attr("RESOLUTION", fmt.Sprintf("%dx%d", v.Resolution.Width, v.Resolution.Height)))
	}
	if v.FrameRate != nil {
		parts = append(parts, attr("FRAME-RATE", FormatFrameRate(*v.FrameRate)))
	}
	if v.HDCPLevel != nil {
		parts = append(parts, attr("HDCP-LEVEL", string(*v.HDCPLevel)))
	}
	if v.VideoRange != nil {
		parts = append(parts, attr("VIDEO-RANGE", string(*v.VideoRange)))
	}
	if cc := closedCaptionsAttr(v.ClosedCaptions); cc != "" {
		parts = append(parts, cc)
	}
	if v.AudioGroup != "" {
		parts = append(parts, attr("AUDIO", quote(v.AudioGroup)))
	}
	if v.SubtitlesGroup != "" {
		parts = append(parts, attr("SUBTITLES", quote(v.SubtitlesGroup)))
	}
	if v.VideoGroup != "" {
		parts = append(parts, attr("VIDEO", quote(v.VideoGroup)))
	}
	return "#EXT-X-STREAM-INF:" + joinAttrs(parts...)
}

// EXTXIFrameStreamInf formats EXT-X-I-FRAME-STREAM-INF, which carries URI
// as an attribute rather than a trailing line.
func EXTXIFrameStreamInf(v model.IFrameVariant) string {
	parts := []string{attr("BANDWIDTH", strconv.FormatUint(v.Bandwidth, 10))}
	if v.AverageBandwidth != nil {
		parts = append(parts, attr("AVERAGE-BANDWIDTH", strconv.FormatUint(*v.AverageBandwidth, 10)))
	}
	if v.Codecs != "" {
		parts = append(parts, attr("CODECS", quote(v.Codecs)))
	}
	if v.SupplementalCodecs != "" {
		parts = append(parts, attr("SUPPLEMENTAL-CODECS", quote(v.SupplementalCodecs)))
	}
	if v.Resolution != nil {
		parts = append(parts, attr("RESOLUTION", fmt.Sprintf("%dx%d", v.Resolution.Width, v.Resolution.Height)))
	}
	if v.HDCPLevel != nil {
		parts = append(parts, attr("HDCP-LEVEL", string(*v.HDCPLevel)))
	}
	if v.VideoRange != nil {
		parts = append(parts, attr("VIDEO-RANGE", string(*v.VideoRange)))
	}
	if v.VideoGroup != "" {
		parts = append(parts, attr("VIDEO", quote(v.VideoGroup)))
	}
	parts = append(parts, attr("URI", quote(v.URI)))
	return "#EXT-X-I-FRAME-STREAM-INF:" + joinAttrs(parts...)
}

// EXTXMedia formats EXT-X-MEDIA with attribute order: TYPE, GROUP-ID, NAME,
// URI, LANGUAGE, ASSOC-LANGUAGE, DEFAULT, AUTOSELECT, FORCED, INSTREAM-ID,
// CHARACTERISTICS, CHANNELS.
func EXTXMedia(r model.Rendition) string {
	parts := []string{
		attr("TYPE", string(r.Type)),
		attr("GROUP-ID", quote(r.GroupID)),
		attr("NAME", quote(r.Name)),
	}
	if r.URI != "" {
		parts = append(parts, attr("URI", quote(r.URI)))
	}
	if r.Language != "" {
		parts = append(parts, attr("LANGUAGE", quote(r.Language)))
	}
	if r.AssocLanguage != "" {
		parts = append(parts, attr("ASSOC-LANGUAGE", quote(r.AssocLanguage)))
	}
	parts = append(parts, attr("DEFAULT", yesNo(r.IsDefault)))
	parts = append(parts, attr("AUTOSELECT", yesNo(r.Autoselect)))
	if r.Type == model.RenditionSubtitles {
		parts = append(parts, attr("FORCED", yesNo(r.Forced)))
	}
	if r.InstreamID != "" {
		parts = append(parts, attr("INSTREAM-ID", quote(r.InstreamID)))
	}
	if r.Characteristics != "" {
		parts = append(parts, attr("CHARACTERISTICS", quote(r.Characteristics)))
	}
	if r.Channels != "" {
		parts = append(parts, attr("CHANNELS", quote(r.Channels)))
	}
	return "#EXT-X-MEDIA:" + joinAttrs(parts...)
}

func EXTXSessionData(s model.SessionData) string {
	parts := []string{attr("DATA-ID", quote(s.DataID))}
	if s.Value != "" {
		parts = append(parts, attr("VALUE", quote(s.Value)))
	}
	if s.URI != "" {
		parts = append(parts, attr("URI", quote(s.URI)))
	}
	if s.Language != "" {
		parts = append(parts, attr("LANGUAGE", quote(s.Language)))
	}
	return "#EXT-X-SESSION-DATA:" + joinAttrs(parts...)
}

func EXTXContentSteering(c model.ContentSteering) string {
	parts := []string{attr("SERVER-URI", quote(c.ServerURI))}
	if c.PathwayID != "" {
		parts = append(parts, attr("PATHWAY-ID", quote(c.PathwayID)))
	}
	return "#EXT-X-CONTENT-STEERING:" + joinAttrs(parts...)
}

func EXTXPartInf(p model.PartInf) string {
	return "#EXT-X-PART-INF:" + attr("PART-TARGET", FormatDecimal(p.PartTarget))
}

// EXTXServerControl formats EXT-X-SERVER-CONTROL: CAN-BLOCK-RELOAD,
// CAN-SKIP-UNTIL, CAN-SKIP-DATERANGES, HOLD-BACK, PART-HOLD-BACK.
func EXTXServerControl(s model.ServerControl) string {
	var parts []string
	if s.CanBlockReload {
		parts = append(parts, attr("CAN-BLOCK-RELOAD", "YES"))
	}
	if s.CanSkipUntil != nil {
		parts = append(parts, attr("CAN-SKIP-UNTIL", FormatDecimal(*s.CanSkipUntil)))
	}
	if s.CanSkipDateRanges {
		parts = append(parts, attr("CAN-SKIP-DATERANGES", "YES"))
	}
	if s.HoldBack != nil {
		parts = append(parts, attr("HOLD-BACK", FormatDecimal(*s.HoldBack)))
	}
	if s.PartHoldBack != nil {
		parts = append(parts, attr("PART-HOLD-BACK", FormatDecimal(*s.PartHoldBack)))
	}
	return "#EXT-X-SERVER-CONTROL:" + joinAttrs(parts...)
}

// EXTXPart formats an LL-HLS EXT-X-PART tag: DURATION, URI, INDEPENDENT,
// BYTERANGE, GAP.
func EXTXPart(p model.PartialSegment) string {
	parts := []string{
		attr("DURATION", FormatDecimal(p.Duration)),
		attr("URI", quote(p.URI)),
	}
	if p.Independent {
		parts = append(parts, attr("INDEPENDENT", "YES"))
	}
	if p.ByteRange != nil {
		parts = append(parts, attr("BYTERANGE", quote(FormatByteRange(p.ByteRange))))
	}
	if p.IsGap {
		parts = append(parts, attr("GAP", "YES"))
	}
	return "#EXT-X-PART:" + joinAttrs(parts...)
}

// EXTXPreloadHint formats EXT-X-PRELOAD-HINT: TYPE, URI, BYTERANGE-START,
// BYTERANGE-LENGTH.
func EXTXPreloadHint(h model.PreloadHint) string {
	parts := []string{
		attr("TYPE", h.Type),
		attr("URI", quote(h.URI)),
	}
	if h.ByteRangeStart != nil {
		parts = append(parts, attr("BYTERANGE-START", strconv.FormatUint(*h.ByteRangeStart, 10)))
	}
	if h.ByteRangeLength != nil {
		parts = append(parts, attr("BYTERANGE-LENGTH", strconv.FormatUint(*h.ByteRangeLength, 10)))
	}
	return "#EXT-X-PRELOAD-HINT:" + joinAttrs(parts...)
}

// EXTXRenditionReport formats EXT-X-RENDITION-REPORT: URI, LAST-MSN,
// LAST-PART.
func EXTXRenditionReport(r model.RenditionReport) string {
	parts := []string{
		attr("URI", quote(r.URI)),
		attr("LAST-MSN", strconv.FormatUint(r.LastMSN, 10)),
	}
	if r.LastPart != nil {
		parts = append(parts, attr("LAST-PART", strconv.FormatUint(*r.LastPart, 10)))
	}
	return "#EXT-X-RENDITION-REPORT:" + joinAttrs(parts...)
}

// EXTXSkip formats EXT-X-SKIP: SKIPPED-SEGMENTS, RECENTLY-REMOVED-DATERANGES.
func EXTXSkip(s model.SkipInfo) string {
	parts := []string{attr("SKIPPED-SEGMENTS", strconv.FormatUint(s.SkippedSegments, 10))}
	if len(s.RecentlyRemovedDateranges) > 0 {
		parts = append(parts, attr("RECENTLY-REMOVED-DATERANGES", quote(strings.Join(s.RecentlyRemovedDateranges, "\t"))))
	}
	return "#EXT-X-SKIP:" + joinAttrs(parts...)
}

// EXTXDateRange formats EXT-X-DATERANGE: ID, CLASS, START-DATE, END-DATE,
// DURATION, PLANNED-DURATION, SCTE35-CMD, SCTE35-OUT, SCTE35-IN,
// END-ON-NEXT, then client attributes in map iteration order (caller
// should supply a stable map, e.g. ordered keys, if determinism matters
// beyond a single process).
func EXTXDateRange(d model.DateRange) string {
	parts := []string{
		attr("ID", quote(d.ID)),
	}
	if d.Class != "" {
		parts = append(parts, attr("CLASS", quote(d.Class)))
	}
	parts = append(parts, attr("START-DATE", quote(d.StartDate)))
	if d.EndDate != "" {
		parts = append(parts, attr("END-DATE", quote(d.EndDate)))
	}
	if d.Duration != nil {
		parts = append(parts, attr("DURATION", FormatDecimal(*d.Duration)))
	}
	if d.PlannedDuration != nil {
		parts = append(parts, attr("PLANNED-DURATION", FormatDecimal(*d.PlannedDuration)))
	}
	if d.SCTE35Cmd != "" {
		parts = append(parts, attr("SCTE35-CMD", d.SCTE35Cmd))
	}
	if d.SCTE35Out != "" {
		parts = append(parts, attr("SCTE35-OUT", d.SCTE35Out))
	}
	if d.SCTE35In != "" {
		parts = append(parts, attr("SCTE35-IN", d.SCTE35In))
	}
	if d.EndOnNext {
		parts = append(parts, attr("END-ON-NEXT", "YES"))
	}
	for k, v := range d.ClientAttrs {
		parts = append(parts, attr(k, v))
	}
	return "#EXT-X-DATERANGE:" + joinAttrs(parts...)
}

func EXTXDefine(name, value string) string {
	return "#EXT-X-DEFINE:" + joinAttrs(attr("NAME", quote(name)), attr("VALUE", quote(value)))
}
