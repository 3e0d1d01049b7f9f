// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package parser is a line-oriented M3U8 lexer and tag parser producing
// the same typed data model the generator consumes (component H),
// completing the round-trip property of §8.
package parser

import (
	"strconv"
	"strings"

	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/hlserr"
)

// attrs is an unordered, case-sensitive HLS attribute map parsed from a
// single tag's value portion.
type attrs map[string]string

// splitAttrs performs a comma-split at top level that respects
// double-quoted strings (§4.5): no commas inside quotes, and escaped
// quotes are not supported — a bare quote inside a quoted string fails.
func splitAttrs(s string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case ',':
			if inQuotes {
				cur.WriteByte(c)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, hlserr.MalformedAttributes()
	}
	parts = append(parts, cur.String())
	return parts, nil
}

func parseAttrs(value string) (attrs, error) {
	parts, err := splitAttrs(value)
	if err != nil {
		return nil, err
	}
	out := attrs{}
	for _, p := range parts {
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(p[:eq])
		val := p[eq+1:]
		if strings.HasPrefix(val, `"`) {
			if !strings.HasSuffix(val, `"`) || len(val) < 2 {
				return nil, hlserr.MalformedAttributes()
			}
			val = val[1 : len(val)-1]
			if strings.Contains(val, `"`) {
				return nil, hlserr.MalformedAttributes()
			}
		}
		out[key] = val
	}
	return out, nil
}

func (a attrs) str(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

func (a attrs) float(tag, key string) (*float64, error) {
	v, ok := a[key]
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, hlserr.InvalidAttribute(tag, key, v)
	}
	return &f, nil
}

func (a attrs) uint64(tag, key string) (*uint64, error) {
	v, ok := a[key]
	if !ok {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, hlserr.InvalidAttribute(tag, key, v)
	}
	return &n, nil
}

func (a attrs) yesNo(key string) bool {
	return strings.EqualFold(a[key], "YES")
}

func parseByteRangeAttr(s string) (*model.ByteRange, error) {
	if s == "" {
		return nil, nil
	}
	if at := strings.IndexByte(s, '@'); at >= 0 {
		length, err := strconv.ParseUint(s[:at], 10, 64)
		if err != nil {
			return nil, hlserr.InvalidAttribute("BYTERANGE", "BYTERANGE", s)
		}
		offset, err := strconv.ParseUint(s[at+1:], 10, 64)
		if err != nil {
			return nil, hlserr.InvalidAttribute("BYTERANGE", "BYTERANGE", s)
		}
		return &model.ByteRange{Length: length, Offset: offset, HasOffset: true}, nil
	}
	length, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, hlserr.InvalidAttribute("BYTERANGE", "BYTERANGE", s)
	}
	return &model.ByteRange{Length: length}, nil
}

func splitTag(line string) (name, value string) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return line, ""
	}
	return line[:colon], line[colon+1:]
}

// Classify determines whether raw is a master or media playlist by the
// first of #EXT-X-STREAM-INF / #EXTINF encountered, per §4.5. Both or
// neither present is Ambiguous.
func Classify(raw string) (isMaster bool, err error) {
	var sawStreamInf, sawExtinf bool
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			sawStreamInf = true
		case strings.HasPrefix(line, "#EXTINF:"):
			sawExtinf = true
		}
		if sawStreamInf && sawExtinf {
			return false, hlserr.Ambiguous()
		}
	}
	if sawStreamInf {
		return true, nil
	}
	if sawExtinf {
		return false, nil
	}
	return false, hlserr.Ambiguous()
}

// ParseMedia parses raw as a media playlist.
func ParseMedia(raw string) (*model.MediaPlaylist, error) {
	p := &model.MediaPlaylist{Definitions: map[string]string{}}

	var pendingDiscontinuity, pendingGap bool
	var pendingKey *model.EncryptionKey
	var pendingMap *model.MapTag
	var pendingBitrate *uint32
	var pendingPDT *string
	var pendingByteRange *model.ByteRange
	var lastExtinf *extinfValue

	lines := strings.Split(raw, "\n")
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}
		if line == "#EXTM3U" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			seg := model.Segment{
				Discontinuity:   pendingDiscontinuity,
				IsGap:           pendingGap,
				Key:             pendingKey,
				Map:             pendingMap,
				Bitrate:         pendingBitrate,
				ProgramDateTime: pendingPDT,
				ByteRange:       pendingByteRange,
				URI:             line,
			}
			if lastExtinf != nil {
				seg.Duration = lastExtinf.duration
				seg.Title = lastExtinf.title
			}
			p.Segments = append(p.Segments, seg)
			pendingDiscontinuity, pendingGap = false, false
			pendingPDT, pendingByteRange = nil, nil
			lastExtinf = nil
			continue
		}

		name, value := splitTag(line)
		switch name {
		case "#EXT-X-VERSION":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, hlserr.InvalidAttribute(name, "VERSION", value)
			}
			p.Version = &v
		case "#EXT-X-TARGETDURATION":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, hlserr.InvalidAttribute(name, "TARGETDURATION", value)
			}
			p.TargetDuration = uint32(v)
		case "#EXT-X-MEDIA-SEQUENCE":
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, hlserr.InvalidAttribute(name, "MEDIA-SEQUENCE", value)
			}
			p.MediaSequence = v
		case "#EXT-X-DISCONTINUITY-SEQUENCE":
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, hlserr.InvalidAttribute(name, "DISCONTINUITY-SEQUENCE", value)
			}
			p.DiscontinuitySequence = v
		case "#EXT-X-PLAYLIST-TYPE":
			p.PlaylistType = model.PlaylistType(value)
		case "#EXT-X-I-FRAMES-ONLY":
			p.IFramesOnly = true
		case "#EXT-X-INDEPENDENT-SEGMENTS":
			p.IndependentSegments = true
		case "#EXT-X-DISCONTINUITY":
			pendingDiscontinuity = true
		case "#EXT-X-GAP":
			pendingGap = true
		case "#EXT-X-ENDLIST":
			p.HasEndList = true
		case "#EXT-X-START":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			offset, err := a.float(name, "TIME-OFFSET")
			if err != nil {
				return nil, err
			}
			so := model.StartOffset{Precise: a.yesNo("PRECISE")}
			if offset != nil {
				so.TimeOffset = *offset
			}
			p.StartOffset = &so
		case "#EXT-X-SERVER-CONTROL":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			sc := model.ServerControl{CanBlockReload: a.yesNo("CAN-BLOCK-RELOAD"), CanSkipDateRanges: a.yesNo("CAN-SKIP-DATERANGES")}
			if sc.CanSkipUntil, err = a.float(name, "CAN-SKIP-UNTIL"); err != nil {
				return nil, err
			}
			if sc.HoldBack, err = a.float(name, "HOLD-BACK"); err != nil {
				return nil, err
			}
			if sc.PartHoldBack, err = a.float(name, "PART-HOLD-BACK"); err != nil {
				return nil, err
			}
			p.ServerControl = &sc
		case "#EXT-X-PART-INF":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			pt, err := a.float(name, "PART-TARGET")
			if err != nil {
				return nil, err
			}
			p.PartTargetDuration = pt
		case "#EXT-X-DEFINE":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			if nm, ok := a.str("NAME"); ok {
				p.Definitions[nm] = a["VALUE"]
			}
		case "#EXT-X-KEY":
			k, err := parseKey(name, value)
			if err != nil {
				return nil, err
			}
			pendingKey = k
		case "#EXT-X-MAP":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			br, err := parseByteRangeAttr(a["BYTERANGE"])
			if err != nil {
				return nil, err
			}
			pendingMap = &model.MapTag{URI: a["URI"], ByteRange: br}
		case "#EXT-X-BITRATE":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, hlserr.InvalidAttribute(name, "BITRATE", value)
			}
			bps := uint32(v) * 1000
			pendingBitrate = &bps
		case "#EXT-X-PROGRAM-DATE-TIME":
			v := value
			pendingPDT = &v
		case "#EXT-X-BYTERANGE":
			br, err := parseByteRangeAttr(value)
			if err != nil {
				return nil, err
			}
			pendingByteRange = br
		case "#EXTINF":
			d, title, err := parseExtinf(value)
			if err != nil {
				return nil, err
			}
			lastExtinf = &extinfValue{duration: d, title: title}
		case "#EXT-X-PART":
			part, err := parsePart(name, value)
			if err != nil {
				return nil, err
			}
			p.PartialSegments = append(p.PartialSegments, *part)
		case "#EXT-X-PRELOAD-HINT":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			hint := model.PreloadHint{Type: a["TYPE"], URI: a["URI"]}
			if v, err := a.uint64(name, "BYTERANGE-START"); err != nil {
				return nil, err
			} else if v != nil {
				u := *v
				hint.ByteRangeStart = &u
			}
			if v, err := a.uint64(name, "BYTERANGE-LENGTH"); err != nil {
				return nil, err
			} else if v != nil {
				u := *v
				hint.ByteRangeLength = &u
			}
			p.PreloadHints = append(p.PreloadHints, hint)
		case "#EXT-X-RENDITION-REPORT":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			lastMSN, err := a.uint64(name, "LAST-MSN")
			if err != nil {
				return nil, err
			}
			rr := model.RenditionReport{URI: a["URI"]}
			if lastMSN != nil {
				rr.LastMSN = *lastMSN
			}
			if lp, err := a.uint64(name, "LAST-PART"); err != nil {
				return nil, err
			} else {
				rr.LastPart = lp
			}
			p.RenditionReports = append(p.RenditionReports, rr)
		case "#EXT-X-SKIP":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			n, err := a.uint64(name, "SKIPPED-SEGMENTS")
			if err != nil {
				return nil, err
			}
			skip := model.SkipInfo{}
			if n != nil {
				skip.SkippedSegments = *n
			}
			if dr, ok := a.str("RECENTLY-REMOVED-DATERANGES"); ok {
				skip.RecentlyRemovedDateranges = strings.Split(dr, "\t")
			}
			p.Skip = &skip
		default:
			// Unknown #EXT-X-* tags are skipped: the typed model has no
			// field that holds them, so they are not kept anywhere in the
			// returned playlist and do not survive a round trip.
			_ = i
		}
	}

	p.TargetDuration = maxUint32(p.TargetDuration, model.TargetDurationFor(p.Segments))
	return p, nil
}

type extinfValue struct {
	duration float64
	title    string
}

func parseExtinf(value string) (float64, string, error) {
	comma := strings.IndexByte(value, ',')
	if comma < 0 {
		return 0, "", hlserr.MalformedAttributes()
	}
	durStr := value[:comma]
	title := value[comma+1:]
	d, err := strconv.ParseFloat(durStr, 64)
	if err != nil {
		return 0, "", hlserr.InvalidAttribute("#EXTINF", "duration", durStr)
	}
	return d, title, nil
}

func parseKey(tag, value string) (*model.EncryptionKey, error) {
	a, err := parseAttrs(value)
	if err != nil {
		return nil, err
	}
	method, ok := a.str("METHOD")
	if !ok {
		return nil, hlserr.InvalidAttribute(tag, "METHOD", "")
	}
	k := &model.EncryptionKey{
		Method:            model.EncryptionMethod(method),
		URI:               a["URI"],
		IV:                a["IV"],
		KeyFormat:         a["KEYFORMAT"],
		KeyFormatVersions: a["KEYFORMATVERSIONS"],
	}
	return k, nil
}

func parsePart(tag, value string) (*model.PartialSegment, error) {
	a, err := parseAttrs(value)
	if err != nil {
		return nil, err
	}
	d, err := a.float(tag, "DURATION")
	if err != nil {
		return nil, err
	}
	part := &model.PartialSegment{URI: a["URI"], Independent: a.yesNo("INDEPENDENT"), IsGap: a.yesNo("GAP")}
	if d != nil {
		part.Duration = *d
	}
	if br, ok := a.str("BYTERANGE"); ok {
		parsed, err := parseByteRangeAttr(br)
		if err != nil {
			return nil, err
		}
		part.ByteRange = parsed
	}
	return part, nil
}

func maxUint32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
