// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package parser

import (
	"strconv"
	"strings"

	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/hlserr"
)

// ParseMaster parses raw as a master playlist.
func ParseMaster(raw string) (*model.MasterPlaylist, error) {
	m := &model.MasterPlaylist{Definitions: map[string]string{}}

	var pendingStreamInf *attrs

	lines := strings.Split(raw, "\n")
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if line == "" || line == "#EXTM3U" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			if pendingStreamInf != nil {
				v, err := buildVariant(*pendingStreamInf, line)
				if err != nil {
					return nil, err
				}
				m.Variants = append(m.Variants, v)
				pendingStreamInf = nil
			}
			continue
		}

		name, value := splitTag(line)
		switch name {
		case "#EXT-X-VERSION":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, hlserr.InvalidAttribute(name, "VERSION", value)
			}
			m.Version = &v
		case "#EXT-X-INDEPENDENT-SEGMENTS":
			m.IndependentSegments = true
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
			m.StartOffset = &so
		case "#EXT-X-DEFINE":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			if nm, ok := a.str("NAME"); ok {
				m.Definitions[nm] = a["VALUE"]
			}
		case "#EXT-X-SESSION-KEY":
			k, err := parseKey(name, value)
			if err != nil {
				return nil, err
			}
			m.SessionKeys = append(m.SessionKeys, *k)
		case "#EXT-X-CONTENT-STEERING":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			m.ContentSteering = &model.ContentSteering{ServerURI: a["SERVER-URI"], PathwayID: a["PATHWAY-ID"]}
		case "#EXT-X-SESSION-DATA":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			m.SessionData = append(m.SessionData, model.SessionData{
				DataID: a["DATA-ID"], Value: a["VALUE"], URI: a["URI"], Language: a["LANGUAGE"],
			})
		case "#EXT-X-MEDIA":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			r := model.Rendition{
				Type:            model.RenditionType(a["TYPE"]),
				GroupID:         a["GROUP-ID"],
				Name:            a["NAME"],
				URI:             a["URI"],
				Language:        a["LANGUAGE"],
				AssocLanguage:   a["ASSOC-LANGUAGE"],
				IsDefault:       a.yesNo("DEFAULT"),
				Autoselect:      a.yesNo("AUTOSELECT"),
				Forced:          a.yesNo("FORCED"),
				InstreamID:      a["INSTREAM-ID"],
				Characteristics: a["CHARACTERISTICS"],
				Channels:        a["CHANNELS"],
			}
			m.Renditions = append(m.Renditions, r)
		case "#EXT-X-STREAM-INF":
			a, err := parseAttrs(value)
			if err != nil {
				return nil, err
			}
			pendingStreamInf = &a
		case "#EXT-X-I-FRAME-STREAM-INF":
			v, err := buildIFrameVariant(name, value)
			if err != nil {
				return nil, err
			}
			m.IFrameVariants = append(m.IFrameVariants, v)
		}
	}

	return m, nil
}

func buildVariant(a attrs, uri string) (model.Variant, error) {
	v := model.Variant{URI: uri, ClosedCaptions: model.ClosedCaptionsOmitted()}
	bw, err := a.uint64("#EXT-X-STREAM-INF", "BANDWIDTH")
	if err != nil {
		return v, err
	}
	if bw != nil {
		v.Bandwidth = *bw
	}
	v.AverageBandwidth, err = a.uint64("#EXT-X-STREAM-INF", "AVERAGE-BANDWIDTH")
	if err != nil {
		return v, err
	}
	v.Codecs = a["CODECS"]
	v.SupplementalCodecs = a["SUPPLEMENTAL-CODECS"]
	if res, ok := a.str("RESOLUTION"); ok {
		r, err := parseResolution(res)
		if err != nil {
			return v, err
		}
		v.Resolution = r
	}
	v.FrameRate, err = a.float("#EXT-X-STREAM-INF", "FRAME-RATE")
	if err != nil {
		return v, err
	}
	if hdcp, ok := a.str("HDCP-LEVEL"); ok {
		h := model.HDCPLevel(hdcp)
		v.HDCPLevel = &h
	}
	if vr, ok := a.str("VIDEO-RANGE"); ok {
		r := model.VideoRange(vr)
		v.VideoRange = &r
	}
	if cc, ok := a.str("CLOSED-CAPTIONS"); ok {
		if cc == "NONE" {
			v.ClosedCaptions = model.ClosedCaptionsNoneValue()
		} else {
			v.ClosedCaptions = model.ClosedCaptionsGroup(cc)
		}
	}
	v.AudioGroup = a["AUDIO"]
	v.SubtitlesGroup = a["SUBTITLES"]
	v.VideoGroup = a["VIDEO"]
	return v, nil
}

func buildIFrameVariant(tag, value string) (model.IFrameVariant, error) {
	a, err := parseAttrs(value)
	if err != nil {
		return model.IFrameVariant{}, err
	}
	v := model.IFrameVariant{URI: a["URI"]}
	bw, err := a.uint64(tag, "BANDWIDTH")
	if err != nil {
		return v, err
	}
	if bw != nil {
		v.Bandwidth = *bw
	}
	v.AverageBandwidth, err = a.uint64(tag, "AVERAGE-BANDWIDTH")
	if err != nil {
		return v, err
	}
	v.Codecs = a["CODECS"]
	v.SupplementalCodecs = a["SUPPLEMENTAL-CODECS"]
	if res, ok := a.str("RESOLUTION"); ok {
		r, err := parseResolution(res)
		if err != nil {
			return v, err
		}
		v.Resolution = r
	}
	if hdcp, ok := a.str("HDCP-LEVEL"); ok {
		h := model.HDCPLevel(hdcp)
		v.HDCPLevel = &h
	}
	if vr, ok := a.str("VIDEO-RANGE"); ok {
		r := model.VideoRange(vr)
		v.VideoRange = &r
	}
	v.VideoGroup = a["VIDEO"]
	return v, nil
}

func parseResolution(s string) (*model.Resolution, error) {
	x := strings.IndexByte(s, 'x')
	if x < 0 {
		return nil, hlserr.InvalidAttribute("RESOLUTION", "RESOLUTION", s)
	}
	w, err := strconv.ParseUint(s[:x], 10, 32)
	if err != nil {
		return nil, hlserr.InvalidAttribute("RESOLUTION", "RESOLUTION", s)
	}
	h, err := strconv.ParseUint(s[x+1:], 10, 32)
	if err != nil {
		return nil, hlserr.InvalidAttribute("RESOLUTION", "RESOLUTION", s)
	}
	return &model.Resolution{Width: uint32(w), Height: uint32(h)}, nil
}
