// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validate checks a typed media or master playlist against HLS's
// structural invariants: target-duration bound, HDCP/video-range coherence,
// closed-captions consistency, and program-date-time monotonicity.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

// Error is a single validation failure.
type Error struct {
	Field   string
	Value   interface{}
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors across one or more checks.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error
// value.
type ValidationError struct {
	errors []Error
}

func New() *Validator {
	return &Validator{errors: make([]Error, 0)}
}

func (v *Validator) AddError(field, message string, value interface{}) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

func (v *Validator) IsValid() bool { return len(v.errors) == 0 }

func (v *Validator) Errors() []Error { return v.errors }

func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)
	return ValidationError{errors: copied}
}

func (e ValidationError) Errors() []Error { return e.errors }

func (e ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}
	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// MediaPlaylist runs every structural check against p and returns an
// aggregate error describing every violation found, or nil if p is valid.
func MediaPlaylist(p *model.MediaPlaylist) error {
	v := New()
	checkTargetDuration(v, p)
	checkProgramDateTimeMonotonicity(v, p)
	checkPartialSegmentDurations(v, p)
	return v.Err()
}

// MasterPlaylist runs every structural check against m and returns an
// aggregate error describing every violation found, or nil if m is valid.
func MasterPlaylist(m *model.MasterPlaylist) error {
	v := New()
	checkHDCPVideoRangeCoherence(v, m)
	checkClosedCaptionsConsistency(v, m)
	checkInstreamIDs(v, m)
	return v.Err()
}

// checkHDCPVideoRangeCoherence enforces the HDR-content-delivery
// convention every production HLS packager follows: HDR content (PQ or
// HLG VIDEO-RANGE) is expected to travel behind HDCP Type-1 output
// protection, since nearly every HDR-capable sink also requires HDCP 2.2+.
// An HDR variant with HDCP-LEVEL omitted or explicitly NONE is flagged.
func checkHDCPVideoRangeCoherence(v *Validator, m *model.MasterPlaylist) {
	for i, variant := range m.Variants {
		if variant.VideoRange == nil {
			continue
		}
		isHDR := *variant.VideoRange == model.VideoRangeHLG || *variant.VideoRange == model.VideoRangePQ
		if !isHDR {
			continue
		}
		if variant.HDCPLevel == nil || *variant.HDCPLevel == model.HDCPNone {
			v.AddError(
				fmt.Sprintf("variants[%d].hdcp_level", i),
				fmt.Sprintf("HDR variant (video_range=%s) should carry HDCP-LEVEL=TYPE-1, got none", *variant.VideoRange),
				variant.HDCPLevel,
			)
		}
	}
}

// checkClosedCaptionsConsistency enforces §3's CLOSED-CAPTIONS invariant:
// a variant that references a CLOSED-CAPTIONS group id must have a matching
// Rendition of type CLOSED-CAPTIONS in that group, and vice versa every
// CLOSED-CAPTIONS rendition must forbid a URI and carry an instream id.
func checkClosedCaptionsConsistency(v *Validator, m *model.MasterPlaylist) {
	ccGroups := make(map[string]bool)
	for _, r := range m.Renditions {
		if r.Type == model.RenditionClosedCaptions {
			ccGroups[r.GroupID] = true
		}
	}

	for i, variant := range m.Variants {
		groupID, ok := variant.ClosedCaptions.GroupID()
		if !ok {
			continue
		}
		if !ccGroups[groupID] {
			v.AddError(
				fmt.Sprintf("variants[%d].closed_captions", i),
				fmt.Sprintf("references CLOSED-CAPTIONS group %q with no matching rendition", groupID),
				groupID,
			)
		}
	}

	for i, r := range m.Renditions {
		if r.Type != model.RenditionClosedCaptions {
			continue
		}
		if r.URI != "" {
			v.AddError(fmt.Sprintf("renditions[%d].uri", i), "CLOSED-CAPTIONS rendition forbids URI", r.URI)
		}
		if r.InstreamID == "" {
			v.AddError(fmt.Sprintf("renditions[%d].instream_id", i), "CLOSED-CAPTIONS rendition requires INSTREAM-ID", r.InstreamID)
		}
	}
}

// checkInstreamIDs enforces the INSTREAM-ID attribute's closed format:
// CCn (n=1..4) for CEA-608 or SERVICEn (n=1..63) for CEA-708.
func checkInstreamIDs(v *Validator, m *model.MasterPlaylist) {
	for i, r := range m.Renditions {
		if r.Type != model.RenditionClosedCaptions || r.InstreamID == "" {
			continue
		}
		if !validInstreamID(r.InstreamID) {
			v.AddError(
				fmt.Sprintf("renditions[%d].instream_id", i),
				"must be CC1-CC4 or SERVICE1-SERVICE63",
				r.InstreamID,
			)
		}
	}
}

func validInstreamID(id string) bool {
	if n, ok := strings.CutPrefix(id, "CC"); ok {
		v, err := strconv.Atoi(n)
		return err == nil && v >= 1 && v <= 4
	}
	if n, ok := strings.CutPrefix(id, "SERVICE"); ok {
		v, err := strconv.Atoi(n)
		return err == nil && v >= 1 && v <= 63
	}
	return false
}

// checkTargetDuration enforces §3's invariant: no segment's duration may
// exceed target_duration, once rounded up to the nearest integer second.
func checkTargetDuration(v *Validator, p *model.MediaPlaylist) {
	for i, seg := range p.Segments {
		if model.TargetDurationFor([]model.Segment{seg}) > p.TargetDuration {
			v.AddError(
				fmt.Sprintf("segments[%d].duration", i),
				fmt.Sprintf("segment duration %.3fs exceeds target_duration %ds", seg.Duration, p.TargetDuration),
				seg.Duration,
			)
		}
	}
}

// checkProgramDateTimeMonotonicity requires PDT, where present, to never
// move backwards across segments, and — for live/event playlists only —
// either all segments carry PDT or none do (partial coverage on a live
// playlist means the timeline cannot be trusted).
func checkProgramDateTimeMonotonicity(v *Validator, p *model.MediaPlaylist) {
	var (
		lastPDT     time.Time
		withPDT     int
		parseErrors int
	)
	for i, seg := range p.Segments {
		if seg.ProgramDateTime == nil {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, *seg.ProgramDateTime)
		if err != nil {
			t, err = time.Parse(time.RFC3339, *seg.ProgramDateTime)
		}
		if err != nil {
			parseErrors++
			v.AddError(fmt.Sprintf("segments[%d].program_date_time", i), "invalid timestamp format", *seg.ProgramDateTime)
			continue
		}
		withPDT++
		if !lastPDT.IsZero() && t.Before(lastPDT) && !seg.Discontinuity {
			v.AddError(
				fmt.Sprintf("segments[%d].program_date_time", i),
				fmt.Sprintf("PDT %v is before previous segment's PDT %v", t, lastPDT),
				*seg.ProgramDateTime,
			)
		}
		lastPDT = t
	}

	isLive := p.PlaylistType != model.PlaylistTypeVOD && !p.HasEndList
	if isLive && withPDT > 0 && withPDT != len(p.Segments) && parseErrors == 0 {
		v.AddError("segments", fmt.Sprintf("partial PROGRAM-DATE-TIME coverage in live playlist (%d/%d segments)", withPDT, len(p.Segments)), nil)
	}
}

// checkPartialSegmentDurations enforces §3's LL-HLS invariant that every
// partial segment's duration not exceed PART-TARGET-DURATION.
func checkPartialSegmentDurations(v *Validator, p *model.MediaPlaylist) {
	if p.PartTargetDuration == nil {
		return
	}
	for i, part := range p.PartialSegments {
		if part.Duration > *p.PartTargetDuration {
			v.AddError(
				fmt.Sprintf("partial_segments[%d].duration", i),
				fmt.Sprintf("partial segment duration %.3fs exceeds PART-TARGET-DURATION %.3fs", part.Duration, *p.PartTargetDuration),
				part.Duration,
			)
		}
	}
}
