// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package segmenter

import (
	"fmt"

	"github.com/ManuGH/hlsforge/internal/hls/generator"
	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/hlserr"
	"github.com/ManuGH/hlsforge/internal/metrics"
	"github.com/ManuGH/hlsforge/internal/mp4"
	"github.com/ManuGH/hlsforge/internal/validate"
)

// OutputMode selects between one-file-per-segment delivery and a single
// file addressed by EXT-X-BYTERANGE, both named in §4.2's output contract.
type OutputMode int

const (
	OutputModeDiscreteFiles OutputMode = iota
	OutputModeByteRange
)

// Container selects the media container the segmenter emits.
type Container int

const (
	ContainerFMP4 Container = iota
	ContainerMPEGTS
)

// SegmentationConfig drives one call to Segment.
type SegmentationConfig struct {
	TargetDuration float64
	Container      Container
	OutputMode     OutputMode
	PlaylistType   model.PlaylistType
	URIPrefix      string
}

// Validate checks cfg's structural constraints, folding every violation
// into one hlserr.UnsupportedConfiguration error.
func (c SegmentationConfig) Validate() error {
	v := validate.New()
	v.Positive("TargetDuration", c.TargetDuration)
	if c.Container != ContainerFMP4 && c.Container != ContainerMPEGTS {
		v.AddError("Container", "must be ContainerFMP4 or ContainerMPEGTS", c.Container)
	}
	if c.OutputMode != OutputModeDiscreteFiles && c.OutputMode != OutputModeByteRange {
		v.AddError("OutputMode", "must be OutputModeDiscreteFiles or OutputModeByteRange", c.OutputMode)
	}
	return v.Err()
}

// Segment is one physical output unit: either a standalone file's worth of
// bytes (discrete-file mode) or a byte range within SingleFile (byte-range
// mode).
type Segment struct {
	Data       []byte
	ByteRange  *model.ByteRange
	Duration   float64
	Discontinuity bool
}

// SegmentationResult is the complete output of one Segment call.
type SegmentationResult struct {
	InitSegment   []byte
	Segments      []Segment
	SingleFile    []byte // populated only in OutputModeByteRange
	Playlist      *model.MediaPlaylist
	PlaylistText  string
	TotalDuration float64
}

// Segment produces init + media segments (or a single byte-range file) and
// the corresponding media playlist for one track of source, per §4.2's
// segmentation contract.
func Segment(source []byte, cfg SegmentationConfig) (*SegmentationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	boxes, err := mp4.ParseBoxes(source)
	if err != nil {
		return nil, err
	}
	info, err := mp4.ParseFileInfo(boxes)
	if err != nil {
		return nil, err
	}

	var track *mp4.Track
	for i := range info.Tracks {
		if info.Tracks[i].Kind == mp4.TrackVideo {
			track = info.Tracks[i]
			break
		}
	}
	if track == nil && len(info.Tracks) > 0 {
		track = info.Tracks[0]
	}
	if track == nil {
		return nil, hlserr.NoSegmentableTrack()
	}

	spans := PlanBoundaries(track, cfg.TargetDuration)
	if len(spans) == 0 {
		return nil, hlserr.NoSegmentableTrack()
	}

	result := &SegmentationResult{}
	playlist := &model.MediaPlaylist{PlaylistType: cfg.PlaylistType}

	switch cfg.Container {
	case ContainerFMP4:
		result.InitSegment = BuildInitSegment(info, track)
	}

	var singleFileOffset uint64
	for i, span := range spans {
		data := ExtractSpanBytes(source, track, span)
		durationSeconds := span.DurationSeconds(track.Timescale)
		result.TotalDuration += durationSeconds

		var containerBytes []byte
		switch cfg.Container {
		case ContainerFMP4:
			containerBytes = BuildMediaSegment(track, span, uint32(i+1), data)
		case ContainerMPEGTS:
			containerBytes = BuildTSSegment(false, span.StartPTS, data)
		}

		metrics.RecordSegmentProduced(containerLabel(cfg.Container), outputModeLabel(cfg.OutputMode), durationSeconds)

		seg := Segment{Data: containerBytes, Duration: durationSeconds}
		modelSeg := model.Segment{Duration: durationSeconds}

		switch cfg.OutputMode {
		case OutputModeByteRange:
			br := &model.ByteRange{Length: uint64(len(containerBytes)), Offset: singleFileOffset, HasOffset: true}
			seg.ByteRange = br
			modelSeg.ByteRange = br
			modelSeg.URI = fmt.Sprintf("%ssegment.%s", cfg.URIPrefix, containerExt(cfg.Container))
			result.SingleFile = append(result.SingleFile, containerBytes...)
			singleFileOffset += uint64(len(containerBytes))
		case OutputModeDiscreteFiles:
			modelSeg.URI = fmt.Sprintf("%ssegment%d.%s", cfg.URIPrefix, i+1, containerExt(cfg.Container))
			result.Segments = append(result.Segments, seg)
		}

		if cfg.OutputMode == OutputModeByteRange {
			result.Segments = append(result.Segments, seg)
		}

		playlist.Segments = append(playlist.Segments, modelSeg)
	}

	if cfg.Container == ContainerFMP4 {
		mapURI := fmt.Sprintf("%sinit.mp4", cfg.URIPrefix)
		playlist.Segments[0].Map = &model.MapTag{URI: mapURI}
	}

	playlist.TargetDuration = model.TargetDurationFor(playlist.Segments)
	if cfg.PlaylistType == model.PlaylistTypeVOD {
		playlist.HasEndList = true
	}

	result.Playlist = playlist
	result.PlaylistText = generator.GenerateMedia(playlist)
	return result, nil
}

func containerExt(c Container) string {
	if c == ContainerMPEGTS {
		return "ts"
	}
	return "m4s"
}

func containerLabel(c Container) string {
	if c == ContainerMPEGTS {
		return "ts"
	}
	return "fmp4"
}

func outputModeLabel(m OutputMode) string {
	if m == OutputModeByteRange {
		return "byte_range"
	}
	return "discrete"
}
