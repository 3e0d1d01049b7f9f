// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package livepipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/hlsforge/internal/encoder"
	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/keystore"
	"github.com/ManuGH/hlsforge/internal/log"
	"github.com/ManuGH/hlsforge/internal/metrics"
	"github.com/ManuGH/hlsforge/internal/validate"
)

// Config drives one Pipeline instance.
type Config struct {
	TargetDuration     float64 // seconds
	WindowSize         int     // complete segments retained; <=0 means unbounded (VOD-style)
	URIPrefix          string  // e.g. "" or "480p/"
	SegmentExt         string  // ".ts" or ".m4s"
	PlaylistType       model.PlaylistType
	IndependentSegments bool

	// LL-HLS. PartTargetDuration==0 disables partial-segment emission.
	PartTargetDuration float64
	HoldBackParts      float64 // PART-HOLD-BACK; recommended >= 3*PartTargetDuration (§3)
}

// Validate checks cfg for the structural constraints §3/§4.6 place on a
// live-pipeline configuration, folding every violation into one
// hlserr.UnsupportedConfiguration error. Callers are expected to call this
// before New; New itself does not validate, so tests can still construct
// intentionally-unusual configs without going through this gate.
func (c Config) Validate() error {
	v := validate.New()
	v.Positive("TargetDuration", c.TargetDuration)
	if c.PartTargetDuration > 0 {
		v.Positive("PartTargetDuration", c.PartTargetDuration)
		if c.PartTargetDuration > c.TargetDuration {
			v.AddError("PartTargetDuration", "must not exceed TargetDuration", c.PartTargetDuration)
		}
		v.NonNegative("HoldBackParts", c.HoldBackParts)
	}
	v.OneOf("SegmentExt", c.SegmentExt, []string{".ts", ".m4s"})
	return v.Err()
}

// Pipeline is the single-owner, mutex-guarded live pipeline actor (§5):
// AppendFrame is the only mutating entry point encoders call into, so all
// accounting (segment/partial boundaries, key rotation, window trim) is
// serialized without the caller needing to coordinate.
type Pipeline struct {
	mu sync.Mutex

	cfg    Config
	window *Window
	keys   *keystore.Manager

	segmentIndex           int
	currentSegmentDuration float64
	currentDiscontinuity   bool
	currentIsGap           bool

	currentPartialDuration float64
	currentPartials        []model.PartialSegment

	lastEmittedKey *model.EncryptionKey
}

// New constructs a Pipeline. keys may be nil, which disables encryption
// entirely (every emitted segment carries Key==nil).
func New(cfg Config, keys *keystore.Manager) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		window: NewWindow(cfg.WindowSize),
		keys:   keys,
	}
}

// SignalDiscontinuity flags the segment currently being built as starting a
// new discontinuity, emitted as #EXT-X-DISCONTINUITY ahead of it.
func (p *Pipeline) SignalDiscontinuity() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentDiscontinuity = true
}

// SignalGap flags the segment currently being built as a gap (encoder
// stall, upstream failure) per §4.7's gap-handling contract.
func (p *Pipeline) SignalGap() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentIsGap = true
}

// AppendFrame implements §4.6's three-step algorithm: accumulate duration,
// close a segment on a keyframe once the target is reached, and (if LL-HLS
// is enabled) close a partial once the part target is reached.
func (p *Pipeline) AppendFrame(f encoder.EncodedFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := f.Duration.Seconds
	p.currentSegmentDuration += d
	p.currentPartialDuration += d

	if f.IsKeyframe && p.currentSegmentDuration >= p.cfg.TargetDuration {
		if err := p.closeSegmentLocked(time.Now()); err != nil {
			return err
		}
	} else if p.cfg.PartTargetDuration > 0 && p.currentPartialDuration >= p.cfg.PartTargetDuration {
		p.closePartialLocked(f.IsKeyframe)
	}

	return nil
}

// Flush closes whatever partial segment accounting remains open without
// requiring a full target-duration segment boundary; callers use this at
// stream end so the final, necessarily-short segment is still emitted
// (§4.2: "the final segment may be shorter").
func (p *Pipeline) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentSegmentDuration <= 0 {
		return nil
	}
	return p.closeSegmentLocked(time.Now())
}

func (p *Pipeline) closeSegmentLocked(now time.Time) error {
	idx := p.segmentIndex
	p.segmentIndex++

	seg := model.Segment{
		Duration:      p.currentSegmentDuration,
		URI:           p.segmentURI(idx),
		Discontinuity: p.currentDiscontinuity,
		IsGap:         p.currentIsGap,
	}

	if p.keys != nil {
		km, rotated, err := p.keys.MaybeRotate(idx, now)
		if err != nil {
			return fmt.Errorf("key rotation: %w", err)
		}
		if rotated {
			metrics.RecordKeyRotation()
		}
		if km != nil {
			key := model.EncryptionKey{
				Method: model.MethodSampleAESCTR,
				URI:    "key://" + km.KeyID,
				IV:     km.IVHex(),
			}
			seg.Key = &key
			p.lastEmittedKey = &key
		}
	}

	evicted := p.window.Append(seg)
	for _, e := range evicted {
		log.L().Debug().
			Str("component", "livepipeline").
			Str("uri", e.URI).
			Msg("segment evicted from live window")
	}
	metrics.SetLiveWindowSize(p.cfg.URIPrefix, p.window.Len())

	p.currentSegmentDuration = 0
	p.currentDiscontinuity = false
	p.currentIsGap = false
	p.currentPartialDuration = 0
	p.currentPartials = nil

	return nil
}

func (p *Pipeline) closePartialLocked(independent bool) {
	part := model.PartialSegment{
		URI:         p.partURI(p.segmentIndex, len(p.currentPartials)),
		Duration:    p.currentPartialDuration,
		Independent: independent,
		IsGap:       p.currentIsGap,
	}
	p.currentPartials = append(p.currentPartials, part)
	p.currentPartialDuration = 0
	metrics.RecordPartialSegment(p.cfg.URIPrefix)
}

func (p *Pipeline) segmentURI(idx int) string {
	return fmt.Sprintf("%ssegment_%d%s", p.cfg.URIPrefix, idx, p.cfg.SegmentExt)
}

func (p *Pipeline) partURI(segIdx, partIdx int) string {
	return fmt.Sprintf("%ssegment_%d.part%d%s", p.cfg.URIPrefix, segIdx, partIdx, p.cfg.SegmentExt)
}

// BuildPlaylist renders the pipeline's current state as a MediaPlaylist
// model value, ready for internal/hls/generator.GenerateMedia.
func (p *Pipeline) BuildPlaylist() *model.MediaPlaylist {
	p.mu.Lock()
	defer p.mu.Unlock()

	segments := p.window.Segments()
	target := model.TargetDurationFor(segments)
	if target == 0 && p.cfg.TargetDuration > 0 {
		target = uint32(p.cfg.TargetDuration)
		if float64(target) < p.cfg.TargetDuration {
			target++
		}
	}

	pl := &model.MediaPlaylist{
		TargetDuration:        target,
		MediaSequence:         p.window.MediaSequence(),
		DiscontinuitySequence: p.window.DiscontinuitySequence(),
		PlaylistType:          p.cfg.PlaylistType,
		IndependentSegments:   p.cfg.IndependentSegments,
		Segments:              segments,
	}

	if p.cfg.PartTargetDuration > 0 {
		partTarget := p.cfg.PartTargetDuration
		pl.PartTargetDuration = &partTarget
		holdBack := p.cfg.HoldBackParts
		if holdBack == 0 {
			holdBack = 3 * partTarget
		}
		pl.ServerControl = &model.ServerControl{
			CanBlockReload: true,
			PartHoldBack:   &holdBack,
		}
		pl.PartialSegments = append([]model.PartialSegment(nil), p.currentPartials...)
		if p.currentPartialDuration > 0 {
			next := p.partURI(p.segmentIndex, len(p.currentPartials))
			pl.PreloadHints = []model.PreloadHint{{Type: "PART", URI: next}}
		}
	}

	return pl
}

// WindowSnapshot reports the pipeline's current window accounting without
// materializing a full playlist, for cheap diagnostics polling.
func (p *Pipeline) WindowSnapshot() (segmentsInWindow int, mediaSequence, discontinuitySequence uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window.Len(), p.window.MediaSequence(), p.window.DiscontinuitySequence()
}
