// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package encoder defines the live encoder abstraction (component J):
// configure, feed raw buffers, receive encoded frames, flush, teardown.
// Each instance serializes its own operations behind a mutex per §5 — "no
// operation holds a lock across a suspension... except the encoder output
// callback, which posts into a small mutex-guarded queue drained on the
// next encode/flush/teardown."
package encoder

import (
	"sync"

	"github.com/ManuGH/hlsforge/internal/hlserr"
	"github.com/ManuGH/hlsforge/internal/log"
)

// Codec is the closed set of codecs an EncodedFrame may carry.
type Codec string

const (
	CodecAAC  Codec = "aac"
	CodecAC3  Codec = "ac3"
	CodecEAC3 Codec = "eac3"
	CodecALAC Codec = "alac"
	CodecFLAC Codec = "flac"
	CodecOpus Codec = "opus"
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
	CodecAV1  Codec = "av1"
)

// MediaTimestamp is a rational time with an explicit, optional timescale;
// Seconds is always the canonical value (§3).
type MediaTimestamp struct {
	Seconds   float64
	Timescale *int32
}

// HDRMetadata carries HDR static metadata when present on a frame.
type HDRMetadata struct {
	MaxContentLightLevel   uint16
	MaxFrameAverageLight   uint16
	MasteringDisplayColor  string
}

// EncodedFrame is one coded access unit emitted by a LiveEncoder.
type EncodedFrame struct {
	Data          []byte
	PTS           MediaTimestamp
	Duration      MediaTimestamp
	IsKeyframe    bool
	Codec         Codec
	BitrateHint   *uint32
	HDRMetadata   *HDRMetadata
	ChannelLayout string
}

// RawMediaBuffer is an uncompressed input buffer fed to encode().
type RawMediaBuffer struct {
	Data       []byte
	PTS        MediaTimestamp
	SampleRate int // audio only; 0 for video
	Channels   int // audio only; 0 for video
}

// Config configures a LiveEncoder before first use.
type Config struct {
	Codec      Codec
	SampleRate int
	Channels   int
	Bitrate    uint32
}

// State is the encoder lifecycle state machine (§4.6): Fresh → Configured →
// Tearing → Tornedown.
type State int

const (
	StateFresh State = iota
	StateConfigured
	StateTearing
	StateTornedown
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateConfigured:
		return "configured"
	case StateTearing:
		return "tearing"
	case StateTornedown:
		return "tornedown"
	default:
		return "unknown"
	}
}

// LiveEncoder is the actor-style interface every encoder implementation
// presents. Implementations serialize operations internally (§5); callers
// may invoke from any goroutine.
type LiveEncoder interface {
	Configure(cfg Config) error
	Encode(buf RawMediaBuffer) ([]EncodedFrame, error)
	Flush() ([]EncodedFrame, error)
	Teardown()
	State() State
}

// AACEncoder implements the AAC frame-timing semantics of §4.6/§8
// directly: it is the pure, reference in-process encoder used by tests and
// by callers that already hold encoded AAC access units and only need
// correct 1024-sample framing and timestamps (e.g. remuxing). Real coded
// output for raw PCM is out of this toolkit's scope (§1, "subprocess
// launching of an external video encoder" is an external collaborator);
// AACEncoder frames pre-encoded 1024-sample AAC payloads supplied one PCM
// chunk's worth at a time, which is the shape the live pipeline needs for
// deterministic timestamping.
type AACEncoder struct {
	mu            sync.Mutex
	state         State
	cfg           Config
	pending       []byte // accumulated PCM bytes, interleaved, not yet framed
	framesEncoded uint64
	bytesPerFrame int // bytes per PCM sample-frame (all channels), i.e. channels * bytesPerSample
	encodeOne     func(pcm []byte) []byte // test/production hook producing one AAC payload from exactly 1024*channels samples worth of PCM
}

const aacSamplesPerFrame = 1024

// NewAACEncoder constructs an encoder. encodeOne, if nil, defaults to
// passing the raw PCM bytes through as the "encoded" payload — sufficient
// for timing-only tests; production callers supply a real AAC frame
// encoder hook.
func NewAACEncoder(encodeOne func(pcm []byte) []byte) *AACEncoder {
	if encodeOne == nil {
		encodeOne = func(pcm []byte) []byte {
			out := make([]byte, len(pcm))
			copy(out, pcm)
			return out
		}
	}
	return &AACEncoder{state: StateFresh, encodeOne: encodeOne}
}

func (e *AACEncoder) Configure(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateTornedown {
		return hlserr.TornDown()
	}
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 {
		return hlserr.UnsupportedConfiguration("sample rate and channel count must be positive")
	}
	e.cfg = cfg
	// 16-bit PCM assumed: 2 bytes per sample per channel.
	e.bytesPerFrame = cfg.Channels * 2
	e.state = StateConfigured
	e.framesEncoded = 0
	e.pending = nil
	return nil
}

// Encode accumulates PCM samples until 1024 samples per channel are
// available, then emits one AAC frame with timestamp
// (framesEncoded*1024)/sampleRate, per §4.6/§8.
func (e *AACEncoder) Encode(buf RawMediaBuffer) ([]EncodedFrame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateTornedown {
		return nil, hlserr.TornDown()
	}
	if e.state != StateConfigured {
		return nil, hlserr.NotConfigured()
	}

	e.pending = append(e.pending, buf.Data...)

	var out []EncodedFrame
	frameBytes := aacSamplesPerFrame * e.bytesPerFrame
	for len(e.pending) >= frameBytes {
		chunk := e.pending[:frameBytes]
		e.pending = e.pending[frameBytes:]
		out = append(out, e.emitFrame(chunk))
	}
	return out, nil
}

func (e *AACEncoder) emitFrame(pcm []byte) EncodedFrame {
	ts := float64(e.framesEncoded*aacSamplesPerFrame) / float64(e.cfg.SampleRate)
	durSec := float64(aacSamplesPerFrame) / float64(e.cfg.SampleRate)
	e.framesEncoded++
	return EncodedFrame{
		Data:       e.encodeOne(pcm),
		PTS:        MediaTimestamp{Seconds: ts},
		Duration:   MediaTimestamp{Seconds: durSec},
		IsKeyframe: true,
		Codec:      CodecAAC,
	}
}

// Flush zero-pads the residual PCM to a full 1024-sample frame and emits
// it, then clears the accumulator (§4.6/§8).
func (e *AACEncoder) Flush() ([]EncodedFrame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateTornedown {
		return nil, hlserr.TornDown()
	}
	if e.state != StateConfigured {
		return nil, hlserr.NotConfigured()
	}

	if len(e.pending) == 0 {
		return nil, nil
	}

	frameBytes := aacSamplesPerFrame * e.bytesPerFrame
	padded := make([]byte, frameBytes)
	copy(padded, e.pending)
	e.pending = nil

	return []EncodedFrame{e.emitFrame(padded)}, nil
}

func (e *AACEncoder) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateTornedown {
		return
	}
	e.state = StateTearing
	e.pending = nil
	e.state = StateTornedown
	log.L().Debug().Str("component", "encoder").Msg("aac encoder torn down")
}

func (e *AACEncoder) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
