// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mp4 walks the ISO-BMFF box tree of an MP4/fMP4 input and extracts
// track, sample-table, and timing information needed to drive segmentation.
package mp4

import (
	"github.com/ManuGH/hlsforge/internal/bitio"
	"github.com/ManuGH/hlsforge/internal/hlserr"
)

// Box is one node of the ISO-BMFF box tree. Container boxes carry Children;
// leaf boxes carry Payload (the box body, excluding header, preserved even
// for unrecognized types).
type Box struct {
	Type     bitio.FourCC
	Size     uint64 // full box size including header
	Offset   uint64 // offset of the box header within the stream
	HeaderSz int    // header length in bytes (8, 16, or +16 for extended uuid, unused here)

	Payload  []byte // leaf payload, nil for container boxes
	Children []*Box // child boxes, nil for leaf boxes
}

// containerTypes lists box types whose payload is itself a sequence of
// child boxes, per §4.1.
var containerTypes = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"moof": true,
	"traf": true,
	"edts": true,
	"dinf": true,
}

// ParseBoxes walks a flat sequence of boxes (used both at top level and
// recursively for container payloads).
func ParseBoxes(buf []byte) ([]*Box, error) {
	var boxes []*Box
	r := bitio.NewReader(buf)
	baseOffset := uint64(0)

	for r.Remaining() > 0 {
		if r.Remaining() < 8 {
			return nil, hlserr.UnexpectedEOF()
		}
		start := r.Pos()
		size32, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		typ, err := r.ReadFourCC()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}

		headerSz := 8
		var size uint64
		switch size32 {
		case 0:
			// "to EOF": payload runs to the end of the buffer.
			size = uint64(len(buf)-start)
		case 1:
			if r.Remaining() < 8 {
				return nil, hlserr.UnexpectedEOF()
			}
			size, err = r.ReadUint64()
			if err != nil {
				return nil, hlserr.UnexpectedEOF()
			}
			headerSz = 16
		default:
			size = uint64(size32)
		}

		if size < uint64(headerSz) {
			return nil, hlserr.MalformedContainer("box size smaller than header")
		}

		payloadLen := int(size) - headerSz
		if payloadLen < 0 || start+headerSz+payloadLen > len(buf) {
			return nil, hlserr.UnexpectedEOF()
		}

		payload, err := r.ReadN(payloadLen)
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}

		box := &Box{
			Type:     typ,
			Size:     size,
			Offset:   baseOffset + uint64(start),
			HeaderSz: headerSz,
		}

		if containerTypes[typ.String()] {
			children, err := ParseBoxes(payload)
			if err != nil {
				return nil, err
			}
			box.Children = children
		} else {
			box.Payload = payload
		}

		boxes = append(boxes, box)
	}

	return boxes, nil
}

// Find returns the first direct child of type t, or nil.
func (b *Box) Find(t string) *Box {
	for _, c := range b.Children {
		if c.Type.String() == t {
			return c
		}
	}
	return nil
}

// FindAll returns every direct child of type t.
func (b *Box) FindAll(t string) []*Box {
	var out []*Box
	for _, c := range b.Children {
		if c.Type.String() == t {
			out = append(out, c)
		}
	}
	return out
}

// FindPath walks a dotted path of box types from a root box list, e.g.
// FindPath(boxes, "moov", "trak") returns every trak under moov.
func FindPath(boxes []*Box, path ...string) []*Box {
	cur := boxes
	for i, p := range path {
		var next []*Box
		for _, b := range cur {
			if b.Type.String() == p {
				if i == len(path)-1 {
					next = append(next, b)
				} else {
					next = append(next, b.Children...)
				}
			}
		}
		cur = next
		if cur == nil {
			return nil
		}
	}
	return cur
}
