// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bitio provides big-endian primitives for reading and writing the
// fixed-width integers, FourCCs, and 16.16 fixed-point values that ISO-BMFF
// and MPEG-TS encode on the wire, plus a bounded cursor for walking a byte
// slice without ever reading past its end.
package bitio

import (
	"encoding/binary"

	"github.com/ManuGH/hlsforge/internal/hlserr"
)

// FourCC is a four-character box/stream type code, e.g. "moov", "trak".
type FourCC [4]byte

func (f FourCC) String() string { return string(f[:]) }

// Reader is a bounded cursor over a byte slice. Every Read* method advances
// the cursor and fails with hlserr.UnexpectedEOF if the requested width
// would read past the end of the buffer; it never panics on adversarial
// input.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Pos() int       { return r.pos }
func (r *Reader) Len() int       { return len(r.buf) }
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) require(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return hlserr.UnexpectedEOF()
	}
	return nil
}

func (r *Reader) Skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *Reader) ReadN(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.ReadN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) ReadUint24() (uint32, error) {
	b, err := r.ReadN(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) ReadFourCC() (FourCC, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return FourCC{}, err
	}
	var f FourCC
	copy(f[:], b)
	return f, nil
}

// ReadFixed16_16 reads a 32-bit 16.16 fixed-point value and returns it as a
// float64 (e.g. QuickTime's "Fixed" type used by mvhd/tkhd rate & volume... fields).
func (r *Reader) ReadFixed16_16() (float64, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return float64(v) / 65536.0, nil
}

// Writer accumulates big-endian bytes into a growable buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) WriteUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteFourCC(f FourCC) { w.buf = append(w.buf, f[:]...) }

func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) WriteFixed16_16(v float64) {
	w.WriteUint32(uint32(v * 65536.0))
}
