// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package segmenter

import (
	"github.com/ManuGH/hlsforge/internal/bitio"
)

func box(typ string, payload []byte) []byte {
	w := bitio.NewWriter()
	var fcc bitio.FourCC
	copy(fcc[:], typ)
	w.WriteUint32(uint32(8 + len(payload)))
	w.WriteFourCC(fcc)
	w.WriteBytes(payload)
	return w.Bytes()
}

func fullBox(version uint8, flags uint32, body []byte) []byte {
	w := bitio.NewWriter()
	w.WriteUint32(uint32(version)<<24 | flags)
	w.WriteBytes(body)
	return w.Bytes()
}

// SyntheticFMP4Fixture builds a single-video-track fMP4 source with
// sampleCount one-tick samples at the given timescale, sampleBytes bytes
// per sample (one chunk), and sync samples at the given 1-based sample
// numbers. It exists so both this package's own boundary/segmentation
// tests and other packages exercising the segmenter end-to-end (the vod
// packaging manager) can build a minimal, valid MP4 without each
// reimplementing ISO-BMFF box construction.
func SyntheticFMP4Fixture(sampleCount, sampleBytes int, timescale uint32, syncSamples []uint32) []byte {
	ftyp := box("ftyp", func() []byte {
		w := bitio.NewWriter()
		var major bitio.FourCC
		copy(major[:], "isom")
		w.WriteFourCC(major)
		w.WriteUint32(512)
		return w.Bytes()
	}())

	tkhdBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(0)
		w.WriteUint32(0)
		w.WriteUint32(1) // track_id
		w.WriteBytes(make([]byte, 60))
		return w.Bytes()
	}())

	mdhdBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(0)
		w.WriteUint32(0)
		w.WriteUint32(timescale)
		w.WriteUint32(uint32(sampleCount))
		w.WriteUint16(0)
		w.WriteUint16(0)
		return w.Bytes()
	}())

	hdlrBody := func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(0)
		w.WriteUint32(0)
		var fcc bitio.FourCC
		copy(fcc[:], "vide")
		w.WriteFourCC(fcc)
		w.WriteBytes(make([]byte, 12))
		return w.Bytes()
	}()

	sttsBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1)
		w.WriteUint32(uint32(sampleCount))
		w.WriteUint32(1) // sample_delta: 1 tick each
		return w.Bytes()
	}())

	var stssBody []byte
	if len(syncSamples) > 0 {
		stssBody = fullBox(0, 0, func() []byte {
			w := bitio.NewWriter()
			w.WriteUint32(uint32(len(syncSamples)))
			for _, s := range syncSamples {
				w.WriteUint32(s)
			}
			return w.Bytes()
		}())
	}

	stszBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(uint32(sampleBytes))
		w.WriteUint32(uint32(sampleCount))
		return w.Bytes()
	}())

	stscBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1)
		w.WriteUint32(1)
		w.WriteUint32(uint32(sampleCount))
		w.WriteUint32(1)
		return w.Bytes()
	}())

	stsdBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1)
		w.WriteUint32(16)
		var fcc bitio.FourCC
		copy(fcc[:], "avc1")
		w.WriteFourCC(fcc)
		w.WriteBytes(make([]byte, 4))
		return w.Bytes()
	}())

	sampleData := make([]byte, sampleBytes*sampleCount)
	for i := range sampleData {
		sampleData[i] = byte(i % 251)
	}
	mdat := box("mdat", sampleData)

	// moov's size is fixed regardless of stco's value (both are 4-byte
	// uint32 entries), so the mdat payload offset can be computed from an
	// arbitrary placeholder stco and then patched in place.
	buildMoov := func(stcoOffset uint32) []byte {
		stbl := box("stts", sttsBody)
		if stssBody != nil {
			stbl = append(stbl, box("stss", stssBody)...)
		}
		stbl = append(stbl, box("stsz", stszBody)...)
		stbl = append(stbl, box("stsc", stscBody)...)
		stbl = append(stbl, box("stsd", stsdBody)...)
		stcoBody := fullBox(0, 0, func() []byte {
			w := bitio.NewWriter()
			w.WriteUint32(1)
			w.WriteUint32(stcoOffset)
			return w.Bytes()
		}())
		stbl = append(stbl, box("stco", stcoBody)...)
		minf := box("minf", box("stbl", stbl))
		mdia := box("mdhd", mdhdBody)
		mdia = append(mdia, box("hdlr", hdlrBody)...)
		mdia = append(mdia, minf...)
		trak := box("tkhd", tkhdBody)
		trak = append(trak, box("mdia", mdia)...)
		return box("moov", box("trak", trak))
	}

	moov := buildMoov(0)
	mdatPayloadOffset := uint32(len(ftyp) + len(moov) + 8)
	moov = buildMoov(mdatPayloadOffset)

	buf := append([]byte{}, ftyp...)
	buf = append(buf, moov...)
	buf = append(buf, mdat...)
	return buf
}
