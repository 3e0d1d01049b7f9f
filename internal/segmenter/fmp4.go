// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package segmenter

import (
	"github.com/ManuGH/hlsforge/internal/bitio"
	"github.com/ManuGH/hlsforge/internal/mp4"
)

func writeBox(typ string, payload []byte) []byte {
	var fcc bitio.FourCC
	copy(fcc[:], typ)
	w := bitio.NewWriter()
	w.WriteUint32(uint32(8 + len(payload)))
	w.WriteFourCC(fcc)
	w.WriteBytes(payload)
	return w.Bytes()
}

func fullBoxHeader(version uint8, flags uint32) []byte {
	w := bitio.NewWriter()
	w.WriteUint32(uint32(version)<<24 | flags)
	return w.Bytes()
}

// BuildInitSegment produces `ftyp` + a `moov` stripped of sample tables,
// per §4.2's fMP4 output contract: "Produce an initialization segment
// containing ftyp + a moov stripped of sample tables."
func BuildInitSegment(info *mp4.FileInfo, track *mp4.Track) []byte {
	ftypPayload := bitio.NewWriter()
	var major bitio.FourCC
	copy(major[:], "iso5")
	if info.MajorBrand != "" {
		copy(major[:], info.MajorBrand)
	}
	ftypPayload.WriteFourCC(major)
	ftypPayload.WriteUint32(0)
	for _, brand := range []string{"iso5", "iso6", "mp41"} {
		var b bitio.FourCC
		copy(b[:], brand)
		ftypPayload.WriteFourCC(b)
	}
	ftyp := writeBox("ftyp", ftypPayload.Bytes())

	mvhd := buildMvhd(track.Timescale)
	trak := buildStrippedTrak(track)
	mvex := buildMvex(track.ID)

	var moovPayload []byte
	moovPayload = append(moovPayload, mvhd...)
	moovPayload = append(moovPayload, trak...)
	moovPayload = append(moovPayload, mvex...)
	moov := writeBox("moov", moovPayload)

	out := make([]byte, 0, len(ftyp)+len(moov))
	out = append(out, ftyp...)
	out = append(out, moov...)
	return out
}

func buildMvhd(timescale uint32) []byte {
	w := bitio.NewWriter()
	w.WriteBytes(fullBoxHeader(0, 0))
	w.WriteUint32(0) // creation_time
	w.WriteUint32(0) // modification_time
	w.WriteUint32(timescale)
	w.WriteUint32(0) // duration: unknown for fragmented content
	w.WriteFixed16_16(1.0)
	w.WriteUint16(0x0100) // volume
	w.WriteUint16(0)      // reserved
	w.WriteBytes(make([]byte, 8))
	// unity matrix
	matrix := []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
	for _, m := range matrix {
		w.WriteUint32(m)
	}
	w.WriteBytes(make([]byte, 24)) // pre_defined
	w.WriteUint32(0xFFFFFFFF)      // next_track_ID placeholder
	return writeBox("mvhd", w.Bytes())
}

func buildStrippedTrak(track *mp4.Track) []byte {
	tkhd := func() []byte {
		w := bitio.NewWriter()
		w.WriteBytes(fullBoxHeader(0, 0x7)) // enabled, in movie, in preview
		w.WriteUint32(0)
		w.WriteUint32(0)
		w.WriteUint32(track.ID)
		w.WriteUint32(0) // reserved
		w.WriteUint32(0) // duration
		w.WriteBytes(make([]byte, 8))
		w.WriteUint16(0) // layer
		w.WriteUint16(0) // alternate_group
		w.WriteUint16(0) // volume
		w.WriteUint16(0)
		matrix := []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
		for _, m := range matrix {
			w.WriteUint32(m)
		}
		w.WriteUint32(0) // width (fixed point, unknown here)
		w.WriteUint32(0) // height
		return writeBox("tkhd", w.Bytes())
	}()

	mdhd := func() []byte {
		w := bitio.NewWriter()
		w.WriteBytes(fullBoxHeader(0, 0))
		w.WriteUint32(0)
		w.WriteUint32(0)
		w.WriteUint32(track.Timescale)
		w.WriteUint32(0) // duration unknown in init segment
		w.WriteUint16(0) // language unspecified
		w.WriteUint16(0)
		return writeBox("mdhd", w.Bytes())
	}()

	hdlrType := "vide"
	if track.Kind == mp4.TrackAudio {
		hdlrType = "soun"
	}
	hdlr := func() []byte {
		w := bitio.NewWriter()
		w.WriteBytes(fullBoxHeader(0, 0))
		w.WriteUint32(0)
		var fcc bitio.FourCC
		copy(fcc[:], hdlrType)
		w.WriteFourCC(fcc)
		w.WriteBytes(make([]byte, 12))
		return writeBox("hdlr", w.Bytes())
	}()

	// stbl carries only an empty stsd reference and empty tables: "stripped
	// of sample tables" per §4.2.
	stsd := writeBox("stsd", append(fullBoxHeader(0, 0), []byte{0, 0, 0, 0}...))
	emptyStts := writeBox("stts", append(fullBoxHeader(0, 0), []byte{0, 0, 0, 0}...))
	emptyStsc := writeBox("stsc", append(fullBoxHeader(0, 0), []byte{0, 0, 0, 0}...))
	emptyStsz := writeBox("stsz", append(fullBoxHeader(0, 0), []byte{0, 0, 0, 0, 0, 0, 0, 0}...))
	emptyStco := writeBox("stco", append(fullBoxHeader(0, 0), []byte{0, 0, 0, 0}...))

	var stblPayload []byte
	stblPayload = append(stblPayload, stsd...)
	stblPayload = append(stblPayload, emptyStts...)
	stblPayload = append(stblPayload, emptyStsc...)
	stblPayload = append(stblPayload, emptyStsz...)
	stblPayload = append(stblPayload, emptyStco...)
	stbl := writeBox("stbl", stblPayload)

	minf := writeBox("minf", stbl)

	var mdiaPayload []byte
	mdiaPayload = append(mdiaPayload, mdhd...)
	mdiaPayload = append(mdiaPayload, hdlr...)
	mdiaPayload = append(mdiaPayload, minf...)
	mdia := writeBox("mdia", mdiaPayload)

	var trakPayload []byte
	trakPayload = append(trakPayload, tkhd...)
	trakPayload = append(trakPayload, mdia...)
	return writeBox("trak", trakPayload)
}

func buildMvex(trackID uint32) []byte {
	trex := func() []byte {
		w := bitio.NewWriter()
		w.WriteBytes(fullBoxHeader(0, 0))
		w.WriteUint32(trackID)
		w.WriteUint32(1) // default_sample_description_index
		w.WriteUint32(0) // default_sample_duration
		w.WriteUint32(0) // default_sample_size
		w.WriteUint32(0) // default_sample_flags
		return writeBox("trex", w.Bytes())
	}()
	return writeBox("mvex", trex)
}

// BuildMediaSegment produces one `moof` + `mdat` pair for span, with
// mfhd.sequence_number one-based and monotonically increasing per §4.2/§6.
func BuildMediaSegment(track *mp4.Track, span SampleSpan, sequenceNumber uint32, sampleData []byte) []byte {
	mfhd := func() []byte {
		w := bitio.NewWriter()
		w.WriteBytes(fullBoxHeader(0, 0))
		w.WriteUint32(sequenceNumber)
		return writeBox("mfhd", w.Bytes())
	}()

	tfhd := func() []byte {
		w := bitio.NewWriter()
		// flags 0x020000: default-base-is-moof
		w.WriteBytes(fullBoxHeader(0, 0x020000))
		w.WriteUint32(track.ID)
		return writeBox("tfhd", w.Bytes())
	}()

	tfdt := func() []byte {
		w := bitio.NewWriter()
		w.WriteBytes(fullBoxHeader(1, 0))
		w.WriteUint64(span.StartPTS)
		return writeBox("tfdt", w.Bytes())
	}()

	trunBody := func() []byte {
		w := bitio.NewWriter()
		// flags: data-offset-present(0x1) | first-sample-flags-present(0x4) |
		// sample-duration-present(0x100) | sample-size-present(0x200)
		w.WriteBytes(fullBoxHeader(0, 0x301|0x4))
		w.WriteUint32(span.Count)
		w.WriteUint32(0) // data_offset, patched below once moof's total size is known
		firstSampleFlags := uint32(0x00010000) // sample_is_non_sync_sample=1
		if span.IsKeyframeStart {
			firstSampleFlags = 0x02000000 // sample_depends_on=2 (depends on no other sample), sync sample
		}
		w.WriteUint32(firstSampleFlags)
		avgDuration := uint32(0)
		if span.Count > 0 {
			avgDuration = uint32(span.DurationTicks / uint64(span.Count))
		}
		sizePerSample := uint32(0)
		if span.Count > 0 && len(sampleData) > 0 {
			sizePerSample = uint32(len(sampleData)) / span.Count
		}
		for i := uint32(0); i < span.Count; i++ {
			w.WriteUint32(avgDuration)
			w.WriteUint32(sizePerSample)
		}
		return w.Bytes()
	}()
	trun := writeBox("trun", trunBody)

	var trafPayload []byte
	trafPayload = append(trafPayload, tfhd...)
	trafPayload = append(trafPayload, tfdt...)
	trafPayload = append(trafPayload, trun...)
	traf := writeBox("traf", trafPayload)

	var moofPayload []byte
	moofPayload = append(moofPayload, mfhd...)
	moofPayload = append(moofPayload, traf...)
	moof := writeBox("moof", moofPayload)

	// data_offset is the byte distance from the start of moof to the first
	// sample's data, which immediately follows moof's own 8-byte mdat header.
	dataOffset := uint32(len(moof) + 8)
	// trun's data_offset field sits 8 (box header) + 4 (full-box header) +
	// 4 (sample_count) bytes into trun, which itself starts at
	// len(moof) - len(trun) within the assembled moof buffer.
	trunStart := len(moof) - len(trun)
	dataOffsetPos := trunStart + 8 + 4 + 4
	binaryBigEndianPutUint32(moof[dataOffsetPos:dataOffsetPos+4], dataOffset)

	mdat := writeBox("mdat", sampleData)

	out := make([]byte, 0, len(moof)+len(mdat))
	out = append(out, moof...)
	out = append(out, mdat...)
	return out
}

func binaryBigEndianPutUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
