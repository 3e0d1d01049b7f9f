package mp4

import (
	"testing"

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

func buildMinimalMoov(t *testing.T) []byte {
	t.Helper()

	tkhdBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(0) // creation_time
		w.WriteUint32(0) // modification_time
		w.WriteUint32(1) // track_id
		w.WriteBytes(make([]byte, 60))
		return w.Bytes()
	}())

	mdhdBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(0)     // creation_time
		w.WriteUint32(0)     // modification_time
		w.WriteUint32(90000) // timescale
		w.WriteUint32(9000)  // duration
		w.WriteUint16(0)     // language: unspecified
		w.WriteUint16(0)     // pre_defined
		return w.Bytes()
	}())

	hdlrBody := func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(0) // version/flags
		w.WriteUint32(0) // pre_defined
		var fcc bitio.FourCC
		copy(fcc[:], "vide")
		w.WriteFourCC(fcc)
		w.WriteBytes(make([]byte, 12))
		return w.Bytes()
	}()

	sttsBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1)    // entry_count
		w.WriteUint32(10)   // sample_count
		w.WriteUint32(3000) // sample_delta
		return w.Bytes()
	}())

	stssBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(2) // entry_count
		w.WriteUint32(1)
		w.WriteUint32(6)
		return w.Bytes()
	}())

	stszBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1000) // uniform sample_size
		w.WriteUint32(10)   // sample_count
		return w.Bytes()
	}())

	stscBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1) // entry_count
		w.WriteUint32(1)
		w.WriteUint32(10)
		w.WriteUint32(1)
		return w.Bytes()
	}())

	stcoBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1) // entry_count
		w.WriteUint32(100)
		return w.Bytes()
	}())

	stsdBody := fullBox(0, 0, func() []byte {
		w := bitio.NewWriter()
		w.WriteUint32(1) // entry_count
		w.WriteUint32(16)
		var fcc bitio.FourCC
		copy(fcc[:], "avc1")
		w.WriteFourCC(fcc)
		w.WriteBytes(make([]byte, 4))
		return w.Bytes()
	}())

	stbl := box("stts", sttsBody)
	stbl = append(stbl, box("stss", stssBody)...)
	stbl = append(stbl, box("stsz", stszBody)...)
	stbl = append(stbl, box("stsc", stscBody)...)
	stbl = append(stbl, box("stco", stcoBody)...)
	stbl = append(stbl, box("stsd", stsdBody)...)

	minf := box("stbl", stbl)
	mdia := box("mdhd", mdhdBody)
	mdia = append(mdia, box("hdlr", hdlrBody)...)
	mdia = append(mdia, box("minf", minf)...)

	trak := box("tkhd", tkhdBody)
	trak = append(trak, box("mdia", mdia)...)

	moov := box("trak", trak)
	return box("moov", moov)
}

func TestParseFileInfo(t *testing.T) {
	ftyp := box("ftyp", func() []byte {
		w := bitio.NewWriter()
		var major bitio.FourCC
		copy(major[:], "isom")
		w.WriteFourCC(major)
		w.WriteUint32(512)
		var c bitio.FourCC
		copy(c[:], "iso5")
		w.WriteFourCC(c)
		return w.Bytes()
	}())

	buf := append(ftyp, buildMinimalMoov(t)...)

	boxes, err := ParseBoxes(buf)
	if err != nil {
		t.Fatalf("ParseBoxes: %v", err)
	}

	info, err := ParseFileInfo(boxes)
	if err != nil {
		t.Fatalf("ParseFileInfo: %v", err)
	}

	if info.MajorBrand != "isom" {
		t.Errorf("MajorBrand = %q", info.MajorBrand)
	}
	if len(info.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(info.Tracks))
	}

	tr := info.Tracks[0]
	if tr.Kind != TrackVideo {
		t.Errorf("Kind = %v, want TrackVideo", tr.Kind)
	}
	if tr.Timescale != 90000 {
		t.Errorf("Timescale = %d", tr.Timescale)
	}
	if tr.CodecFourCC != "avc1" {
		t.Errorf("CodecFourCC = %q", tr.CodecFourCC)
	}
	if !tr.IsSync(1) || !tr.IsSync(6) {
		t.Errorf("expected samples 1 and 6 to be sync samples")
	}
	if tr.IsSync(2) {
		t.Errorf("sample 2 should not be a sync sample")
	}
	durations := tr.SampleDurations()
	if len(durations) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(durations))
	}
	for _, d := range durations {
		if d != 3000 {
			t.Errorf("sample delta = %d, want 3000", d)
		}
	}
	if len(tr.ChunkOffsets) != 1 || tr.ChunkOffsets[0] != 100 {
		t.Errorf("ChunkOffsets = %v", tr.ChunkOffsets)
	}
}

func TestParseBoxesExtendedSize(t *testing.T) {
	payload := make([]byte, 20)
	w := bitio.NewWriter()
	w.WriteUint32(1) // extended-size marker
	var fcc bitio.FourCC
	copy(fcc[:], "mdat")
	w.WriteFourCC(fcc)
	w.WriteUint64(uint64(16 + len(payload)))
	w.WriteBytes(payload)

	boxes, err := ParseBoxes(w.Bytes())
	if err != nil {
		t.Fatalf("ParseBoxes: %v", err)
	}
	if len(boxes) != 1 || boxes[0].Type.String() != "mdat" {
		t.Fatalf("unexpected boxes: %+v", boxes)
	}
	if len(boxes[0].Payload) != 20 {
		t.Errorf("payload len = %d, want 20", len(boxes[0].Payload))
	}
}

func TestParseBoxesTruncatedFails(t *testing.T) {
	buf := []byte{0, 0, 0, 100, 'm', 'o', 'o', 'v'} // claims 100 bytes, has none
	if _, err := ParseBoxes(buf); err == nil {
		t.Fatal("expected error for truncated box")
	}
}

func TestParseFileInfoEmptyInput(t *testing.T) {
	if _, err := ParseFileInfo(nil); err == nil {
		t.Fatal("expected EmptyInput error")
	}
}
