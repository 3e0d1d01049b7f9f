// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mp4

import (
	"github.com/ManuGH/hlsforge/internal/bitio"
	"github.com/ManuGH/hlsforge/internal/hlserr"
)

// TrackKind classifies a track by its hdlr.handler_type, per §4.1:
// "vide → video, soun → audio, other → unknown".
type TrackKind int

const (
	TrackUnknown TrackKind = iota
	TrackVideo
	TrackAudio
)

// SttsEntry is one run-length entry of the time-to-sample table: Count
// consecutive samples each lasting Delta ticks of the track timescale.
type SttsEntry struct {
	Count uint32
	Delta uint32
}

// StscEntry maps a run of chunks (starting at FirstChunk, 1-based) to a
// fixed SamplesPerChunk using the sample-description index SampleDescIdx.
type StscEntry struct {
	FirstChunk       uint32
	SamplesPerChunk  uint32
	SampleDescIdx    uint32
}

// Track holds everything the segmenter needs from one moov/trak.
type Track struct {
	ID        uint32
	Kind      TrackKind
	Timescale uint32
	Duration  uint64 // in Timescale units
	Language  string // BCP-47-ish decoded from the packed ISO-639-2 field; "" if unspecified
	CodecFourCC string

	// Sample tables, §4.1.
	TimeToSample    []SttsEntry
	SyncSamples     []uint32 // 1-based sample numbers present in stss; nil means "no stss: every sample is independent"
	HasSyncTable    bool
	SampleSizes     []uint32 // per-sample size; if uniform, all entries equal the single stsz sample_size
	ChunkToSample   []StscEntry
	ChunkOffsets    []uint64 // stco (32-bit) or co64 (64-bit), normalized to uint64
}

// FileInfo is the top-level parse result, §4.1's `FileInfo {brands, tracks}`.
type FileInfo struct {
	MajorBrand       string
	CompatibleBrands []string
	Tracks           []*Track
}

// ParseFileInfo walks a top-level box list (as produced by ParseBoxes) and
// extracts track metadata. It never panics; malformed structure surfaces as
// a *hlserr.Error.
func ParseFileInfo(boxes []*Box) (*FileInfo, error) {
	if len(boxes) == 0 {
		return nil, hlserr.EmptyInput()
	}

	info := &FileInfo{}

	if ftyp := findTop(boxes, "ftyp"); ftyp != nil {
		brand, compat, err := parseFtyp(ftyp)
		if err != nil {
			return nil, err
		}
		info.MajorBrand = brand
		info.CompatibleBrands = compat
	}

	moov := findTop(boxes, "moov")
	if moov == nil {
		return nil, hlserr.MissingBox("moov")
	}

	for _, trak := range moov.FindAll("trak") {
		track, err := parseTrak(trak)
		if err != nil {
			return nil, err
		}
		info.Tracks = append(info.Tracks, track)
	}

	return info, nil
}

func findTop(boxes []*Box, t string) *Box {
	for _, b := range boxes {
		if b.Type.String() == t {
			return b
		}
	}
	return nil
}

func parseFtyp(b *Box) (string, []string, error) {
	r := bitio.NewReader(b.Payload)
	major, err := r.ReadFourCC()
	if err != nil {
		return "", nil, hlserr.UnexpectedEOF()
	}
	if _, err := r.ReadUint32(); err != nil { // minor_version
		return "", nil, hlserr.UnexpectedEOF()
	}
	var compat []string
	for r.Remaining() >= 4 {
		cc, err := r.ReadFourCC()
		if err != nil {
			return "", nil, hlserr.UnexpectedEOF()
		}
		compat = append(compat, cc.String())
	}
	return major.String(), compat, nil
}

func parseTrak(trak *Box) (*Track, error) {
	tkhd := trak.Find("tkhd")
	if tkhd == nil {
		return nil, hlserr.MissingBox("trak.tkhd")
	}
	id, err := parseTkhd(tkhd)
	if err != nil {
		return nil, err
	}

	mdia := trak.Find("mdia")
	if mdia == nil {
		return nil, hlserr.MissingBox("trak.mdia")
	}
	mdhd := mdia.Find("mdhd")
	if mdhd == nil {
		return nil, hlserr.MissingBox("trak.mdia.mdhd")
	}
	timescale, duration, lang, err := parseMdhd(mdhd)
	if err != nil {
		return nil, err
	}

	hdlr := mdia.Find("hdlr")
	if hdlr == nil {
		return nil, hlserr.MissingBox("trak.mdia.hdlr")
	}
	kind, err := parseHdlr(hdlr)
	if err != nil {
		return nil, err
	}

	minf := mdia.Find("minf")
	if minf == nil {
		return nil, hlserr.MissingBox("trak.mdia.minf")
	}
	stbl := minf.Find("stbl")
	if stbl == nil {
		return nil, hlserr.MissingBox("trak.mdia.minf.stbl")
	}

	track := &Track{
		ID:        id,
		Kind:      kind,
		Timescale: timescale,
		Duration:  duration,
		Language:  lang,
	}

	if stsd := stbl.Find("stsd"); stsd != nil {
		track.CodecFourCC = parseStsdCodec(stsd)
	}

	if stts := stbl.Find("stts"); stts != nil {
		entries, err := parseStts(stts)
		if err != nil {
			return nil, err
		}
		track.TimeToSample = entries
	} else {
		return nil, hlserr.MissingBox("trak.mdia.minf.stbl.stts")
	}

	if stss := stbl.Find("stss"); stss != nil {
		syncs, err := parseStss(stss)
		if err != nil {
			return nil, err
		}
		track.SyncSamples = syncs
		track.HasSyncTable = true
	}

	if stsz := stbl.Find("stsz"); stsz != nil {
		sizes, err := parseStsz(stsz)
		if err != nil {
			return nil, err
		}
		track.SampleSizes = sizes
	} else {
		return nil, hlserr.MissingBox("trak.mdia.minf.stbl.stsz")
	}

	if stsc := stbl.Find("stsc"); stsc != nil {
		entries, err := parseStsc(stsc)
		if err != nil {
			return nil, err
		}
		track.ChunkToSample = entries
	} else {
		return nil, hlserr.MissingBox("trak.mdia.minf.stbl.stsc")
	}

	if stco := stbl.Find("stco"); stco != nil {
		offsets, err := parseStco(stco)
		if err != nil {
			return nil, err
		}
		track.ChunkOffsets = offsets
	} else if co64 := stbl.Find("co64"); co64 != nil {
		offsets, err := parseCo64(co64)
		if err != nil {
			return nil, err
		}
		track.ChunkOffsets = offsets
	} else {
		return nil, hlserr.MissingBox("trak.mdia.minf.stbl.stco|co64")
	}

	return track, nil
}

func fullBoxVersionFlags(r *bitio.Reader) (uint8, uint32, error) {
	vf, err := r.ReadUint32()
	if err != nil {
		return 0, 0, hlserr.UnexpectedEOF()
	}
	return uint8(vf >> 24), vf & 0x00FFFFFF, nil
}

func parseTkhd(b *Box) (trackID uint32, err error) {
	r := bitio.NewReader(b.Payload)
	version, _, err := fullBoxVersionFlags(r)
	if err != nil {
		return 0, err
	}
	if version == 1 {
		if err := r.Skip(8 + 8); err != nil { // creation_time, modification_time (64-bit)
			return 0, hlserr.UnexpectedEOF()
		}
	} else {
		if err := r.Skip(4 + 4); err != nil {
			return 0, hlserr.UnexpectedEOF()
		}
	}
	trackID, err = r.ReadUint32()
	if err != nil {
		return 0, hlserr.UnexpectedEOF()
	}
	return trackID, nil
}

func parseMdhd(b *Box) (timescale uint32, duration uint64, lang string, err error) {
	r := bitio.NewReader(b.Payload)
	version, _, err := fullBoxVersionFlags(r)
	if err != nil {
		return 0, 0, "", err
	}
	if version == 1 {
		if err := r.Skip(8 + 8); err != nil {
			return 0, 0, "", hlserr.UnexpectedEOF()
		}
		timescale, err = r.ReadUint32()
		if err != nil {
			return 0, 0, "", hlserr.UnexpectedEOF()
		}
		duration, err = r.ReadUint64()
		if err != nil {
			return 0, 0, "", hlserr.UnexpectedEOF()
		}
	} else {
		if err := r.Skip(4 + 4); err != nil {
			return 0, 0, "", hlserr.UnexpectedEOF()
		}
		timescale, err = r.ReadUint32()
		if err != nil {
			return 0, 0, "", hlserr.UnexpectedEOF()
		}
		d32, err2 := r.ReadUint32()
		if err2 != nil {
			return 0, 0, "", hlserr.UnexpectedEOF()
		}
		duration = uint64(d32)
	}
	packed, err := r.ReadUint16()
	if err != nil {
		return 0, 0, "", hlserr.UnexpectedEOF()
	}
	lang = decodeISO639(packed)
	return timescale, duration, lang, nil
}

// decodeISO639 unpacks 3 x 5-bit characters from the 15 low bits of the
// 16-bit mdhd.language field; a packed value of zero means "unspecified".
func decodeISO639(packed uint16) string {
	if packed == 0 {
		return ""
	}
	c1 := byte((packed>>10)&0x1F) + 0x60
	c2 := byte((packed>>5)&0x1F) + 0x60
	c3 := byte(packed&0x1F) + 0x60
	return string([]byte{c1, c2, c3})
}

func parseHdlr(b *Box) (TrackKind, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return TrackUnknown, err
	}
	if err := r.Skip(4); err != nil { // pre_defined
		return TrackUnknown, hlserr.UnexpectedEOF()
	}
	handler, err := r.ReadFourCC()
	if err != nil {
		return TrackUnknown, hlserr.UnexpectedEOF()
	}
	switch handler.String() {
	case "vide":
		return TrackVideo, nil
	case "soun":
		return TrackAudio, nil
	default:
		return TrackUnknown, nil
	}
}

func parseStsdCodec(b *Box) string {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return ""
	}
	if _, err := r.ReadUint32(); err != nil { // entry_count
		return ""
	}
	if r.Remaining() < 8 {
		return ""
	}
	if _, err := r.ReadUint32(); err != nil { // entry size
		return ""
	}
	cc, err := r.ReadFourCC()
	if err != nil {
		return ""
	}
	return cc.String()
}

func parseStts(b *Box) ([]SttsEntry, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	entries := make([]SttsEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		c, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		d, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		entries = append(entries, SttsEntry{Count: c, Delta: d})
	}
	return entries, nil
}

func parseStss(b *Box) ([]uint32, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	out := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		out = append(out, n)
	}
	return out, nil
}

func parseStsz(b *Box) ([]uint32, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return nil, err
	}
	sampleSize, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	if sampleSize != 0 {
		out := make([]uint32, count)
		for i := range out {
			out[i] = sampleSize
		}
		return out, nil
	}
	out := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		out = append(out, s)
	}
	return out, nil
}

func parseStsc(b *Box) ([]StscEntry, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	out := make([]StscEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		first, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		spc, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		sdi, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		out = append(out, StscEntry{FirstChunk: first, SamplesPerChunk: spc, SampleDescIdx: sdi})
	}
	return out, nil
}

func parseStco(b *Box) ([]uint64, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	out := make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		o, err := r.ReadUint32()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		out = append(out, uint64(o))
	}
	return out, nil
}

func parseCo64(b *Box) ([]uint64, error) {
	r := bitio.NewReader(b.Payload)
	if _, _, err := fullBoxVersionFlags(r); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, hlserr.UnexpectedEOF()
	}
	out := make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		o, err := r.ReadUint64()
		if err != nil {
			return nil, hlserr.UnexpectedEOF()
		}
		out = append(out, o)
	}
	return out, nil
}

// SampleDurations expands TimeToSample into a flat per-sample duration slice, in
// presentation order. Callers needing per-sample PTS should accumulate
// these deltas themselves; kept flat here because the segmenter walks it
// once linearly.
func (t *Track) SampleDurations() []uint32 {
	var out []uint32
	for _, e := range t.TimeToSample {
		for i := uint32(0); i < e.Count; i++ {
			out = append(out, e.Delta)
		}
	}
	return out
}

// IsSync reports whether the 1-based sampleNumber is a sync (keyframe)
// sample. If the track has no stss table, §4.1/§4.2 require treating every
// sample as independent.
func (t *Track) IsSync(sampleNumber uint32) bool {
	if !t.HasSyncTable {
		return true
	}
	for _, s := range t.SyncSamples {
		if s == sampleNumber {
			return true
		}
	}
	return false
}
