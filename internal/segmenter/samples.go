// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package segmenter

import "github.com/ManuGH/hlsforge/internal/mp4"

// sampleOffsets resolves the absolute byte offset of every sample in
// track, using stsc to map samples to chunks and stco/co64 for chunk
// start offsets. Returned slice is 0-indexed and parallel to
// track.SampleSizes (sample N is sampleOffsets[N-1]).
func sampleOffsets(track *mp4.Track) []uint64 {
	offsets := make([]uint64, len(track.SampleSizes))
	if len(track.ChunkOffsets) == 0 || len(track.ChunkToSample) == 0 {
		return offsets
	}

	sampleIdx := 0
	for chunkIdx := 0; chunkIdx < len(track.ChunkOffsets); chunkIdx++ {
		chunkNum := uint32(chunkIdx + 1)
		samplesInChunk := samplesPerChunkFor(track.ChunkToSample, chunkNum, uint32(len(track.ChunkOffsets)))
		chunkOffset := track.ChunkOffsets[chunkIdx]
		runningOffset := chunkOffset
		for i := uint32(0); i < samplesInChunk && sampleIdx < len(offsets); i++ {
			offsets[sampleIdx] = runningOffset
			runningOffset += uint64(track.SampleSizes[sampleIdx])
			sampleIdx++
		}
	}
	return offsets
}

// samplesPerChunkFor looks up the samples-per-chunk value in effect for
// chunkNum given stsc's run-length entries.
func samplesPerChunkFor(stsc []mp4.StscEntry, chunkNum, totalChunks uint32) uint32 {
	var spc uint32
	for i, e := range stsc {
		var nextFirst uint32
		if i+1 < len(stsc) {
			nextFirst = stsc[i+1].FirstChunk
		} else {
			nextFirst = totalChunks + 1
		}
		if chunkNum >= e.FirstChunk && chunkNum < nextFirst {
			spc = e.SamplesPerChunk
		}
	}
	return spc
}

// ExtractSpanBytes slices the original mp4 byte stream to the raw sample
// bytes for every sample in span, concatenated in order, using the
// track's sample-to-byte-offset mapping.
func ExtractSpanBytes(source []byte, track *mp4.Track, span SampleSpan) []byte {
	offsets := sampleOffsets(track)
	var out []byte
	for i := uint32(0); i < span.Count; i++ {
		idx := int(span.StartSample-1) + int(i)
		if idx < 0 || idx >= len(offsets) || idx >= len(track.SampleSizes) {
			continue
		}
		start := offsets[idx]
		size := uint64(track.SampleSizes[idx])
		if start+size > uint64(len(source)) {
			continue
		}
		out = append(out, source[start:start+size]...)
	}
	return out
}
