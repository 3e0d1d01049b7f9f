// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package rendition builds typed EXT-X-MEDIA entries for the renditions a
// plain audio/video/subtitle ladder doesn't cover: accessibility tracks
// (closed captions, SDH subtitles, audio description) and spatial/immersive
// audio (object-based mixes such as Dolby Atmos).
package rendition

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/ManuGH/hlsforge/internal/hls/model"
)

// Characteristics values from the UTI accessibility vocabulary Apple's HLS
// authoring guide references for EXT-X-MEDIA CHARACTERISTICS.
const (
	CharacteristicDescribesVideo = "public.accessibility.describes-video"
	CharacteristicTranscribesDialog = "public.accessibility.transcribes-spoken-dialog"
	CharacteristicEasyToRead     = "public.easy-to-read"
)

// NormalizeLanguage parses tag as a BCP-47 language tag and returns its
// canonical form. An unparseable tag is returned unchanged: EXT-X-MEDIA's
// LANGUAGE attribute accepts any RFC 5646 tag and rejecting an unusual one
// outright would be more disruptive than passing it through.
func NormalizeLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return t.String()
}

// ClosedCaptions builds a CLOSED-CAPTIONS rendition. instreamID must be one
// of CC1-CC4 (CEA-608) or SERVICE1-SERVICE63 (CEA-708); validate.MasterPlaylist
// enforces this and the CLOSED-CAPTIONS "no URI" invariant downstream.
func ClosedCaptions(groupID, name, language, instreamID string) model.Rendition {
	return model.Rendition{
		Type:       model.RenditionClosedCaptions,
		GroupID:    groupID,
		Name:       name,
		Language:   NormalizeLanguage(language),
		InstreamID: instreamID,
		Autoselect: true,
	}
}

// SubtitlesOption configures an optional attribute of a Subtitles rendition.
type SubtitlesOption func(*model.Rendition)

// Forced marks the subtitle track FORCED=YES (e.g. foreign-dialog burn-in
// subtitles that should play even when the viewer hasn't requested
// subtitles).
func Forced() SubtitlesOption {
	return func(r *model.Rendition) { r.Forced = true }
}

// SDH marks a subtitle rendition for the deaf and hard-of-hearing by
// setting CHARACTERISTICS to CharacteristicTranscribesDialog only.
func SDH() SubtitlesOption {
	return func(r *model.Rendition) { r.Characteristics = CharacteristicTranscribesDialog }
}

// Subtitles builds a WebVTT SUBTITLES rendition.
func Subtitles(groupID, name, lang, uri string, opts ...SubtitlesOption) model.Rendition {
	r := model.Rendition{
		Type:       model.RenditionSubtitles,
		GroupID:    groupID,
		Name:       name,
		Language:   NormalizeLanguage(lang),
		URI:        uri,
		Autoselect: true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// AudioDescription builds an AUDIO rendition carrying a narrated
// description of the on-screen action for blind and low-vision viewers.
func AudioDescription(groupID, name, lang, uri string) model.Rendition {
	return model.Rendition{
		Type:            model.RenditionAudio,
		GroupID:         groupID,
		Name:            name,
		Language:        NormalizeLanguage(lang),
		URI:             uri,
		Characteristics: CharacteristicDescribesVideo,
		Autoselect:      true,
	}
}

// SpatialChannelLayout is an object-based or binaural audio CHANNELS
// identifier, appended to the base channel count as "<count>/<layout>".
type SpatialChannelLayout string

const (
	// LayoutJOC marks a Dolby Atmos stream using Joint Object Coding: a
	// 5.1 or 7.1 bed plus audio objects, delivered as a single AC-3/E-AC-3
	// elementary stream.
	LayoutJOC SpatialChannelLayout = "JOC"
	// LayoutBinaural marks a head-tracked or static binaural down-mix
	// intended for headphone playback.
	LayoutBinaural SpatialChannelLayout = "BINAURAL"
	// LayoutDownmix marks a stereo-compatible down-mix of an immersive
	// master, present alongside the immersive rendition in the same group.
	LayoutDownmix SpatialChannelLayout = "DOWNMIX"
)

// SpatialAudio builds an immersive AUDIO rendition. baseChannels is the
// underlying bed's channel count (6 for 5.1, 8 for 7.1); layout identifies
// the object/binaural encoding riding on top of it, per the CHANNELS
// attribute's "<count>/<spatial identifiers>" form.
func SpatialAudio(groupID, name, lang, uri string, baseChannels int, layout SpatialChannelLayout) model.Rendition {
	return model.Rendition{
		Type:       model.RenditionAudio,
		GroupID:    groupID,
		Name:       name,
		Language:   NormalizeLanguage(lang),
		URI:        uri,
		Channels:   fmt.Sprintf("%d/%s", baseChannels, layout),
		Autoselect: true,
	}
}
