// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vod

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/hlsforge/internal/platform/fs"
	"github.com/ManuGH/hlsforge/internal/platform/paths"
	"github.com/ManuGH/hlsforge/internal/segmenter"
)

// PackageRequest is one VOD packaging job: segment Source per Config and
// write every resulting file under OutputDir.
type PackageRequest struct {
	AssetID   string
	Source    []byte
	Config    segmenter.SegmentationConfig
	OutputDir string
}

// PackageResult names the files PackageAsset wrote, relative to OutputDir.
type PackageResult struct {
	InitSegmentPath string // empty for MPEG-TS or byte-range output
	SegmentPaths    []string
	PlaylistPath    string
	TotalDuration   float64
}

// PackageAsset ensures exactly one packaging run is active per
// req.AssetID: Segment req.Source, write the init segment (if any), every
// media segment or the single byte-range file, and the generated playlist,
// all confined under req.OutputDir via internal/platform/fs.
func PackageAsset(ctx context.Context, mgr *Manager, req PackageRequest) (*Run, bool) {
	spec := JobSpec{ID: req.AssetID, Kind: "package"}
	return mgr.Ensure(ctx, spec, func(_ context.Context, _ JobSpec) (*PackageResult, error) {
		return packageAsset(req)
	})
}

func packageAsset(req PackageRequest) (*PackageResult, error) {
	result, err := segmenter.Segment(req.Source, req.Config)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	out := &PackageResult{TotalDuration: result.TotalDuration}

	if len(result.InitSegment) > 0 {
		initURI := result.Playlist.Segments[0].Map.URI
		path, err := writeConfined(req.OutputDir, initURI, result.InitSegment)
		if err != nil {
			return nil, err
		}
		out.InitSegmentPath = path
	}

	switch req.Config.OutputMode {
	case segmenter.OutputModeByteRange:
		if len(result.Playlist.Segments) > 0 {
			uri := result.Playlist.Segments[0].URI
			path, err := writeConfined(req.OutputDir, uri, result.SingleFile)
			if err != nil {
				return nil, err
			}
			out.SegmentPaths = []string{path}
		}
	case segmenter.OutputModeDiscreteFiles:
		for i, seg := range result.Segments {
			uri := result.Playlist.Segments[i].URI
			path, err := writeConfined(req.OutputDir, uri, seg.Data)
			if err != nil {
				return nil, err
			}
			out.SegmentPaths = append(out.SegmentPaths, path)
		}
	}

	playlistPath, err := paths.ValidatePlaylistPath(req.OutputDir, "playlist.m3u8")
	if err != nil {
		return nil, fmt.Errorf("validate playlist path: %w", err)
	}
	if err := paths.WritePlaylistAtomically(playlistPath, []byte(result.PlaylistText)); err != nil {
		return nil, fmt.Errorf("write playlist: %w", err)
	}
	out.PlaylistPath = playlistPath

	return out, nil
}

// DefaultOutputDir derives a per-asset output directory under root from
// assetID, confining the result so an asset ID containing path separators
// or ".." components cannot escape root.
func DefaultOutputDir(root, assetID string) (string, error) {
	safe := sanitizeAssetID(assetID)
	if safe == "" {
		return "", fmt.Errorf("asset id %q has no safe characters", assetID)
	}
	return fs.ConfineRelPath(root, safe)
}

// sanitizeAssetID replaces path-meaningful characters in an asset
// identifier so it can be used as a single directory-name component.
func sanitizeAssetID(assetID string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"..", "_",
	)
	return replacer.Replace(assetID)
}

func writeConfined(outputDir, uri string, data []byte) (string, error) {
	path, err := fs.ConfineRelPath(outputDir, uri)
	if err != nil {
		return "", fmt.Errorf("confine %q: %w", uri, err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write %q: %w", uri, err)
	}
	return path, nil
}
