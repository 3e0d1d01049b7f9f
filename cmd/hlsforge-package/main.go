// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command hlsforge-package segments a single MP4 source file into an HLS
// VOD asset: fMP4 or MPEG-TS media segments (or a single byte-range file)
// plus a generated media playlist, all written under an output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/hlsforge/internal/hls/model"
	hlslog "github.com/ManuGH/hlsforge/internal/log"
	"github.com/ManuGH/hlsforge/internal/platform/paths"
	"github.com/ManuGH/hlsforge/internal/segmenter"
	"github.com/ManuGH/hlsforge/internal/version"
	"github.com/ManuGH/hlsforge/internal/vod"
)

func main() {
	source := flag.String("source", "", "path to the source MP4 file (required)")
	sourceRoot := flag.String("source-root", "", "if set, -source is resolved as a path relative to this directory, rejecting traversal and symlink escapes")
	outDir := flag.String("out", "", "output directory for segments and playlist (required)")
	assetID := flag.String("asset-id", "", "asset identifier; defaults to the source file's base name")
	targetDuration := flag.Float64("target-duration", 6.0, "target segment duration in seconds")
	container := flag.String("container", "fmp4", "output container: fmp4 or ts")
	byteRange := flag.Bool("byte-range", false, "emit a single file addressed by EXT-X-BYTERANGE instead of discrete segment files")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s)\n", version.Version, version.Commit)
		os.Exit(0)
	}

	if *source == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: hlsforge-package -source <file.mp4> -out <dir>")
		os.Exit(2)
	}

	hlslog.Configure(hlslog.Config{Level: "info", Service: "hlsforge-package", Version: version.Version})
	logger := hlslog.WithComponent("cmd.package")

	var cont segmenter.Container
	switch *container {
	case "fmp4":
		cont = segmenter.ContainerFMP4
	case "ts":
		cont = segmenter.ContainerMPEGTS
	default:
		fmt.Fprintf(os.Stderr, "unknown container %q: must be fmp4 or ts\n", *container)
		os.Exit(2)
	}

	outputMode := segmenter.OutputModeDiscreteFiles
	if *byteRange {
		outputMode = segmenter.OutputModeByteRange
	}

	id := *assetID
	if id == "" {
		id = filepath.Base(*source)
	}

	sourcePath := *source
	if *sourceRoot != "" {
		resolved, err := paths.ResolveDataFilePath(*sourceRoot, *source, false)
		if err != nil {
			logger.Error().Err(err).Str("source", *source).Str("source_root", *sourceRoot).Msg("resolve source path")
			os.Exit(2)
		}
		sourcePath = resolved
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		logger.Error().Err(err).Str("source", sourcePath).Msg("read source file")
		os.Exit(1)
	}

	mgr := vod.NewManager(hlslog.WithComponent("vod"))
	req := vod.PackageRequest{
		AssetID: id,
		Source:  data,
		Config: segmenter.SegmentationConfig{
			TargetDuration: *targetDuration,
			Container:      cont,
			OutputMode:     outputMode,
			PlaylistType:   model.PlaylistTypeVOD,
		},
		OutputDir: *outDir,
	}

	run, _ := vod.PackageAsset(context.Background(), mgr, req)
	if err := run.Wait(context.Background()); err != nil {
		logger.Error().Err(err).Str("asset_id", id).Msg("packaging failed")
		os.Exit(1)
	}

	result := run.Result()
	logger.Info().
		Str("asset_id", id).
		Str("playlist", result.PlaylistPath).
		Int("segments", len(result.SegmentPaths)).
		Float64("total_duration", result.TotalDuration).
		Msg("packaging complete")
	fmt.Println(result.PlaylistPath)
}
