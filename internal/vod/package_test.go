// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vod

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ManuGH/hlsforge/internal/hls/model"
	"github.com/ManuGH/hlsforge/internal/segmenter"
)

func tenSecondFixture() []byte {
	return segmenter.SyntheticFMP4Fixture(10, 100, 1, []uint32{1, 3, 5, 7, 9})
}

func TestPackageAsset_DiscreteFMP4(t *testing.T) {
	mgr := NewManager(NopLogger())
	outDir := t.TempDir()

	req := PackageRequest{
		AssetID: "asset-fmp4",
		Source:  tenSecondFixture(),
		Config: segmenter.SegmentationConfig{
			TargetDuration: 4.0,
			Container:      segmenter.ContainerFMP4,
			OutputMode:     segmenter.OutputModeDiscreteFiles,
		},
		OutputDir: outDir,
	}

	run, isNew := PackageAsset(context.Background(), mgr, req)
	if !isNew {
		t.Fatal("expected a new run")
	}
	if err := run.Wait(context.Background()); err != nil {
		t.Fatalf("PackageAsset: %v", err)
	}

	result := run.Result()
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.InitSegmentPath == "" {
		t.Error("expected non-empty InitSegmentPath for fMP4 output")
	}
	if _, err := os.Stat(result.InitSegmentPath); err != nil {
		t.Errorf("init segment not written: %v", err)
	}
	if len(result.SegmentPaths) != 3 {
		t.Fatalf("expected 3 segment paths, got %d", len(result.SegmentPaths))
	}
	for _, p := range result.SegmentPaths {
		if !filepath.IsAbs(p) {
			t.Errorf("segment path %q not absolute", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("segment not written at %q: %v", p, err)
		}
	}
	if result.PlaylistPath == "" {
		t.Fatal("expected a playlist path")
	}
	data, err := os.ReadFile(result.PlaylistPath)
	if err != nil {
		t.Fatalf("read playlist: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty playlist contents")
	}
	if result.TotalDuration <= 0 {
		t.Error("expected positive TotalDuration")
	}
}

func TestPackageAsset_ByteRangeMPEGTS(t *testing.T) {
	mgr := NewManager(NopLogger())
	outDir := t.TempDir()

	req := PackageRequest{
		AssetID: "asset-ts",
		Source:  tenSecondFixture(),
		Config: segmenter.SegmentationConfig{
			TargetDuration: 4.0,
			Container:      segmenter.ContainerMPEGTS,
			OutputMode:     segmenter.OutputModeByteRange,
			PlaylistType:   model.PlaylistTypeVOD,
		},
		OutputDir: outDir,
	}

	run, _ := PackageAsset(context.Background(), mgr, req)
	if err := run.Wait(context.Background()); err != nil {
		t.Fatalf("PackageAsset: %v", err)
	}

	result := run.Result()
	if result.InitSegmentPath != "" {
		t.Errorf("expected no init segment for MPEG-TS, got %q", result.InitSegmentPath)
	}
	if len(result.SegmentPaths) != 1 {
		t.Fatalf("expected single byte-range file, got %d paths", len(result.SegmentPaths))
	}
	info, err := os.Stat(result.SegmentPaths[0])
	if err != nil {
		t.Fatalf("byte-range file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty byte-range file")
	}
}

func TestPackageAsset_ConcurrentSameAssetDeduplicates(t *testing.T) {
	mgr := NewManager(NopLogger())
	outDir := t.TempDir()

	req := PackageRequest{
		AssetID: "asset-concurrent",
		Source:  tenSecondFixture(),
		Config: segmenter.SegmentationConfig{
			TargetDuration: 4.0,
			Container:      segmenter.ContainerMPEGTS,
			OutputMode:     segmenter.OutputModeByteRange,
			PlaylistType:   model.PlaylistTypeVOD,
		},
		OutputDir: outDir,
	}

	const callers = 20
	runs := make([]*Run, callers)
	isNewFlags := make([]bool, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			runs[i], isNewFlags[i] = PackageAsset(context.Background(), mgr, req)
		}(i)
	}
	wg.Wait()

	newCount := 0
	for i, isNew := range isNewFlags {
		if isNew {
			newCount++
		}
		if runs[i] != runs[0] {
			t.Errorf("caller %d got a different run than caller 0", i)
		}
	}
	if newCount != 1 {
		t.Errorf("expected exactly 1 new run across %d concurrent callers, got %d", callers, newCount)
	}

	if err := runs[0].Wait(context.Background()); err != nil {
		t.Fatalf("PackageAsset: %v", err)
	}
}

func TestDefaultOutputDir_ConfinesAndSanitizes(t *testing.T) {
	root := t.TempDir()

	dir, err := DefaultOutputDir(root, "asset/with:weird\\chars")
	if err != nil {
		t.Fatalf("DefaultOutputDir: %v", err)
	}
	if !strings.HasPrefix(dir, root) {
		t.Errorf("dir %q escapes root %q", dir, root)
	}

	if _, err := DefaultOutputDir(root, ""); err == nil {
		t.Error("expected an error for an asset id with no safe characters")
	}
}

func TestPackageAsset_RejectsInvalidConfig(t *testing.T) {
	mgr := NewManager(NopLogger())
	outDir := t.TempDir()

	req := PackageRequest{
		AssetID: "asset-invalid",
		Source:  tenSecondFixture(),
		Config: segmenter.SegmentationConfig{
			TargetDuration: 0,
			Container:      segmenter.ContainerMPEGTS,
			OutputMode:     segmenter.OutputModeByteRange,
		},
		OutputDir: outDir,
	}

	run, _ := PackageAsset(context.Background(), mgr, req)
	if err := run.Wait(context.Background()); err == nil {
		t.Fatal("expected an error for zero TargetDuration")
	}
}
