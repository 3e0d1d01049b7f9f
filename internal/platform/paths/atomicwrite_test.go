// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWritePlaylistAtomically_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.m3u8")

	if err := WritePlaylistAtomically(path, []byte("#EXTM3U\n")); err != nil {
		t.Fatalf("WritePlaylistAtomically: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "#EXTM3U\n" {
		t.Fatalf("content = %q, want #EXTM3U\\n", got)
	}
}

func TestWritePlaylistAtomically_OverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.m3u8")

	if err := WritePlaylistAtomically(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := WritePlaylistAtomically(path, []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q, want second", got)
	}
}
