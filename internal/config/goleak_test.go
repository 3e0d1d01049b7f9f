// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestHolder_WatchStop_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  - name: a\n    target_duration_seconds: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	initial, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHolder(initial, path)

	ctx, cancel := context.WithCancel(context.Background())
	if err := h.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cancel()
	h.Stop()
	time.Sleep(50 * time.Millisecond)
}
