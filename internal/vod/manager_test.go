// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vod

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func sleepyWork(d time.Duration) WorkFunc {
	return func(ctx context.Context, _ JobSpec) (*PackageResult, error) {
		select {
		case <-time.After(d):
			return &PackageResult{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestManager_Ensure(t *testing.T) {
	mgr := NewManager(NopLogger())

	spec := JobSpec{ID: "test-run-1"}
	work := sleepyWork(50 * time.Millisecond)

	run, isNew := mgr.Ensure(context.Background(), spec, work)
	if !isNew {
		t.Error("expected isNew=true for first call")
	}
	if run == nil {
		t.Fatal("expected run object")
	}

	run2, isNew2 := mgr.Ensure(context.Background(), spec, work)
	if isNew2 {
		t.Error("expected isNew=false for second call")
	}
	if run2 != run {
		t.Error("expected same run object")
	}

	if err := run.Wait(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if run.Result() == nil {
		t.Error("expected a result after successful completion")
	}

	mgr.mu.Lock()
	if _, exists := mgr.runs[spec.ID]; exists {
		t.Error("run should be removed from map after completion")
	}
	mgr.mu.Unlock()
}

func TestManager_Cancel(t *testing.T) {
	mgr := NewManager(NopLogger())

	spec := JobSpec{ID: "test-cancel"}
	started := make(chan struct{})

	work := func(ctx context.Context, _ JobSpec) (*PackageResult, error) {
		close(started)
		select {
		case <-time.After(500 * time.Millisecond):
			return &PackageResult{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	run, _ := mgr.Ensure(context.Background(), spec, work)
	<-started
	mgr.Cancel(spec.ID)

	if err := run.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	mgr.mu.Lock()
	if _, exists := mgr.runs[spec.ID]; exists {
		t.Error("run should be removed from map after cancel")
	}
	mgr.mu.Unlock()
}

func TestManager_Concurrent(t *testing.T) {
	mgr := NewManager(NopLogger())
	spec := JobSpec{ID: "concurrent-test"}
	work := sleepyWork(20 * time.Millisecond)

	const count = 100
	var wg sync.WaitGroup
	wg.Add(count)

	results := make(chan bool, count)
	for i := 0; i < count; i++ {
		go func() {
			defer wg.Done()
			_, isNew := mgr.Ensure(context.Background(), spec, work)
			results <- isNew
		}()
	}
	wg.Wait()
	close(results)

	newCount := 0
	for isNew := range results {
		if isNew {
			newCount++
		}
	}
	if newCount != 1 {
		t.Errorf("expected exactly 1 new run, got %d", newCount)
	}
}

func TestManager_Panic(t *testing.T) {
	mgr := NewManager(NopLogger())
	spec := JobSpec{ID: "panic-test"}

	run, _ := mgr.Ensure(context.Background(), spec, func(ctx context.Context, _ JobSpec) (*PackageResult, error) {
		panic("boom")
	})

	err := run.Wait(context.Background())
	if err == nil || !strings.Contains(err.Error(), "panic: boom") {
		t.Errorf("expected panic error, got %v", err)
	}
}

func TestManager_Stale(t *testing.T) {
	mgr := NewManager(NopLogger())
	spec := JobSpec{ID: "stale-test"}
	noop := func(ctx context.Context, _ JobSpec) (*PackageResult, error) { return &PackageResult{}, nil }

	run1, isNew1 := mgr.Ensure(context.Background(), spec, noop)
	if !isNew1 {
		t.Fatal("expected isNew1")
	}
	_ = run1.Wait(context.Background())

	run2, isNew2 := mgr.Ensure(context.Background(), spec, noop)
	if !isNew2 {
		t.Error("expected second Ensure to be isNew=true (recreation of stale run)")
	}
	if run1 == run2 {
		t.Error("expected different run objects")
	}
}

func TestManager_CancelAll(t *testing.T) {
	mgr := NewManager(NopLogger())

	spec1 := JobSpec{ID: "all-1"}
	spec2 := JobSpec{ID: "all-2"}
	work := func(ctx context.Context, _ JobSpec) (*PackageResult, error) {
		select {
		case <-time.After(100 * time.Millisecond):
			return &PackageResult{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	run1, _ := mgr.Ensure(context.Background(), spec1, work)
	run2, _ := mgr.Ensure(context.Background(), spec2, work)

	time.Sleep(10 * time.Millisecond)
	mgr.CancelAll()

	if err := run1.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("run1: expected context.Canceled, got %v", err)
	}
	if err := run2.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("run2: expected context.Canceled, got %v", err)
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if len(mgr.runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(mgr.runs))
	}
}
