// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKeyServerChecker_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewKeyServerChecker(srv.URL)
	health := checker.Check(context.Background())
	if health.Status != OK {
		t.Fatalf("status = %v, want OK", health.Status)
	}
}

func TestKeyServerChecker_Unreachable(t *testing.T) {
	checker := NewKeyServerChecker("http://127.0.0.1:1")
	health := checker.Check(context.Background())
	if health.Status != Degraded {
		t.Fatalf("status = %v, want Degraded", health.Status)
	}
	detail, ok := health.Detail.(KeyServerDetail)
	if !ok {
		t.Fatalf("detail type = %T, want KeyServerDetail", health.Detail)
	}
	if detail.ReachableErr == "" {
		t.Error("expected a non-empty ReachableErr")
	}
}

func TestKeyServerChecker_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	checker := NewKeyServerChecker(srv.URL)
	health := checker.Check(context.Background())
	if health.Status != Degraded {
		t.Fatalf("status = %v, want Degraded", health.Status)
	}
}
