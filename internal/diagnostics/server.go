// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"
)

// ServerConfig drives NewServer's router construction.
type ServerConfig struct {
	Checkers map[Subsystem]HealthChecker

	// RequestLimit/WindowSize bound how often any single client may poll
	// /healthz (sliding-window counter, per client IP).
	RequestLimit int
	WindowSize   time.Duration

	// GlobalQPS caps the server's total diagnostics throughput regardless
	// of how many distinct clients are polling, so a fleet of low-latency
	// players doing frequent blocking-reload-style polling can't collectively
	// starve the process issuing the responses.
	GlobalQPS   float64
	GlobalBurst int
}

// NewServer builds a chi router exposing the diagnostics surface: GET
// /healthz returns the aggregate Report as JSON. This is the toolkit's only
// HTTP surface; it carries no authentication of its own and is meant to sit
// behind an operator-controlled network boundary.
func NewServer(cfg ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)

	requestLimit := cfg.RequestLimit
	if requestLimit <= 0 {
		requestLimit = 60
	}
	window := cfg.WindowSize
	if window <= 0 {
		window = time.Minute
	}
	r.Use(httprate.Limit(requestLimit, window, httprate.WithKeyFuncs(httprate.KeyByIP)))

	globalQPS := cfg.GlobalQPS
	if globalQPS <= 0 {
		globalQPS = 50
	}
	globalBurst := cfg.GlobalBurst
	if globalBurst <= 0 {
		globalBurst = 10
	}
	limiter := rate.NewLimiter(rate.Limit(globalQPS), globalBurst)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !limiter.Allow() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		report := Collect(req.Context(), cfg.Checkers, time.Now)
		w.Header().Set("Content-Type", "application/json")
		if report.OverallStatus != OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})

	return r
}
