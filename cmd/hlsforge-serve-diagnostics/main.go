// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command hlsforge-serve-diagnostics exposes the toolkit's diagnostics
// surface (GET /healthz) over HTTP. It never serves playlists or media
// segments — "network serving of HLS" is explicitly out of this toolkit's
// scope; this binary exists only for operators who want a pollable health
// signal for a process embedding the packaging/live-pipeline libraries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/hlsforge/internal/diagnostics"
	hlslog "github.com/ManuGH/hlsforge/internal/log"
	"github.com/ManuGH/hlsforge/internal/version"
)

func main() {
	addr := flag.String("addr", ":8090", "address to serve /healthz on")
	keyServerURI := flag.String("key-server", "", "optional FairPlay/CENC key server URI to probe for reachability")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s)\n", version.Version, version.Commit)
		os.Exit(0)
	}

	hlslog.Configure(hlslog.Config{Level: "info", Service: "hlsforge-serve-diagnostics", Version: version.Version})
	logger := hlslog.WithComponent("cmd.serve-diagnostics")

	checkers := map[diagnostics.Subsystem]diagnostics.HealthChecker{}
	if *keyServerURI != "" {
		checkers[diagnostics.SubsystemKeyServer] = diagnostics.NewKeyServerChecker(*keyServerURI)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           diagnostics.NewServer(diagnostics.ServerConfig{Checkers: checkers}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", *addr).Msg("serving diagnostics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("diagnostics server exited")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("diagnostics server shutdown error")
	}
}
