// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ManuGH/hlsforge/internal/log"
)

// Holder holds configuration with atomic hot-reloading. Readers call Get;
// a background watchLoop goroutine (started by Watch) reloads from disk on
// file change and swaps the pointer without readers ever seeing a partial
// update.
type Holder struct {
	reloadOpMu sync.Mutex
	cfg        atomic.Pointer[AppConfig]
	path       string
	watcher    *fsnotify.Watcher

	listenerMu sync.RWMutex
	listeners  []chan<- AppConfig
}

// NewHolder wraps an already-loaded config for atomic access and optional
// file watching.
func NewHolder(initial AppConfig, path string) *Holder {
	h := &Holder{path: path}
	h.cfg.Store(&initial)
	return h
}

// Get returns the current configuration (thread-safe read, lock-free).
func (h *Holder) Get() AppConfig {
	if c := h.cfg.Load(); c != nil {
		return *c
	}
	return AppConfig{}
}

// Reload re-reads the config file and validates it before swapping.
// Validation failure leaves the previous configuration in place.
func (h *Holder) Reload(_ context.Context) error {
	h.reloadOpMu.Lock()
	defer h.reloadOpMu.Unlock()

	next, err := Load(h.path)
	if err != nil {
		log.L().Error().Str("component", "config").Err(err).Msg("config reload failed")
		return fmt.Errorf("reload config: %w", err)
	}

	h.cfg.Store(&next)
	h.notify(next)
	log.L().Info().Str("component", "config").Msg("config reloaded")
	return nil
}

// RegisterListener registers a channel that receives the new AppConfig
// after every successful reload. Sends are non-blocking: a full channel
// drops the notification rather than stalling the reload path.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg AppConfig) {
	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			log.L().Warn().Str("component", "config").Msg("skipped config listener, channel full")
		}
	}
}

// Watch starts watching the config file's directory for writes, creates,
// and renames (covering both in-place edits and atomic replace-by-rename),
// debouncing rapid successive events into a single Reload. It returns
// immediately if path is empty (ENV/default-only configuration).
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	dir := filepath.Dir(h.path)
	file := filepath.Base(h.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go h.watchLoop(ctx, file)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, file string) {
	const debounce = 500 * time.Millisecond
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if err := h.Reload(ctx); err != nil {
					log.L().Error().Str("component", "config").Err(err).Msg("automatic config reload failed")
				}
			})

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			log.L().Error().Str("component", "config").Err(err).Msg("config watcher error")
		}
	}
}

// Stop closes the file watcher, if one was started.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}
