// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder holds configuration with atomic reloading capability.
// Only LogLevel takes effect without a restart; other changes are reported.
type ConfigHolder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	debounceMu sync.Mutex
	debounce   *time.Timer
	done       chan struct{}
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current: initial,
		loader:  loader,
		logger:  log.WithComponent("config"),
	}
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays in place.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	if newCfg.LogLevel != oldCfg.LogLevel {
		if err := log.SetLevel(newCfg.LogLevel); err != nil {
			h.logger.Warn().Err(err).Msg("failed to apply log level")
		}
	}
	h.logChanges(oldCfg, newCfg)

	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher watches the config file's directory. Editors and atomic
// writers replace the file, which would drop a watch on the file itself.
// With no config path this is a no-op.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.watcher = watcher
	h.done = make(chan struct{})

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str("path", abs).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, abs)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, path string) {
	defer close(h.done)
	defer h.stopDebounce()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			_ = h.watcher.Close()
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")
			h.scheduleReload(ctx)

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// scheduleReload debounces bursts of events into one reload.
func (h *ConfigHolder) scheduleReload(ctx context.Context) {
	h.debounceMu.Lock()
	defer h.debounceMu.Unlock()
	if h.debounce != nil {
		h.debounce.Stop()
	}
	h.debounce = time.AfterFunc(reloadDebounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := h.Reload(ctx); err != nil {
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.auto_reload_failed").
				Msg("automatic config reload failed")
		}
	})
}

func (h *ConfigHolder) stopDebounce() {
	h.debounceMu.Lock()
	defer h.debounceMu.Unlock()
	if h.debounce != nil {
		h.debounce.Stop()
	}
}

// Stop closes the watcher and waits for its goroutine to exit.
func (h *ConfigHolder) Stop() {
	if h.watcher == nil {
		return
	}
	_ = h.watcher.Close()
	<-h.done
}

// RestartRequired reports whether old and newCfg differ in anything other
// than the live-reloadable log level.
func RestartRequired(old, newCfg AppConfig) bool {
	old.LogLevel, newCfg.LogLevel = "", ""
	return !cmp.Equal(old, newCfg)
}

func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	diff := cmp.Diff(MaskSecrets(old), MaskSecrets(newCfg))
	if diff == "" {
		h.logger.Debug().Msg("configuration unchanged")
		return
	}
	ev := h.logger.Info()
	if RestartRequired(old, newCfg) {
		ev = h.logger.Warn().Bool("restart_required", true)
	}
	ev.Str(log.FieldEvent, "config.changed").
		Str("diff", diff).
		Msg("configuration changed")
}
