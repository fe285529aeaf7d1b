// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"

	"github.com/ManuGH/hdrkit/internal/api"
	"github.com/ManuGH/hdrkit/internal/cache"
	"github.com/ManuGH/hdrkit/internal/config"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/telemetry"
)

// ServiceName labels logs and traces.
const ServiceName = "hdrkit"

// Options holds everything Bootstrap needs besides the context.
type Options struct {
	// Version is the build version
	Version string

	// Config is the loaded and validated configuration.
	Config config.AppConfig

	// Loader re-reads the config on reload; nil disables hot reload.
	Loader *config.Loader
}

// Bootstrap builds the cache store, tracing, API and raw handlers and the
// server manager. Resources it opens are released by the manager's
// shutdown hooks.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	logger := log.WithComponent("daemon")

	store, closeStore, err := NewStore(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}

	apiServer, err := api.New(cfg, store, api.WithVersion(opts.Version))
	if err != nil {
		_ = closeStore(ctx)
		return nil, fmt.Errorf("api server: %w", err)
	}

	mgr, err := NewManager(Deps{
		Logger:     logger,
		Config:     cfg,
		APIHandler: apiServer.Handler(),
		RawHandler: api.RawInspectHandler(),
	})
	if err != nil {
		_ = closeStore(ctx)
		return nil, err
	}
	mgr.RegisterShutdownHook("cache_store", closeStore)

	if cfg.Telemetry.Enabled {
		provider, err := initTelemetry(ctx, cfg.Telemetry, opts.Version)
		if err != nil {
			logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
		} else {
			mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
		}
	}

	var holder *config.ConfigHolder
	if opts.Loader != nil {
		holder = config.NewConfigHolder(cfg, opts.Loader)
	}

	logger.Info().
		Str(log.FieldVersion, opts.Version).
		Str("api_listen", cfg.HTTP.ListenAddr).
		Str("raw_listen", rawListen(cfg.Raw)).
		Str("cache_backend", cfg.Cache.Backend).
		Str("upstream", config.MaskURL(cfg.Cache.UpstreamURL)).
		Msg("daemon bootstrapped")

	return NewApp(logger, mgr, holder), nil
}

func rawListen(c config.RawConfig) string {
	if !c.Enabled {
		return "disabled"
	}
	return c.ListenAddr
}

// NewStore builds the configured cache backend and its close function.
func NewStore(ctx context.Context, c config.CacheConfig) (cache.Store, ShutdownHook, error) {
	switch c.Backend {
	case config.CacheBackendMemory, "":
		s := cache.NewMemoryStore(c.CleanupInterval)
		return s, func(context.Context) error { s.Stop(); return nil }, nil
	case config.CacheBackendRedis:
		s, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil
	case config.CacheBackendBadger:
		s, err := cache.OpenBadgerStore(c.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil
	case config.CacheBackendNone:
		return cache.NoopStore{}, func(context.Context) error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// initTelemetry initializes OpenTelemetry tracing.
func initTelemetry(ctx context.Context, c config.TelemetryConfig, version string) (*telemetry.Provider, error) {
	telCfg := telemetry.Config{
		Enabled:        true,
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		ExporterType:   c.ExporterType,
		Endpoint:       c.Endpoint,
		SamplingRate:   c.SamplingRate,
	}

	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	logger := log.WithComponent("daemon")
	logger.Info().
		Str("service", telCfg.ServiceName).
		Str("endpoint", telCfg.Endpoint).
		Float64("sampling_rate", telCfg.SamplingRate).
		Msg("Telemetry initialized")
	return provider, nil
}
