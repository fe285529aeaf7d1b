// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader builds an AppConfig from defaults, an optional YAML file and the
// environment.
type Loader struct {
	configPath string
	consumed   map[string]struct{}
}

// NewLoader creates a loader. An empty path means ENV-only configuration.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Path returns the configured file path.
func (l *Loader) Path() string { return l.configPath }

// Load applies precedence ENV > file > defaults and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	l.consumed = make(map[string]struct{})
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}
	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ConsumedEnvKeys lists the HDRKIT_* variables the last Load applied.
func (l *Loader) ConsumedEnvKeys() []string {
	keys := make([]string, 0, len(l.consumed))
	for k := range l.consumed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// loadFile decodes a YAML file over cfg with STRICT parsing.
// Unknown fields are fatal to prevent silent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) track(key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		l.consumed[key] = struct{}{}
	}
}

func (l *Loader) envString(key, def string) string {
	l.track(key)
	return ParseString(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.track(key)
	return ParseInt(key, def)
}

func (l *Loader) envInt64(key string, def int64) int64 {
	l.track(key)
	return ParseInt64(key, def)
}

func (l *Loader) envUint64(key string, def uint64) uint64 {
	l.track(key)
	return ParseUint64(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.track(key)
	return ParseBool(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.track(key)
	return ParseDuration(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.track(key)
	return ParseFloat(key, def)
}

func (l *Loader) envList(key string, def []string) []string {
	l.track(key)
	return ParseList(key, def)
}

// mergeEnv overlays HDRKIT_* variables. Keys match the comments on AppConfig.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString("HDRKIT_LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = l.envString("HDRKIT_DATA_DIR", cfg.DataDir)

	h := &cfg.HTTP
	h.ListenAddr = l.envString("HDRKIT_LISTEN", h.ListenAddr)
	h.TrustedProxies = l.envList("HDRKIT_TRUSTED_PROXIES", h.TrustedProxies)
	h.HSTSMaxAge = l.envUint64("HDRKIT_HSTS_MAX_AGE", h.HSTSMaxAge)
	h.HSTSIncludeSubdomains = l.envBool("HDRKIT_HSTS_INCLUDE_SUBDOMAINS", h.HSTSIncludeSubdomains)
	h.FilesCacheControl = l.envString("HDRKIT_FILES_CACHE_CONTROL", h.FilesCacheControl)
	h.DefaultCacheControl = l.envString("HDRKIT_DEFAULT_CACHE_CONTROL", h.DefaultCacheControl)
	h.RateLimitRequests = l.envInt("HDRKIT_RATE_LIMIT", h.RateLimitRequests)
	h.RateLimitWindow = l.envDuration("HDRKIT_RATE_LIMIT_WINDOW", h.RateLimitWindow)
	h.ShutdownTimeout = l.envDuration("HDRKIT_SHUTDOWN_TIMEOUT", h.ShutdownTimeout)

	r := &cfg.Raw
	r.Enabled = l.envBool("HDRKIT_RAW_ENABLED", r.Enabled)
	r.ListenAddr = l.envString("HDRKIT_RAW_LISTEN", r.ListenAddr)
	r.MaxHeaderBytes = l.envInt("HDRKIT_RAW_MAX_HEADER_BYTES", r.MaxHeaderBytes)
	r.ReadTimeout = l.envDuration("HDRKIT_RAW_READ_TIMEOUT", r.ReadTimeout)
	r.WriteTimeout = l.envDuration("HDRKIT_RAW_WRITE_TIMEOUT", r.WriteTimeout)
	r.IdleTimeout = l.envDuration("HDRKIT_RAW_IDLE_TIMEOUT", r.IdleTimeout)
	r.AcceptRate = l.envFloat("HDRKIT_RAW_ACCEPT_RATE", r.AcceptRate)
	r.AcceptBurst = l.envInt("HDRKIT_RAW_ACCEPT_BURST", r.AcceptBurst)

	c := &cfg.Cache
	c.Backend = l.envString("HDRKIT_CACHE_BACKEND", c.Backend)
	c.UpstreamURL = l.envString("HDRKIT_UPSTREAM_URL", c.UpstreamURL)
	c.Shared = l.envBool("HDRKIT_CACHE_SHARED", c.Shared)
	c.StaleTTL = l.envDuration("HDRKIT_CACHE_STALE_TTL", c.StaleTTL)
	c.MaxBodyBytes = l.envInt64("HDRKIT_CACHE_MAX_BODY_BYTES", c.MaxBodyBytes)
	c.UpstreamTimeout = l.envDuration("HDRKIT_UPSTREAM_TIMEOUT", c.UpstreamTimeout)
	c.CleanupInterval = l.envDuration("HDRKIT_CACHE_CLEANUP_INTERVAL", c.CleanupInterval)
	c.Redis.Addr = l.envString("HDRKIT_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = l.envString("HDRKIT_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = l.envInt("HDRKIT_REDIS_DB", c.Redis.DB)
	c.Redis.KeyPrefix = l.envString("HDRKIT_REDIS_KEY_PREFIX", c.Redis.KeyPrefix)
	c.BadgerDir = l.envString("HDRKIT_CACHE_BADGER_DIR", c.BadgerDir)
	c.BreakerThreshold = l.envInt("HDRKIT_UPSTREAM_BREAKER_THRESHOLD", c.BreakerThreshold)
	c.BreakerReset = l.envDuration("HDRKIT_UPSTREAM_BREAKER_RESET", c.BreakerReset)

	t := &cfg.Telemetry
	t.Enabled = l.envBool("HDRKIT_TELEMETRY_ENABLED", t.Enabled)
	t.ExporterType = l.envString("HDRKIT_TELEMETRY_EXPORTER", t.ExporterType)
	t.Endpoint = l.envString("HDRKIT_TELEMETRY_ENDPOINT", t.Endpoint)
	t.SamplingRate = l.envFloat("HDRKIT_TELEMETRY_SAMPLING_RATE", t.SamplingRate)
	t.Environment = l.envString("HDRKIT_ENV", t.Environment)
}
