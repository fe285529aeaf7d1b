// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"

	"github.com/ManuGH/hdrkit/internal/validate"
)

// Validate checks cfg and reports every failure at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if !validate.LogLevel(cfg.LogLevel).IsValid() {
		v.AddError("logLevel", validate.ErrInvalidLogLevel.Message, cfg.LogLevel)
	}
	v.Directory("dataDir", cfg.DataDir, false)

	h := cfg.HTTP
	v.ListenAddr("http.listenAddr", h.ListenAddr)
	v.CIDRList("http.trustedProxies", h.TrustedProxies)
	v.CacheControl("http.filesCacheControl", h.FilesCacheControl)
	v.CacheControl("http.defaultCacheControl", h.DefaultCacheControl)
	v.NonNegative("http.rateLimitRequests", h.RateLimitRequests)
	if h.RateLimitRequests > 0 {
		v.PositiveDuration("http.rateLimitWindow", h.RateLimitWindow)
	}
	v.PositiveDuration("http.shutdownTimeout", h.ShutdownTimeout)

	if r := cfg.Raw; r.Enabled {
		v.ListenAddr("raw.listenAddr", r.ListenAddr)
		v.Positive("raw.maxHeaderBytes", r.MaxHeaderBytes)
		v.PositiveDuration("raw.readTimeout", r.ReadTimeout)
		v.PositiveDuration("raw.writeTimeout", r.WriteTimeout)
		v.PositiveDuration("raw.idleTimeout", r.IdleTimeout)
		v.Custom("raw.acceptRate", r.AcceptRate, func(any) error {
			if r.AcceptRate < 0 {
				return errors.New("accept rate cannot be negative")
			}
			return nil
		})
		v.Positive("raw.acceptBurst", r.AcceptBurst)
		if r.ListenAddr == h.ListenAddr {
			v.AddError("raw.listenAddr", "must differ from http.listenAddr", r.ListenAddr)
		}
	}

	c := cfg.Cache
	v.OneOf("cache.backend", c.Backend, []string{CacheBackendMemory, CacheBackendRedis, CacheBackendBadger, CacheBackendNone})
	if c.UpstreamURL != "" {
		v.URL("cache.upstreamURL", c.UpstreamURL, []string{"http", "https"})
	}
	v.PositiveDuration("cache.upstreamTimeout", c.UpstreamTimeout)
	v.NonNegative("cache.breakerThreshold", c.BreakerThreshold)
	if c.BreakerThreshold > 0 {
		v.PositiveDuration("cache.breakerReset", c.BreakerReset)
	}
	v.Custom("cache.staleTTL", c.StaleTTL, func(any) error {
		if c.StaleTTL < 0 {
			return errors.New("duration cannot be negative")
		}
		return nil
	})
	v.Custom("cache.maxBodyBytes", c.MaxBodyBytes, func(any) error {
		if c.MaxBodyBytes <= 0 {
			return errors.New("value must be positive")
		}
		return nil
	})
	switch c.Backend {
	case CacheBackendMemory:
		v.PositiveDuration("cache.cleanupInterval", c.CleanupInterval)
	case CacheBackendRedis:
		v.NotEmpty("cache.redis.addr", c.Redis.Addr)
		v.Range("cache.redis.db", c.Redis.DB, 0, 15)
		v.NotEmpty("cache.redis.keyPrefix", c.Redis.KeyPrefix)
	case CacheBackendBadger:
		v.NotEmpty("cache.badgerDir", c.BadgerDir)
		if c.BadgerDir != "" && c.BadgerDir == cfg.DataDir {
			v.AddError("cache.badgerDir", "must differ from dataDir", c.BadgerDir)
		}
	}

	if t := cfg.Telemetry; t.Enabled {
		v.OneOf("telemetry.exporterType", t.ExporterType, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", t.Endpoint)
		v.Fraction("telemetry.samplingRate", t.SamplingRate)
	}

	return v.Err()
}
