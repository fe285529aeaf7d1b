// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the header library over HTTP: header inspection,
// static files with conditional GET, a caching reverse proxy and
// operational endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/cache"
	"github.com/ManuGH/hdrkit/internal/config"
	"github.com/ManuGH/hdrkit/internal/health"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/middleware"
	"github.com/ManuGH/hdrkit/internal/platform/httpx"
	"github.com/ManuGH/hdrkit/internal/resilience"
)

// TracerName identifies spans created by the API router.
const TracerName = "hdrkit-api"

// Server holds the API dependencies.
type Server struct {
	cfg      config.AppConfig
	version  string
	store    cache.Store
	upstream *url.URL
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	health   *health.Manager
	logger   zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithVersion reports v on /healthz.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// healthChecker is implemented by stores that depend on a remote service.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// New builds the API server. When cfg.Cache.UpstreamURL is set, /proxy/
// forwards to it through a caching client backed by store.
func New(cfg config.AppConfig, store cache.Store, opts ...Option) (*Server, error) {
	if store == nil {
		store = cache.NoopStore{}
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: log.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.health = health.NewManager(s.version)
	s.health.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))
	if hc, ok := store.(healthChecker); ok {
		s.health.RegisterChecker(health.NewFuncChecker("cache_store", hc.HealthCheck))
	}

	if raw := cfg.Cache.UpstreamURL; raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse upstream url: %w", err)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		s.upstream = u

		var base http.RoundTripper = httpx.NewTransport(cfg.Cache.UpstreamTimeout)
		if cfg.Cache.BreakerThreshold > 0 {
			s.breaker = resilience.NewCircuitBreaker("upstream", cfg.Cache.BreakerThreshold, cfg.Cache.BreakerReset)
			base = resilience.NewTransport(base, s.breaker)
			s.health.RegisterChecker(health.Informational(health.NewFuncChecker("upstream_breaker", s.breakerClosed)))
		}
		s.client = cache.NewClient(store, cache.Options{
			Shared:       cfg.Cache.Shared,
			StaleTTL:     cfg.Cache.StaleTTL,
			MaxBodyBytes: cfg.Cache.MaxBodyBytes,
			Timeout:      cfg.Cache.UpstreamTimeout,
			Base:         base,
		})
	}
	return s, nil
}

func (s *Server) breakerClosed(context.Context) error {
	if s.breaker.State() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	return nil
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	h := s.cfg.HTTP
	proxies, err := middleware.ParseCIDRs(h.TrustedProxies)
	if err != nil {
		// Validate rejects these before we get here.
		s.logger.Warn().Err(err).Msg("ignoring invalid trusted proxies")
		proxies = nil
	}

	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		HSTS:                  h.HSTS(),
		TrustedProxies:        proxies,
		CachePolicy:           h.DefaultPolicy(),
		EnableMetrics:         true,
		EnableLogging:         true,
		RateLimitRequests:     h.RateLimitRequests,
		RateLimitWindow:       h.RateLimitWindow,
	}
	if s.cfg.Telemetry.Enabled {
		stack.TracingService = TracerName
	}
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/inspect", s.handleInspect)
		r.Post("/inspect", s.handleInspectBody)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleCacheClear)
	})

	files := http.StripPrefix("/files/", s.fileServer())
	r.Method(http.MethodGet, "/files/*", files)
	r.Method(http.MethodHead, "/files/*", files)

	r.Handle("/proxy/*", http.HandlerFunc(s.handleProxy))
	return r
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(r.Context())
	logger := log.WithContext(r.Context(), s.logger)
	logger.Info().
		Str(log.FieldEvent, "cache.cleared").
		Msg("cache cleared via API")
	w.WriteHeader(http.StatusNoContent)
}
