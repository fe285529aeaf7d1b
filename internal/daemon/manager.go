// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/config"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/server"
)

const (
	apiReadHeaderTimeout = 5 * time.Second
	apiReadTimeout       = 30 * time.Second
	apiWriteTimeout      = 60 * time.Second
	apiIdleTimeout       = 120 * time.Second
	apiMaxHeaderBytes    = 1 << 20

	// defaultShutdownTimeout applies when the config leaves it unset.
	defaultShutdownTimeout = 10 * time.Second
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start binds all listeners, serves them and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)

	// Ready is closed once every listener is bound.
	Ready() <-chan struct{}

	// APIAddr and RawAddr report the bound addresses ("" before Ready).
	APIAddr() string
	RawAddr() string
}

// manager implements the Manager interface.
type manager struct {
	cfg  config.AppConfig
	deps Deps

	apiServer *http.Server
	rawServer *server.Server
	apiLn     net.Listener
	rawLn     net.Listener
	serving   sync.WaitGroup

	shutdownHooks []namedHook

	started  bool
	stopping bool
	ready    chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex

	logger zerolog.Logger
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given dependencies.
func NewManager(deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		cfg:           deps.Config,
		deps:          deps,
		logger:        deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
		ready:         make(chan struct{}),
		stopped:       make(chan struct{}),
	}, nil
}

func (m *manager) Ready() <-chan struct{} { return m.ready }

func (m *manager) APIAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiLn == nil {
		return ""
	}
	return m.apiLn.Addr().String()
}

func (m *manager) RawAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rawLn == nil {
		return ""
	}
	return m.rawLn.Addr().String()
}

// Start binds every listener up front so address conflicts fail fast,
// then serves until ctx is cancelled, Shutdown is called or a server fails.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerAlreadyStarted
	}
	if err := m.listen(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.started = true

	errChan := make(chan error, 2)
	m.startAPIServer(errChan)
	if m.rawLn != nil {
		m.startRawServer(ctx, errChan)
	}
	m.mu.Unlock()
	close(m.ready)

	m.logger.Info().
		Str(log.FieldEvent, "manager.started").
		Str("api_addr", m.APIAddr()).
		Str("raw_addr", m.RawAddr()).
		Dur("shutdown_timeout", m.shutdownTimeout()).
		Msg("daemon manager started")

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("Server error, initiating shutdown")
		// Use a detached-but-bounded context so shutdown can complete even if parent is canceled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout())
		defer cancel()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout())
		defer cancel()
		return m.Shutdown(shutdownCtx)
	case <-m.stopped:
		return nil
	}
}

// listen binds the API and raw listeners. Callers hold m.mu.
func (m *manager) listen() error {
	apiLn, err := net.Listen("tcp", m.cfg.HTTP.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: API listener %s: %v", ErrServerStartFailed, m.cfg.HTTP.ListenAddr, err)
	}
	if m.cfg.Raw.Enabled {
		rawLn, err := net.Listen("tcp", m.cfg.Raw.ListenAddr)
		if err != nil {
			_ = apiLn.Close()
			return fmt.Errorf("%w: raw listener %s: %v", ErrServerStartFailed, m.cfg.Raw.ListenAddr, err)
		}
		m.rawLn = rawLn
	}
	m.apiLn = apiLn
	return nil
}

func (m *manager) startAPIServer(errChan chan<- error) {
	m.apiServer = &http.Server{
		Handler:           m.deps.APIHandler,
		ReadHeaderTimeout: apiReadHeaderTimeout,
		ReadTimeout:       apiReadTimeout,
		WriteTimeout:      apiWriteTimeout,
		IdleTimeout:       apiIdleTimeout,
		MaxHeaderBytes:    apiMaxHeaderBytes,
	}

	srv, ln := m.apiServer, m.apiLn
	m.serving.Add(1)
	go func() {
		defer m.serving.Done()
		m.logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("API server listening (HTTP)")

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str(log.FieldEvent, "api.server.failed").
				Msg("API server failed")
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()
}

func (m *manager) startRawServer(ctx context.Context, errChan chan<- error) {
	m.rawServer = server.New(server.Config{
		MaxHeaderBytes: m.cfg.Raw.MaxHeaderBytes,
		ReadTimeout:    m.cfg.Raw.ReadTimeout,
		WriteTimeout:   m.cfg.Raw.WriteTimeout,
		IdleTimeout:    m.cfg.Raw.IdleTimeout,
		AcceptRate:     m.cfg.Raw.AcceptRate,
		AcceptBurst:    m.cfg.Raw.AcceptBurst,
	}, m.deps.RawHandler)

	srv, ln := m.rawServer, m.rawLn
	m.serving.Add(1)
	go func() {
		defer m.serving.Done()
		if err := srv.Serve(ctx, ln); err != nil && !errors.Is(err, server.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str(log.FieldEvent, "raw.server.failed").
				Msg("raw server failed")
			errChan <- fmt.Errorf("raw server: %w", err)
		}
	}()
}

func (m *manager) shutdownTimeout() time.Duration {
	if m.cfg.HTTP.ShutdownTimeout > 0 {
		return m.cfg.HTTP.ShutdownTimeout
	}
	return defaultShutdownTimeout
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()
	defer close(m.stopped)

	m.logger.Info().Msg("Shutting down daemon manager")

	// Create a bounded shutdown context independent from caller cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout())
	defer cancel()

	var errs []error

	if m.apiServer != nil {
		m.logger.Debug().Msg("Shutting down API server")
		if err := m.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}

	if m.rawServer != nil {
		m.logger.Debug().Msg("Shutting down raw server")
		if err := m.rawServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("raw server shutdown: %w", err))
		}
	}
	m.serving.Wait()

	// Execute shutdown hooks in reverse order (LIFO)
	m.logger.Debug().Int("hooks", len(hooks)).Msg("Executing shutdown hooks")
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Msg("Shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Str(log.FieldEvent, "manager.stopped").Msg("Daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{
		name: name,
		hook: hook,
	})
	m.logger.Debug().Str("hook", name).Msg("Registered shutdown hook")
}
