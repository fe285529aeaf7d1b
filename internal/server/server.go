// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/metrics"
)

// Handler responds to a request by writing to the Response.
type Handler interface {
	ServeHTTP1(*Response, *Request)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(*Response, *Request)

func (f HandlerFunc) ServeHTTP1(w *Response, r *Request) { f(w, r) }

// Config holds server limits and timeouts. Zero values select defaults.
type Config struct {
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration

	// AcceptRate bounds accepted connections per second; 0 disables the limit.
	AcceptRate  float64
	AcceptBurst int
}

const (
	defaultMaxHeaderBytes = 16 << 10
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.AcceptBurst <= 0 {
		c.AcceptBurst = 1
	}
	return c
}

type connState struct {
	conn   net.Conn
	active atomic.Bool
}

// Server accepts HTTP/1.x connections and dispatches requests to a Handler.
type Server struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger
	limiter *rate.Limiter

	closed atomic.Bool
	mu     sync.Mutex
	ln     net.Listener
	conns  map[*connState]struct{}
	wg     sync.WaitGroup
}

// New creates a server for h.
func New(cfg Config, h Handler) *Server {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.AcceptRate > 0 {
		limit = rate.Limit(cfg.AcceptRate)
	}
	return &Server{
		cfg:     cfg,
		handler: h,
		logger:  log.WithComponent("server"),
		limiter: rate.NewLimiter(limit, cfg.AcceptBurst),
		conns:   make(map[*connState]struct{}),
	}
}

// Serve accepts connections on ln until ctx is cancelled or Shutdown is called.
// It always returns a non-nil error; ErrServerClosed signals a clean stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.logger.Info().
		Str(log.FieldEvent, "server.listening").
		Str("addr", ln.Addr().String()).
		Msg("raw HTTP/1.x server listening")

	var tempDelay time.Duration
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return ErrServerClosed
		}
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				tempDelay = backoff(tempDelay)
				s.logger.Warn().Err(err).Dur("retry_in", tempDelay).Msg("accept error, retrying")
				time.Sleep(tempDelay)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		tempDelay = 0

		st := &connState{conn: conn}
		if !s.track(st) {
			_ = conn.Close()
			return ErrServerClosed
		}
		go s.serveConn(ctx, st)
	}
}

func backoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

func (s *Server) track(st *connState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.conns[st] = struct{}{}
	s.wg.Add(1)
	metrics.RawConnectionOpened()
	return true
}

func (s *Server) untrack(st *connState) {
	s.mu.Lock()
	delete(s.conns, st)
	s.mu.Unlock()
	metrics.RawConnectionClosed()
	s.wg.Done()
}

// Shutdown stops accepting, closes idle connections and waits for active
// ones to finish. When ctx expires first the remaining connections are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)

	s.mu.Lock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for st := range s.conns {
		if !st.active.Load() {
			_ = st.conn.SetReadDeadline(time.Now())
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for st := range s.conns {
			_ = st.conn.Close()
		}
		s.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

func (s *Server) serveConn(ctx context.Context, st *connState) {
	conn := st.conn
	defer s.untrack(st)
	defer func() { _ = conn.Close() }()

	ctx = log.ContextWithConnectionID(ctx, uuid.New().String())
	logger := log.WithContext(ctx, s.logger)
	br := bufio.NewReader(conn)

	for first := true; ; first = false {
		timeout := s.cfg.ReadTimeout
		if !first {
			timeout = s.cfg.IdleTimeout
		}
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		if s.closed.Load() {
			return
		}

		req, err := readRequest(br, s.cfg.MaxHeaderBytes)
		if err != nil {
			if isConnDone(err) || s.closed.Load() {
				return
			}
			logger.Debug().Err(err).Str(log.FieldEvent, "request.rejected").Msg("bad request")
			metrics.RecordRawBadRequest()
			s.reject(conn, statusFor(err))
			return
		}
		st.active.Store(true)
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		req.RemoteAddr = conn.RemoteAddr().String()
		req.ctx = ctx

		resp := NewResponse(conn)
		resp.logger = logger
		keepAlive := req.KeepAlive() && !s.closed.Load()
		resp.beforeHead = func(r *Response) {
			keepAlive = settleFraming(r, req, keepAlive)
		}

		if !s.dispatch(resp, req, logger) && resp.HeadWritten() {
			return
		}
		if err := finish(resp); err != nil {
			logger.Debug().Err(err).Msg("response write failed")
			return
		}
		if keepAlive && req.Method != http.MethodHead && resp.lengthMismatch() {
			logger.Warn().
				Str(log.FieldEvent, "response.length_mismatch").
				Int64(log.FieldBytes, resp.BytesWritten()).
				Msg("body did not match Content-Length, closing connection")
			keepAlive = false
		}
		metrics.RecordRawResponse(strconv.Itoa(int(resp.Status)))
		logger.Debug().
			Str(log.FieldEvent, "request.served").
			Str(log.FieldMethod, req.Method).
			Str(log.FieldPath, req.Target).
			Int(log.FieldStatus, int(resp.Status)).
			Int64(log.FieldBytes, resp.BytesWritten()).
			Bool("keep_alive", keepAlive).
			Msg("request served")

		if !keepAlive || resp.ended {
			_ = resp.End()
			return
		}
		if _, err := io.Copy(io.Discard, req.Body); err != nil {
			return
		}
		st.active.Store(false)
		if s.closed.Load() {
			return
		}
	}
}

// dispatch runs the handler and reports false when it panicked.
func (s *Server) dispatch(resp *Response, req *Request, logger zerolog.Logger) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			logger.Error().
				Str(log.FieldEvent, "panic.recovered").
				Str(log.FieldMethod, req.Method).
				Str(log.FieldPath, req.Target).
				Interface("panic_value", rec).
				Str("stack_trace", string(buf[:n])).
				Msg("panic recovered in raw handler")
			if !resp.HeadWritten() {
				resp.Status = http.StatusInternalServerError
				resp.Headers = header.NewHeaders()
			}
			ok = false
		}
	}()
	s.handler.ServeHTTP1(resp, req)
	return true
}

// finish gives bodiless responses an explicit zero length, then flushes.
func finish(r *Response) error {
	if r.ended {
		return nil
	}
	if !r.HeadWritten() && !r.Headers.Has("Content-Length") {
		_ = r.Headers.SetRaw("Content-Length", "0")
	}
	return r.Flush()
}

// settleFraming decides persistence once the handler's headers are final.
// A connection stays open only when the body length is declared.
func settleFraming(r *Response, req *Request, keepAlive bool) bool {
	if !r.Headers.Has(header.NameDate) {
		r.Headers.Set(header.Date(header.NewHTTPDate(time.Now())))
	}
	if keepAlive && !r.Headers.Has("Content-Length") {
		keepAlive = false
	}
	if conn, err := header.Typed(r.Headers, header.ParseConnection); err == nil &&
		conn.Has(header.ConnectionOption{Kind: header.Close}) {
		keepAlive = false
	}
	switch {
	case !keepAlive:
		r.Headers.Set(header.ConnectionClose())
	case req.Version == HTTP10:
		r.Headers.Set(header.ConnectionKeepAlive())
	}
	return keepAlive
}

func (s *Server) reject(conn net.Conn, status StatusCode) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	resp := NewResponse(conn)
	resp.Status = status
	resp.Headers.Set(header.ConnectionClose())
	resp.Headers.Set(header.Date(header.NewHTTPDate(time.Now())))
	body := status.String() + "\n"
	_ = resp.Headers.SetRaw("Content-Type", "text/plain; charset=utf-8")
	_ = resp.Headers.SetRaw("Content-Length", strconv.Itoa(len(body)))
	_, _ = io.WriteString(resp, body)
	_ = resp.End()
	metrics.RecordRawResponse(strconv.Itoa(int(status)))
}

func isConnDone(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
