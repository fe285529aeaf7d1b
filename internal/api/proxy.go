// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/hdrkit/internal/cache"
	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/resilience"
	"github.com/ManuGH/hdrkit/internal/telemetry"
)

// hopByHop are never forwarded (RFC 7230 section 6.1).
var hopByHop = []string{
	header.NameConnection,
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// stripHopByHop removes hop-by-hop fields, including those the typed
// Connection header names.
func stripHopByHop(h http.Header) {
	if conn, err := header.Typed(header.FromHTTP(h), header.ParseConnection); err == nil {
		for _, opt := range conn {
			if opt.Kind == header.HeaderOption {
				h.Del(opt.Field)
			}
		}
	}
	for _, name := range hopByHop {
		h.Del(name)
	}
}

// withinBase reports whether rest, joined below base, stays under base.
func withinBase(base, rest string) bool {
	root := path.Clean("/" + base)
	joined := path.Clean(root + "/" + rest)
	return joined == root || strings.HasPrefix(joined, strings.TrimSuffix(root, "/")+"/")
}

// handleProxy forwards /proxy/<path> to the upstream through the caching
// client. The X-Cache header on the response reports the cache outcome.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if s.upstream == nil {
		writeError(w, r, http.StatusNotFound, "proxy_disabled", "no upstream configured")
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "proxy")

	rest := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if isPathTraversal(rest) || !withinBase(s.upstream.Path, rest) {
		writeError(w, r, http.StatusBadRequest, "path_escape", "path leaves the upstream base")
		return
	}

	target := *s.upstream
	target.Path = s.upstream.Path + "/" + rest
	target.RawPath = ""
	target.RawQuery = r.URL.RawQuery

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	out.ContentLength = r.ContentLength
	out.Header = r.Header.Clone()
	stripHopByHop(out.Header)

	resp, err := s.client.Do(out)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Cache.BreakerReset.Seconds())))
			writeServiceUnavailable(w, r, err)
			return
		}
		span := trace.SpanFromContext(r.Context())
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(err, "upstream")...)
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "proxy.upstream_error").
			Str("upstream", target.Redacted()).
			Msg("upstream request failed")
		writeError(w, r, http.StatusBadGateway, "bad_gateway", "upstream request failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	dst := w.Header()
	for name, values := range resp.Header {
		dst[name] = values
	}
	stripHopByHop(dst)
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		logger.Debug().Err(err).Int64(log.FieldBytes, n).Msg("proxy body copy interrupted")
		return
	}
	logger.Debug().
		Str(log.FieldEvent, "proxy.served").
		Str(log.FieldCacheResult, resp.Header.Get(cache.XCache)).
		Int(log.FieldStatus, resp.StatusCode).
		Int64(log.FieldBytes, n).
		Msg("proxied request")
}
