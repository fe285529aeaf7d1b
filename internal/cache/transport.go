// SPDX-License-Identifier: MIT

package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/metrics"
	"github.com/ManuGH/hdrkit/internal/platform/httpx"
	"github.com/ManuGH/hdrkit/internal/telemetry"
)

// XCache reports how the caching transport produced a response.
const XCache = "X-Cache"

// X-Cache values.
const (
	Hit         = "HIT"
	Miss        = "MISS"
	Revalidated = "REVALIDATED"
	Bypass      = "BYPASS"

	onlyIfCached = "ONLY_IF_CACHED"
)

const (
	defaultStaleTTL     = time.Hour
	defaultMaxBodyBytes = 8 << 20
)

// Options tune the caching transport.
type Options struct {
	// Shared makes the cache honour s-maxage and refuse private responses.
	Shared bool
	// StaleTTL keeps entries with a Last-Modified validator this long past
	// their freshness lifetime so they can be revalidated.
	StaleTTL time.Duration
	// MaxBodyBytes bounds the size of stored bodies.
	MaxBodyBytes int64
	// Timeout bounds each upstream round trip made by NewClient.
	Timeout time.Duration
	// Base is the upstream transport NewClient instruments and caches over.
	// Nil selects the hardened httpx transport.
	Base http.RoundTripper
}

func (o Options) withDefaults() Options {
	if o.StaleTTL <= 0 {
		o.StaleTTL = defaultStaleTTL
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	return o
}

// Transport is an http.RoundTripper that answers GET requests from a Store
// while the stored response is fresh.
type Transport struct {
	base   http.RoundTripper
	store  Store
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// NewTransport wraps base with a response cache backed by store.
func NewTransport(base http.RoundTripper, store Store, opts Options) *Transport {
	return &Transport{
		base:   base,
		store:  store,
		opts:   opts.withDefaults(),
		logger: log.WithComponent("cache"),
		now:    time.Now,
	}
}

// NewClient returns a client whose transport caches through store on top of
// the hardened, traced upstream transport.
func NewClient(store Store, opts Options) *http.Client {
	base := opts.Base
	if base == nil {
		base = httpx.NewTransport(opts.Timeout)
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewTransport(otelhttp.NewTransport(base), store, opts),
	}
}

func cacheKey(req *http.Request) string {
	return http.MethodGet + " " + req.URL.String()
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := cacheKey(req)
	logger := t.logger.With().Str(log.FieldCacheKey, key).Logger()

	if req.Method != http.MethodGet {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if isUnsafe(req.Method) && resp.StatusCode < http.StatusBadRequest {
			t.store.Delete(ctx, key)
			logger.Debug().Str(log.FieldEvent, "cache.invalidated").Str(log.FieldMethod, req.Method).Msg("unsafe method invalidated entry")
		}
		t.record(req, logger, Bypass)
		resp.Header.Set(XCache, Bypass)
		return resp, nil
	}

	reqHeaders := header.FromHTTP(req.Header)
	reqCC := cacheControl(reqHeaders)

	if present(reqCC, header.NoStore) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		t.record(req, logger, Bypass)
		resp.Header.Set(XCache, Bypass)
		return resp, nil
	}

	entry, ok := t.store.Get(ctx, key)
	if ok && !entry.matches(req) {
		logger.Debug().Str(log.FieldEvent, "cache.vary_mismatch").Msg("stored variant does not match request")
		ok = false
	}
	if !ok {
		if reqCC.Has(header.OnlyIfCached) {
			t.record(req, logger, onlyIfCached)
			return gatewayTimeout(req), nil
		}
		return t.fetch(req, key, reqHeaders, logger)
	}

	now := t.now()
	entryHeaders := entry.Headers()
	age := CurrentAge(entry, now)
	lifetime := Lifetime(entryHeaders, entry.ResponseTime, t.opts.Shared)
	if satisfies(reqCC, cacheControl(entryHeaders), age, lifetime) {
		t.record(req, logger, Hit)
		resp := entry.response(req)
		resp.Header.Set("Age", strconv.FormatInt(int64(age/time.Second), 10))
		resp.Header.Set(XCache, Hit)
		return resp, nil
	}
	if reqCC.Has(header.OnlyIfCached) {
		t.record(req, logger, onlyIfCached)
		return gatewayTimeout(req), nil
	}

	lm, err := header.Typed(entryHeaders, header.ParseLastModified)
	if err != nil {
		return t.fetch(req, key, reqHeaders, logger)
	}
	return t.revalidate(req, key, entry, header.IfModifiedSince(lm), reqHeaders, logger)
}

// fetch forwards req and stores the response when allowed.
func (t *Transport) fetch(req *http.Request, key string, reqHeaders *header.Headers, logger zerolog.Logger) (*http.Response, error) {
	requested := t.now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	received := t.now()
	t.record(req, logger, Miss)
	resp.Header.Set(XCache, Miss)
	t.maybeStore(req, key, resp, reqHeaders, requested, received, logger)
	return resp, nil
}

func (t *Transport) revalidate(req *http.Request, key string, entry *Entry, ims header.IfModifiedSince,
	reqHeaders *header.Headers, logger zerolog.Logger) (*http.Response, error) {
	cond := req.Clone(req.Context())
	cond.Header.Set(ims.Name(), ims.String())

	requested := t.now()
	resp, err := t.base.RoundTrip(cond)
	if err != nil {
		return nil, err
	}
	received := t.now()

	if resp.StatusCode != http.StatusNotModified {
		t.record(req, logger, Miss)
		resp.Header.Set(XCache, Miss)
		t.maybeStore(req, key, resp, reqHeaders, requested, received, logger)
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	refreshHeaders(entry.Header, resp.Header)
	entry.RequestTime = requested
	entry.ResponseTime = received
	t.put(req, key, entry, logger)

	t.record(req, logger, Revalidated)
	out := entry.response(req)
	out.Header.Set(XCache, Revalidated)
	return out, nil
}

// refreshHeaders applies the header fields of a 304 to a stored entry
// (RFC 7234 section 4.3.4). Framing fields stay those of the stored body.
func refreshHeaders(stored, fresh http.Header) {
	for name, values := range fresh {
		switch name {
		case "Content-Length", "Transfer-Encoding", "Connection", XCache:
			continue
		}
		stored[name] = append([]string(nil), values...)
	}
}

func (t *Transport) maybeStore(req *http.Request, key string, resp *http.Response, reqHeaders *header.Headers,
	requested, received time.Time, logger zerolog.Logger) {
	if !Storable(resp.StatusCode, reqHeaders, header.FromHTTP(resp.Header), received, t.opts.Shared) {
		metrics.RecordCacheStore(false)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.opts.MaxBodyBytes+1))
	if err != nil {
		// The caller still sees the failure after the bytes that did arrive.
		resp.Body = readCloser{io.MultiReader(bytes.NewReader(body), errReader{err}), resp.Body}
		logger.Debug().Err(err).Msg("body read failed, not storing")
		metrics.RecordCacheStore(false)
		return
	}
	if int64(len(body)) > t.opts.MaxBodyBytes {
		resp.Body = readCloser{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
		logger.Debug().Int("limit", int(t.opts.MaxBodyBytes)).Msg("body too large, not storing")
		metrics.RecordCacheStore(false)
		return
	}
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	stored := resp.Header.Clone()
	stored.Del(XCache)
	t.put(req, key, &Entry{
		Status:       resp.StatusCode,
		Header:       stored,
		Body:         body,
		RequestTime:  requested,
		ResponseTime: received,
		Vary:         selectingValues(req.Header, resp.Header),
	}, logger)
}

func (t *Transport) put(req *http.Request, key string, e *Entry, logger zerolog.Logger) {
	hs := e.Headers()
	ttl := Lifetime(hs, e.ResponseTime, t.opts.Shared)
	if hs.Has(header.NameLastModified) {
		ttl += t.opts.StaleTTL
	}
	if ttl <= 0 {
		metrics.RecordCacheStore(false)
		return
	}
	t.store.Set(req.Context(), key, e, ttl)
	metrics.RecordCacheStore(true)
	logger.Debug().Str(log.FieldEvent, "cache.stored").Dur("ttl", ttl).Msg("response stored")
}

func (t *Transport) record(req *http.Request, logger zerolog.Logger, result string) {
	metrics.RecordCacheLookup(strings.ToLower(result))
	trace.SpanFromContext(req.Context()).SetAttributes(telemetry.CacheAttributes(result, "")...)
	logger.Debug().Str(log.FieldEvent, "cache.lookup").Str(log.FieldCacheResult, result).Msg("cache lookup")
}

func (e *Entry) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

func gatewayTimeout(req *http.Request) *http.Response {
	return &http.Response{
		Status:     fmt.Sprintf("%d %s", http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout)),
		StatusCode: http.StatusGatewayTimeout,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{XCache: []string{Miss}},
		Body:       http.NoBody,
		Request:    req,
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

type readCloser struct {
	io.Reader
	io.Closer
}
