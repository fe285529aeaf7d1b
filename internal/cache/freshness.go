// SPDX-License-Identifier: MIT

package cache

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/metrics"
)

const (
	// heuristicFraction of (Date - Last-Modified) is used when a response
	// carries no explicit lifetime.
	heuristicFraction = 10
	heuristicCap      = 24 * time.Hour
)

// cacheControl returns the parsed Cache-Control of hs; absent or
// unparseable headers yield an empty list.
func cacheControl(hs *header.Headers) header.CacheControl {
	cc, err := header.Typed(hs, header.ParseCacheControl)
	if errors.Is(err, header.ErrNotPresent) {
		return nil
	}
	metrics.RecordHeaderParse(header.NameCacheControl, err)
	if err != nil {
		return nil
	}
	return cc
}

// present reports kind whether or not it was sent with an argument.
// Field-list forms such as private="Set-Cookie" parse as extensions and
// are treated as the unqualified directive.
func present(cc header.CacheControl, kind header.DirectiveKind) bool {
	if cc.Has(kind) {
		return true
	}
	_, ok := cc.Extension(kind.String())
	return ok
}

func dateOf(hs *header.Headers, fallback time.Time) time.Time {
	d, err := header.Typed(hs, header.ParseDate)
	if err != nil {
		return fallback
	}
	return d.Time
}

// Lifetime returns the freshness lifetime of a response. s-maxage applies
// to shared caches only and wins over max-age; Expires is measured from
// Date (or received when Date is absent); the heuristic applies last.
func Lifetime(hs *header.Headers, received time.Time, shared bool) time.Duration {
	cc := cacheControl(hs)
	if shared {
		if secs, ok := cc.Seconds(header.SMaxAgeKind); ok {
			return time.Duration(secs) * time.Second
		}
	}
	if secs, ok := cc.Seconds(header.MaxAgeKind); ok {
		return time.Duration(secs) * time.Second
	}

	date := dateOf(hs, received)
	if hs.Has(header.NameExpires) {
		exp, err := header.Typed(hs, header.ParseExpires)
		if err != nil {
			// An invalid Expires means already expired.
			return 0
		}
		if d := exp.Sub(date); d > 0 {
			return d
		}
		return 0
	}

	lm, err := header.Typed(hs, header.ParseLastModified)
	if err != nil {
		return 0
	}
	d := date.Sub(lm.Time) / heuristicFraction
	if d < 0 {
		return 0
	}
	return min(d, heuristicCap)
}

// CurrentAge computes the age of e at now following RFC 7234 section 4.2.3.
func CurrentAge(e *Entry, now time.Time) time.Duration {
	hs := e.Headers()

	apparent := e.ResponseTime.Sub(dateOf(hs, e.ResponseTime))
	if apparent < 0 {
		apparent = 0
	}
	var ageValue time.Duration
	if raw, ok := hs.Get("Age"); ok {
		if v, ok := raw.One(); ok {
			if secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && secs > 0 {
				ageValue = time.Duration(secs) * time.Second
			}
		}
	}
	correctedAge := ageValue + e.ResponseTime.Sub(e.RequestTime)
	initial := max(apparent, correctedAge)
	return initial + now.Sub(e.ResponseTime)
}

// Storable reports whether a GET response may be stored. no-store on either
// side forbids storage, as does private (qualified or not) in a shared cache. A response must
// also carry a lifetime or a Last-Modified validator to be worth keeping,
// and must not vary on "*".
func Storable(status int, req, resp *header.Headers, received time.Time, shared bool) bool {
	if status != http.StatusOK {
		return false
	}
	reqCC := cacheControl(req)
	respCC := cacheControl(resp)
	if present(reqCC, header.NoStore) || present(respCC, header.NoStore) {
		return false
	}
	if _, wildcard := varyFields(resp.HTTP()); wildcard {
		return false
	}
	if shared {
		if present(respCC, header.Private) {
			return false
		}
		if req.Has("Authorization") && !present(respCC, header.Public) &&
			!present(respCC, header.MustRevalidate) && !respCC.Has(header.SMaxAgeKind) {
			return false
		}
	}
	return Lifetime(resp, received, shared) > 0 || resp.Has(header.NameLastModified)
}

// needsRevalidation reports whether the response directives demand a
// round trip before every reuse.
func needsRevalidation(respCC header.CacheControl) bool {
	return present(respCC, header.NoCache)
}

// satisfies decides whether a stored response of the given age and lifetime
// may be served for a request carrying reqCC.
func satisfies(reqCC, respCC header.CacheControl, age, lifetime time.Duration) bool {
	if present(reqCC, header.NoCache) || needsRevalidation(respCC) {
		return false
	}
	if secs, ok := reqCC.Seconds(header.MaxAgeKind); ok && age > time.Duration(secs)*time.Second {
		return false
	}
	if secs, ok := reqCC.Seconds(header.MinFreshKind); ok && lifetime-age < time.Duration(secs)*time.Second {
		return false
	}
	if age < lifetime {
		return true
	}
	if present(respCC, header.MustRevalidate) || present(respCC, header.ProxyRevalidate) {
		return false
	}
	if secs, ok := reqCC.Seconds(header.MaxStaleKind); ok {
		return age-lifetime <= time.Duration(secs)*time.Second
	}
	// A bare max-stale accepts any staleness.
	_, anyStale := reqCC.Extension("max-stale")
	return anyStale
}
