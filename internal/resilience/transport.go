// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"context"
	"errors"
	"net/http"
)

// Transport fails fast with ErrCircuitOpen while its breaker is open.
// Transport errors and 5xx responses count as failures; a cancelled
// request counts as neither.
type Transport struct {
	base    http.RoundTripper
	breaker *CircuitBreaker
}

// NewTransport guards base with breaker.
func NewTransport(base http.RoundTripper, breaker *CircuitBreaker) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, breaker: breaker}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.breaker.Allow(); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	switch {
	case err != nil && errors.Is(req.Context().Err(), context.Canceled):
		t.breaker.Release()
	case err != nil:
		t.breaker.Failure()
	case resp.StatusCode >= http.StatusInternalServerError:
		t.breaker.Failure()
	default:
		t.breaker.Success()
	}
	return resp, err
}
