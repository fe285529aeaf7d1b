// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/metrics"
	"github.com/ManuGH/hdrkit/internal/telemetry"
)

const maxInspectBody = 64 << 10

// InspectedHeader is the typed view of one known header.
type InspectedHeader struct {
	Name      string   `json:"name"`
	Raw       []string `json:"raw"`
	Canonical string   `json:"canonical,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// InspectResponse is returned by /api/inspect.
type InspectResponse struct {
	Headers []InspectedHeader `json:"headers"`
	Unknown []string          `json:"unknown,omitempty"`
}

// InspectRequest is the POST /api/inspect body.
type InspectRequest struct {
	Headers map[string][]string `json:"headers"`
}

// Inspect parses every known header in hs with its typed model.
// Names without a typed model are listed in Unknown.
func Inspect(hs *header.Headers) InspectResponse {
	resp := InspectResponse{Headers: []InspectedHeader{}}
	hs.Each(func(name string, values header.Raw) {
		if !header.IsKnown(name) {
			resp.Unknown = append(resp.Unknown, name)
			return
		}
		item := InspectedHeader{Name: canonicalName(name), Raw: values}
		h, err := header.ParseKnown(name, values)
		metrics.RecordHeaderParse(item.Name, err)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Canonical = h.String()
		}
		resp.Headers = append(resp.Headers, item)
	})
	sort.Slice(resp.Headers, func(i, j int) bool { return resp.Headers[i].Name < resp.Headers[j].Name })
	sort.Strings(resp.Unknown)
	return resp
}

// canonicalName maps a known header to its registered spelling so metric
// labels stay bounded.
func canonicalName(name string) string {
	for _, known := range header.KnownNames() {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return name
}

// handleInspect reports the typed form of the request's own headers.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	resp := Inspect(header.FromHTTP(r.Header))
	annotateSpan(r.Context(), resp)
	writeJSON(w, http.StatusOK, resp)
}

// annotateSpan records one event per parsed header on the request span.
func annotateSpan(ctx context.Context, resp InspectResponse) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int(telemetry.HeaderCountKey, len(resp.Headers)))
	for _, h := range resp.Headers {
		span.AddEvent("header.parsed", trace.WithAttributes(telemetry.HeaderAttributes(h.Name, h.Error == "")...))
	}
}

// handleInspectBody reports the typed form of headers supplied as JSON.
func (s *Server) handleInspectBody(w http.ResponseWriter, r *http.Request) {
	var req InspectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInspectBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, r, fmt.Errorf("decode body: %w", err))
		return
	}
	if len(req.Headers) == 0 {
		writeBadRequest(w, r, errors.New("no headers supplied"))
		return
	}

	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	hs := header.NewHeaders()
	for _, name := range names {
		for _, v := range req.Headers[name] {
			if err := hs.Append(name, v); err != nil {
				writeBadRequest(w, r, err)
				return
			}
		}
	}
	resp := Inspect(hs)
	annotateSpan(r.Context(), resp)
	writeJSON(w, http.StatusOK, resp)
}
