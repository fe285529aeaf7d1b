// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/server"
)

// RawInspectHandler answers every request on the raw listener with the
// typed view of its headers. Only GET and HEAD are served.
func RawInspectHandler() server.Handler {
	logger := log.WithComponent("raw")
	return server.HandlerFunc(func(w *server.Response, r *server.Request) {
		w.Headers.Set(header.CacheControl{header.Directive(header.NoStore)})
		_ = w.Headers.SetRaw("Content-Type", "application/json")

		var body []byte
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			data, err := json.Marshal(Inspect(r.Headers))
			if err != nil {
				w.Status = http.StatusInternalServerError
				logger.Error().Err(err).Msg("encode inspect response")
				return
			}
			body = append(data, '\n')
		default:
			w.Status = http.StatusMethodNotAllowed
			_ = w.Headers.SetRaw("Allow", "GET, HEAD")
			body = []byte(`{"error":"method_not_allowed"}` + "\n")
		}

		_ = w.Headers.SetRaw("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			_ = w.Flush()
			return
		}
		_, _ = w.Write(body)
	})
}
