// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/config"
	"github.com/ManuGH/hdrkit/internal/server"
)

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Config supplies listen addresses, timeouts and the shutdown budget.
	Config config.AppConfig

	// APIHandler is the HTTP handler for the API server
	APIHandler http.Handler

	// RawHandler serves the raw HTTP/1.x listener (required when Raw.Enabled)
	RawHandler server.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	if d.Config.Raw.Enabled && d.RawHandler == nil {
		return ErrMissingRawHandler
	}
	// Config validation is done by config.Loader
	return nil
}
