// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"errors"
	"net/http"
)

var (
	// ErrServerClosed is returned by Serve after Shutdown or context cancellation.
	ErrServerClosed = errors.New("server: closed")

	// ErrResponseEnded is returned by writes after End.
	ErrResponseEnded = errors.New("server: response already ended")

	// ErrBodyTooLong is returned by writes past the declared Content-Length.
	ErrBodyTooLong = errors.New("server: body longer than declared Content-Length")
)

var (
	errHeaderTooLarge  = errors.New("request header block too large")
	errMalformedLine   = errors.New("malformed request line")
	errMalformedHeader = errors.New("malformed header line")
	errBadLength       = errors.New("invalid Content-Length")
	errTransferCoding  = errors.New("transfer codings are not supported")
)

// statusFor maps a request parse error to the status sent before closing.
func statusFor(err error) StatusCode {
	switch {
	case errors.Is(err, errHeaderTooLarge):
		return http.StatusRequestHeaderFieldsTooLarge
	case errors.Is(err, errTransferCoding):
		return http.StatusNotImplemented
	default:
		return http.StatusBadRequest
	}
}
