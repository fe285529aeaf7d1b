// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"bufio"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/log"
)

// Response is the outgoing half of a connection.
// Set Status, Version and Headers before the first Write; later changes are ignored.
type Response struct {
	// Status is the response status code (default 200).
	Status StatusCode
	// Version is the protocol version written on the status line (default HTTP/1.1).
	Version Version
	// Headers are written once, in insertion order, with the status line.
	Headers *header.Headers

	conn        io.Writer
	w           *bufio.Writer
	headWritten bool
	ended       bool
	written     int64
	declared    int64 // Content-Length sent with the head, -1 when absent
	overran     bool
	logger      zerolog.Logger

	// beforeHead lets the server settle framing headers at the last moment.
	beforeHead func(*Response)
}

// NewResponse creates a response that writes to conn.
func NewResponse(conn io.Writer) *Response {
	return &Response{
		Status:  http.StatusOK,
		Version: HTTP11,
		Headers: header.NewHeaders(),
		conn:    conn,
		w:        bufio.NewWriter(conn),
		declared: -1,
		logger:   log.WithComponent("server"),
	}
}

// HeadWritten reports whether the status line and headers were sent.
func (r *Response) HeadWritten() bool { return r.headWritten }

// BytesWritten returns the number of body bytes accepted so far.
func (r *Response) BytesWritten() int64 { return r.written }

func (r *Response) writeHead() error {
	if r.headWritten {
		r.logger.Debug().Str(log.FieldEvent, "response.head_rewrite").Msg("head previously written, no-op")
		return nil
	}
	if r.beforeHead != nil {
		r.beforeHead(r)
	}
	r.headWritten = true
	if v, ok := r.Headers.Get("Content-Length"); ok && len(v) == 1 {
		if n, err := strconv.ParseInt(v[0], 10, 64); err == nil && n >= 0 {
			r.declared = n
		}
	}
	r.logger.Debug().
		Str(log.FieldEvent, "response.head").
		Str("version", r.Version.String()).
		Str(log.FieldStatus, r.Status.String()).
		Int("headers", r.Headers.Len()).
		Msg("writing head")

	if _, err := io.WriteString(r.w, r.Version.String()+" "+r.Status.String()+"\r\n"); err != nil {
		return err
	}
	if _, err := r.Headers.WriteTo(r.w); err != nil {
		return err
	}
	_, err := io.WriteString(r.w, "\r\n")
	return err
}

// Write sends the head on first use, then p. Bytes past a declared
// Content-Length are dropped and reported with ErrBodyTooLong.
func (r *Response) Write(p []byte) (int, error) {
	if r.ended {
		return 0, ErrResponseEnded
	}
	if !r.headWritten {
		if err := r.writeHead(); err != nil {
			return 0, err
		}
	}
	var over bool
	if r.declared >= 0 && r.written+int64(len(p)) > r.declared {
		p = p[:r.declared-r.written]
		over = true
		r.overran = true
	}
	n, err := r.w.Write(p)
	r.written += int64(n)
	r.logger.Debug().Int(log.FieldBytes, n).Msg("write")
	if err == nil && over {
		err = ErrBodyTooLong
	}
	return n, err
}

// lengthMismatch reports whether the body did not match the declared
// Content-Length, leaving the connection unusable for another message.
func (r *Response) lengthMismatch() bool {
	return r.overran || (r.declared >= 0 && r.written != r.declared)
}

// Flush sends the head if needed and flushes buffered body bytes.
func (r *Response) Flush() error {
	if r.ended {
		return ErrResponseEnded
	}
	if !r.headWritten {
		if err := r.writeHead(); err != nil {
			return err
		}
	}
	return r.w.Flush()
}

// End flushes the response and half-closes the write side when the
// connection supports it. Further writes fail with ErrResponseEnded.
func (r *Response) End() error {
	if err := r.Flush(); err != nil {
		return err
	}
	r.ended = true
	if cw, ok := r.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}
