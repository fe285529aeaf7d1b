// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ManuGH/hdrkit/internal/header"
)

// Request is an incoming HTTP/1.x request.
type Request struct {
	Method     string
	Target     string
	Version    Version
	Headers    *header.Headers
	Body       io.Reader
	RemoteAddr string

	ctx context.Context
}

// Context returns the connection-scoped context.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// KeepAlive reports whether the client asked to reuse the connection.
// HTTP/1.1 defaults to persistent; HTTP/1.0 needs an explicit keep-alive.
func (r *Request) KeepAlive() bool {
	conn, err := header.Typed(r.Headers, header.ParseConnection)
	if err != nil {
		return r.Version == HTTP11
	}
	if conn.Has(header.ConnectionOption{Kind: header.Close}) {
		return false
	}
	if r.Version == HTTP10 {
		return conn.Has(header.ConnectionOption{Kind: header.KeepAlive})
	}
	return true
}

// limitedLineReader reads CRLF-terminated lines while charging every byte,
// terminators included, against the header budget. A line without a
// terminator is read at most one buffer past the budget.
type limitedLineReader struct {
	br        *bufio.Reader
	remaining int
}

func (l *limitedLineReader) readLine() (string, error) {
	var line []byte
	for {
		frag, err := l.br.ReadSlice('\n')
		l.remaining -= len(frag)
		if l.remaining < 0 {
			return "", errHeaderTooLarge
		}
		line = append(line, frag...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == io.EOF && len(line) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

// readRequest parses the request line and header block from br.
// io.EOF before any byte means the peer closed an idle connection.
func readRequest(br *bufio.Reader, maxHeaderBytes int) (*Request, error) {
	lr := &limitedLineReader{br: br, remaining: maxHeaderBytes}

	line, err := lr.readLine()
	if err != nil {
		return nil, err
	}
	method, rest, ok1 := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok1 || !ok2 || method == "" || target == "" {
		return nil, fmt.Errorf("%w: %q", errMalformedLine, line)
	}
	version, err := ParseVersion(proto)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedLine, err)
	}

	req := &Request{
		Method:  method,
		Target:  target,
		Version: version,
		Headers: header.NewHeaders(),
	}
	for {
		line, err := lr.readLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errMalformedHeader, line)
		}
		if err := req.Headers.Append(name, strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedHeader, err)
		}
	}

	if req.Headers.Has("Transfer-Encoding") {
		return nil, errTransferCoding
	}
	req.Body = io.LimitReader(br, 0)
	if raw, ok := req.Headers.Get("Content-Length"); ok {
		v, ok := raw.One()
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if !ok || err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", errBadLength, raw.String())
		}
		req.Body = io.LimitReader(br, n)
	}
	return req, nil
}
