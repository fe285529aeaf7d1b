// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/hdrkit/internal/header"
)

type closeWriteRecorder struct {
	bytes.Buffer
	closedWrite bool
}

func (c *closeWriteRecorder) CloseWrite() error {
	c.closedWrite = true
	return nil
}

func TestResponse_HeadWrittenLazilyOnce(t *testing.T) {
	var buf bytes.Buffer
	resp := NewResponse(&buf)
	resp.Headers.Set(header.CacheControl{header.Directive(header.NoCache)})
	require.NoError(t, resp.Headers.SetRaw("Content-Type", "text/plain"))

	assert.False(t, resp.HeadWritten())
	require.NoError(t, resp.Flush())
	assert.True(t, resp.HeadWritten())

	// Header changes after the head went out are not sent.
	resp.Status = http.StatusTeapot
	_, err := resp.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, resp.Flush())

	assert.Equal(t,
		"HTTP/1.1 200 OK\r\nCache-Control: no-cache\r\nContent-Type: text/plain\r\n\r\nhello",
		buf.String())
	assert.Equal(t, int64(5), resp.BytesWritten())
}

func TestResponse_WriteSendsHeadFirst(t *testing.T) {
	var buf bytes.Buffer
	resp := NewResponse(&buf)
	resp.Status = http.StatusNotFound
	resp.Version = HTTP10

	_, err := resp.Write([]byte("missing"))
	require.NoError(t, err)
	require.NoError(t, resp.Flush())
	assert.Equal(t, "HTTP/1.0 404 Not Found\r\n\r\nmissing", buf.String())
}

func TestResponse_End(t *testing.T) {
	conn := &closeWriteRecorder{}
	resp := NewResponse(conn)
	_, err := resp.Write([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, resp.End())
	assert.True(t, conn.closedWrite)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\nx", conn.String())

	_, err = resp.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrResponseEnded)
	assert.ErrorIs(t, resp.Flush(), ErrResponseEnded)
}

func TestResponse_DeclaredLengthEnforced(t *testing.T) {
	var buf bytes.Buffer
	resp := NewResponse(&buf)
	require.NoError(t, resp.Headers.SetRaw("Content-Length", "4"))

	n, err := resp.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, resp.lengthMismatch())

	n, err = resp.Write([]byte("cdef"))
	assert.ErrorIs(t, err, ErrBodyTooLong)
	assert.Equal(t, 2, n)
	require.NoError(t, resp.Flush())
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nabcd", buf.String())
	assert.True(t, resp.lengthMismatch(), "dropped bytes still count as a mismatch")
}

func TestResponse_ExactLengthMatches(t *testing.T) {
	var buf bytes.Buffer
	resp := NewResponse(&buf)
	require.NoError(t, resp.Headers.SetRaw("Content-Length", "2"))
	_, err := resp.Write([]byte("ok"))
	require.NoError(t, err)
	assert.False(t, resp.lengthMismatch())

	undeclared := NewResponse(&buf)
	_, err = undeclared.Write([]byte("anything"))
	require.NoError(t, err)
	assert.False(t, undeclared.lengthMismatch())
}

func TestStatusCodeAndVersion(t *testing.T) {
	assert.Equal(t, "200 OK", StatusCode(200).String())
	assert.Equal(t, "599", StatusCode(599).String())
	assert.Equal(t, "HTTP/1.1", HTTP11.String())

	v, err := ParseVersion("HTTP/1.0")
	require.NoError(t, err)
	assert.Equal(t, HTTP10, v)

	_, err = ParseVersion("HTTP/2.0")
	assert.Error(t, err)
}
