// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/hdrkit/internal/server"
)

func startRaw(t *testing.T) net.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(server.Config{}, RawInspectHandler())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(context.Background(), ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.ErrorIs(t, <-errCh, server.ErrServerClosed)
	})
	return conn
}

func TestRawInspectHandler_GET(t *testing.T) {
	conn := startRaw(t)
	_, err := io.WriteString(conn, "GET / HTTP/1.1\r\n"+
		"Host: test\r\n"+
		"Cache-Control: MAX-AGE=60, private\r\n"+
		"If-Modified-Since: nonsense\r\n"+
		"X-Trace: 1\r\n"+
		"Connection: close\r\n\r\n")
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got InspectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	byName := map[string]InspectedHeader{}
	for _, h := range got.Headers {
		byName[h.Name] = h
	}
	assert.Equal(t, "max-age=60, private", byName["Cache-Control"].Canonical)
	assert.NotEmpty(t, byName["If-Modified-Since"].Error)
	assert.Equal(t, "close", byName["Connection"].Canonical)
	assert.ElementsMatch(t, []string{"Host", "X-Trace"}, got.Unknown)
}

func TestRawInspectHandler_HEAD(t *testing.T) {
	conn := startRaw(t)
	_, err := io.WriteString(conn, "HEAD / HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodHead, "/", nil)
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, "0", resp.Header.Get("Content-Length"))
	assert.Empty(t, body)
}

func TestRawInspectHandler_MethodNotAllowed(t *testing.T) {
	conn := startRaw(t)
	_, err := io.WriteString(conn, "DELETE / HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"))
}
