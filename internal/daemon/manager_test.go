// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/hdrkit/internal/config"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/server"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to reserve listen addr")
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTP.ListenAddr = "127.0.0.1:0"
	cfg.HTTP.RateLimitRequests = 0
	cfg.HTTP.ShutdownTimeout = 2 * time.Second
	cfg.Raw.ListenAddr = "127.0.0.1:0"
	cfg.Cache.Backend = config.CacheBackendNone
	return cfg
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
})

var rawOK = server.HandlerFunc(func(w *server.Response, _ *server.Request) {
	_ = w.Headers.SetRaw("Content-Length", "2")
	_, _ = io.WriteString(w, "OK")
})

func testDeps(t *testing.T) Deps {
	return Deps{
		Logger:     log.WithComponent("test"),
		Config:     testConfig(t),
		APIHandler: okHandler,
		RawHandler: rawOK,
	}
}

// startManager runs Start in the background and waits for Ready.
func startManager(t *testing.T, mgr Manager) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- mgr.Start(ctx) }()

	select {
	case <-mgr.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("manager never became ready")
	}
	return cancel, errCh
}

func noKeepAliveClient() *http.Client {
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

func TestNewManager_Validation(t *testing.T) {
	valid := testDeps(t)

	tests := []struct {
		name    string
		mutate  func(*Deps)
		wantErr error
	}{
		{"valid", func(*Deps) {}, nil},
		{"missing logger", func(d *Deps) { d.Logger = zerolog.Nop() }, ErrMissingLogger},
		{"missing API handler", func(d *Deps) { d.APIHandler = nil }, ErrMissingAPIHandler},
		{"missing raw handler", func(d *Deps) { d.RawHandler = nil }, ErrMissingRawHandler},
		{"raw disabled needs no handler", func(d *Deps) {
			d.RawHandler = nil
			d.Config.Raw.Enabled = false
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := valid
			tt.mutate(&deps)
			mgr, err := NewManager(deps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, mgr)
		})
	}
}

func TestManager_StartStop_OK(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testDeps(t))
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second", "third"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	cancel, errCh := startManager(t, mgr)

	resp, err := noKeepAliveClient().Get("http://" + mgr.APIAddr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	conn, err := net.Dial("tcp", mgr.RawAddr())
	require.NoError(t, err)
	_, err = io.WriteString(conn, "GET / HTTP/1.1\r\nHost: t\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)
	rawResp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rawResp.StatusCode)
	_ = rawResp.Body.Close()
	_ = conn.Close()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestManager_ShutdownUnblocksStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testDeps(t))
	require.NoError(t, err)
	cancel, errCh := startManager(t, mgr)
	defer cancel()

	require.NoError(t, mgr.Shutdown(context.Background()))
	// A second call is a no-op.
	require.NoError(t, mgr.Shutdown(context.Background()))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Shutdown")
	}
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(testDeps(t))
	require.NoError(t, err)
	assert.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testDeps(t))
	require.NoError(t, err)
	cancel, errCh := startManager(t, mgr)

	assert.ErrorIs(t, mgr.Start(context.Background()), ErrManagerAlreadyStarted)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestManager_ListenConflictFailsFast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	deps := testDeps(t)
	deps.Config.Raw.ListenAddr = busy.Addr().String()
	mgr, err := NewManager(deps)
	require.NoError(t, err)

	err = mgr.Start(context.Background())
	require.ErrorIs(t, err, ErrServerStartFailed)
	assert.Contains(t, err.Error(), "raw listener")
	assert.Empty(t, mgr.APIAddr(), "API listener must be released on failure")
}

func TestManager_FixedAddress(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	deps := testDeps(t)
	deps.Config.HTTP.ListenAddr = reserveListenAddr(t)
	deps.Config.Raw.Enabled = false
	mgr, err := NewManager(deps)
	require.NoError(t, err)

	cancel, errCh := startManager(t, mgr)
	require.NoError(t, waitForListen(deps.Config.HTTP.ListenAddr, 2*time.Second))
	assert.Equal(t, deps.Config.HTTP.ListenAddr, mgr.APIAddr())
	assert.Empty(t, mgr.RawAddr())

	cancel()
	assert.NoError(t, <-errCh)
}

func TestManager_HookErrorsAreJoined(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testDeps(t))
	require.NoError(t, err)

	errA := errors.New("hook a failed")
	errB := errors.New("hook b failed")
	ran := false
	mgr.RegisterShutdownHook("a", func(context.Context) error { return errA })
	mgr.RegisterShutdownHook("ok", func(context.Context) error { ran = true; return nil })
	mgr.RegisterShutdownHook("b", func(context.Context) error { return errB })

	cancel, errCh := startManager(t, mgr)
	defer cancel()

	err = mgr.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, ran, "remaining hooks still run after a failure")
	assert.NoError(t, <-errCh)
}

func TestManager_ShutdownHonoursTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	deps := testDeps(t)
	deps.Config.HTTP.ShutdownTimeout = 100 * time.Millisecond
	mgr, err := NewManager(deps)
	require.NoError(t, err)

	mgr.RegisterShutdownHook("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cancel, errCh := startManager(t, mgr)
	defer cancel()

	start := time.Now()
	err = mgr.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NoError(t, <-errCh)
}
