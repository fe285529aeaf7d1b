// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBadger(t *testing.T, dir string) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	return s
}

func TestBadgerStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, t.TempDir())
	t.Cleanup(func() { _ = s.Close() })

	want := testEntry("test-value")
	want.Vary = map[string]string{"Accept-Language": "de"}
	s.Set(ctx, "k", want, time.Minute)

	got, found := s.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Body, got.Body)
	assert.Equal(t, want.Header, got.Header)
	assert.Equal(t, want.Vary, got.Vary)

	_, found = s.Get(ctx, "missing")
	assert.False(t, found)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := openBadger(t, dir)
	s.Set(ctx, "k", testEntry("kept"), time.Hour)
	require.NoError(t, s.Close())

	s = openBadger(t, dir)
	t.Cleanup(func() { _ = s.Close() })
	got, found := s.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "kept", string(got.Body))
}

func TestBadgerStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, t.TempDir())
	t.Cleanup(func() { _ = s.Close() })

	s.Set(ctx, "a", testEntry("a"), time.Minute)
	s.Set(ctx, "b", testEntry("b"), time.Minute)
	s.Set(ctx, "c", testEntry("c"), time.Minute)

	s.Delete(ctx, "a")
	_, found := s.Get(ctx, "a")
	assert.False(t, found)
	assert.Equal(t, 2, s.Stats().CurrentSize)

	s.Clear(ctx)
	assert.Equal(t, 0, s.Stats().CurrentSize)
}

func TestBadgerStore_NonPositiveTTLNotStored(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, t.TempDir())
	t.Cleanup(func() { _ = s.Close() })

	s.Set(ctx, "k", testEntry("v"), 0)
	_, found := s.Get(ctx, "k")
	assert.False(t, found)
	assert.Equal(t, int64(0), s.Stats().Sets)
}

func TestBadgerStore_TTL(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for badger's one-second expiry")
	}
	ctx := context.Background()
	s := openBadger(t, t.TempDir())
	t.Cleanup(func() { _ = s.Close() })

	s.Set(ctx, "k", testEntry("v"), time.Second)
	assert.Eventually(t, func() bool {
		_, found := s.Get(ctx, "k")
		return !found
	}, 5*time.Second, 100*time.Millisecond)
}

func TestBadgerStore_HealthCheck(t *testing.T) {
	s := openBadger(t, t.TempDir())
	assert.NoError(t, s.HealthCheck(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.HealthCheck(context.Background()))
}

func TestBadgerStore_ServesTransport(t *testing.T) {
	s := openBadger(t, t.TempDir())
	t.Cleanup(func() { _ = s.Close() })

	o := newOrigin(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = io.WriteString(w, "persisted")
	})
	c := newTestClient(o, s, Options{})

	get(t, c, o.srv.URL)
	resp, body := get(t, c, o.srv.URL)
	assert.Equal(t, Hit, resp.Header.Get(XCache))
	assert.Equal(t, "persisted", body)
	assert.Equal(t, int32(1), o.hits.Load())
}
