// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(body string) *Entry {
	now := time.Now()
	return &Entry{
		Status:       http.StatusOK,
		Header:       http.Header{"Cache-Control": {"max-age=60"}},
		Body:         []byte(body),
		RequestTime:  now,
		ResponseTime: now,
	}
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	store.Set(ctx, "key1", testEntry("value1"), 5*time.Minute)

	e, ok := store.Get(ctx, "key1")
	require.True(t, ok, "expected to find key1")
	assert.Equal(t, "value1", string(e.Body))
	assert.Equal(t, "max-age=60", e.Header.Get("Cache-Control"))

	_, ok = store.Get(ctx, "nonexistent")
	assert.False(t, ok)
}

func TestMemoryStore_EntriesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	orig := testEntry("abc")
	store.Set(ctx, "k", orig, time.Minute)
	orig.Body[0] = 'X'
	orig.Header.Set("Cache-Control", "no-store")

	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got.Body))
	assert.Equal(t, "max-age=60", got.Header.Get("Cache-Control"))

	got.Body[0] = 'Y'
	again, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again.Body))
}

func TestMemoryStore_Expiration(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	store.Set(ctx, "shortlived", testEntry("v"), 50*time.Millisecond)
	_, ok := store.Get(ctx, "shortlived")
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	_, ok = store.Get(ctx, "shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	store.Set(ctx, "a", testEntry("1"), time.Minute)
	store.Set(ctx, "b", testEntry("2"), time.Minute)

	store.Delete(ctx, "a")
	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)

	store.Clear(ctx)
	_, ok = store.Get(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Stats().CurrentSize)
}

func TestMemoryStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	store.Set(ctx, "key1", testEntry("1"), time.Minute)
	store.Set(ctx, "key2", testEntry("2"), time.Minute)
	store.Get(ctx, "key1")
	store.Get(ctx, "key1")
	store.Get(ctx, "missing")

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 2, stats.CurrentSize)
}

func TestMemoryStore_Janitor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(20 * time.Millisecond)
	defer store.Stop()

	store.Set(ctx, "gone", testEntry("x"), 10*time.Millisecond)
	store.Set(ctx, "kept", testEntry("y"), time.Minute)

	require.Eventually(t, func() bool {
		return store.Stats().Evictions == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, store.Stats().CurrentSize)

	store.Stop()
	store.Stop()
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	var store Store = NoopStore{}

	store.Set(ctx, "k", testEntry("v"), time.Minute)
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, Stats{}, store.Stats())
}
