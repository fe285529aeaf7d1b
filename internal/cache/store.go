// SPDX-License-Identifier: MIT

// Package cache stores HTTP responses and serves them back while their
// Cache-Control, Expires and Last-Modified headers say they are fresh.
package cache

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/hdrkit/internal/header"
)

// Entry is a stored response together with the times needed to age it.
type Entry struct {
	Status       int         `json:"status"`
	Header       http.Header `json:"header"`
	Body         []byte      `json:"body"`
	RequestTime  time.Time   `json:"request_time"`
	ResponseTime time.Time   `json:"response_time"`
	// Vary holds the request values of the fields named by the Vary header.
	Vary map[string]string `json:"vary,omitempty"`
}

// Headers returns the stored header block in typed-parsable form.
func (e *Entry) Headers() *header.Headers { return header.FromHTTP(e.Header) }

func (e *Entry) clone() *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = append([]byte(nil), e.Body...)
	if e.Vary != nil {
		c.Vary = make(map[string]string, len(e.Vary))
		for k, v := range e.Vary {
			c.Vary[k] = v
		}
	}
	return &c
}

// Store keeps entries for a bounded time.
type Store interface {
	// Get returns the entry for key; false when absent or expired.
	Get(ctx context.Context, key string) (*Entry, bool)
	// Set stores e under key for ttl.
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Stats() Stats
}

// Stats holds store counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"current_size"`
}

type memoryEntry struct {
	entry      *Entry
	expiration time.Time
}

func (e *memoryEntry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	stats    Stats
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory store. A positive cleanupInterval
// starts a janitor that evicts expired entries; call Stop to end it.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[key]
	if !found || e.isExpired(time.Now()) {
		s.stats.Misses++
		return nil, false
	}
	s.stats.Hits++
	return e.entry.clone(), true
}

func (s *MemoryStore) Set(_ context.Context, key string, e *Entry, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{entry: e.clone(), expiration: time.Now().Add(ttl)}
	s.stats.Sets++
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*memoryEntry)
}

func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.CurrentSize = len(s.entries)
	return stats
}

// deleteExpired removes expired entries and returns how many were dropped.
func (s *MemoryStore) deleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for key, e := range s.entries {
		if e.isExpired(now) {
			delete(s.entries, key)
			count++
		}
	}
	s.stats.Evictions += int64(count)
	return count
}

// Stop ends the janitor. It is safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.stop:
			return
		}
	}
}

// NoopStore never stores anything.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) (*Entry, bool) { return nil, false }
func (NoopStore) Set(context.Context, string, *Entry, time.Duration) {}
func (NoopStore) Delete(context.Context, string) {}
func (NoopStore) Clear(context.Context) {}
func (NoopStore) Stats() Stats { return Stats{} }
