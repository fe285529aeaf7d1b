// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/ManuGH/hdrkit/internal/log"
)

// BadgerStore is a persistent Store on an embedded Badger database. Entries
// are JSON-encoded under DefaultKeyPrefix and expire through Badger's TTL,
// which has one-second resolution.
type BadgerStore struct {
	db     *badger.DB
	prefix []byte
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// OpenBadgerStore opens or creates the database in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store %s: %w", dir, err)
	}
	s := &BadgerStore{
		db:     db,
		prefix: []byte(DefaultKeyPrefix),
		logger: log.WithComponent("cache"),
	}
	s.logger.Info().
		Str(log.FieldEvent, "cache.badger.opened").
		Str("dir", dir).
		Msg("opened persistent cache")
	return s, nil
}

func (s *BadgerStore) key(k string) []byte {
	return append(append([]byte(nil), s.prefix...), k...)
}

func (s *BadgerStore) Get(_ context.Context, key string) (*Entry, bool) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("badger get failed")
		}
		s.stats.misses.Add(1)
		return nil, false
	}
	s.stats.hits.Add(1)
	return &e, true
}

// Set stores e for ttl. A non-positive ttl stores nothing.
func (s *BadgerStore) Set(_ context.Context, key string, e *Entry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("json marshal failed")
		return
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(s.key(key), data).WithTTL(ttl))
	})
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("badger set failed")
		return
	}
	s.stats.sets.Add(1)
}

func (s *BadgerStore) Delete(_ context.Context, key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldCacheKey, key).Msg("badger delete failed")
	}
}

// Clear drops every key under the store prefix.
func (s *BadgerStore) Clear(_ context.Context) {
	if err := s.db.DropPrefix(s.prefix); err != nil {
		s.logger.Warn().Err(err).Msg("badger drop prefix failed")
	}
}

// Stats reports counters; CurrentSize counts live keys under the prefix.
func (s *BadgerStore) Stats() Stats {
	size := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: s.prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			size++
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("badger scan failed")
	}
	return Stats{
		Hits:        s.stats.hits.Load(),
		Misses:      s.stats.misses.Load(),
		Sets:        s.stats.sets.Load(),
		CurrentSize: size,
	}
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

// HealthCheck fails once the database has been closed.
func (s *BadgerStore) HealthCheck(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger store closed")
	}
	return nil
}
