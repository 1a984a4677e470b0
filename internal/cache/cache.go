// Package cache implements the process-wide TTL cache backing the catalog
// proxy endpoints. Entries are keyed by resource name (a small fixed set, so
// no size-based eviction exists) and expire lazily: staleness is computed at
// read time from the entry's stored-at timestamp, never by a background sweep.
//
// Concurrent misses on the same key are coalesced into a single upstream call
// via singleflight; a failed fetch leaves any existing (stale) entry in place
// and propagates the error to every coalesced caller.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value for a key on a cache miss. The returned
// value is stored verbatim.
type FetchFunc func(ctx context.Context) (any, error)

// entry pairs a stored payload with the time it was written.
type entry struct {
	value    any
	storedAt time.Time
}

// Store is a concurrency-safe key/value cache with a single fixed TTL applied
// uniformly to every entry. The zero value is not usable; use New.
type Store struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	group singleflight.Group

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// New returns an empty Store whose entries expire after ttl.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the value stored under key if the entry exists and is still
// fresh. Expired entries are treated as absent (they stay in the map until
// the next successful fetch overwrites them).
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.storedAt) > s.ttl {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, resetting the entry's stored-at timestamp.
// Any previous value for the key is overwritten (last write wins).
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

// Invalidate forces the next read of key to miss.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// GetOrFetch returns the fresh cached value for key, or runs fetch to
// repopulate the entry. Concurrent callers missing on the same key share one
// fetch; each receives the same value or the same error. On error the cache
// is left untouched.
func (s *Store) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		// Double-check: another flight may have repopulated the entry
		// between our miss and acquiring the flight.
		if v, ok := s.Get(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.Put(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// StoredAt reports when the entry for key was last written, fresh or not.
// The second return is false when the key has never been stored.
func (s *Store) StoredAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e.storedAt, ok
}
