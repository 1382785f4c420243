// Package blob tracks in-memory binary resources behind revocable handles.
//
// Every handle is created by exactly one owner and released exactly once;
// Release is safe to repeat but only the first call counts. The acquire and
// release totals are exposed so tests and metrics can verify that no path
// leaks or double-frees.
package blob

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/cleartrack/client/internal/telemetry"
)

// ErrRevoked is returned when dereferencing a released or unknown handle.
var ErrRevoked = errors.New("blob: handle revoked or unknown")

// Handle is an opaque reference to bytes held by a Store. The zero value
// refers to nothing.
type Handle struct {
	token string
}

// Token returns the addressable string form of the handle.
func (h Handle) Token() string { return h.token }

// Valid reports whether the handle references anything at all.
func (h Handle) Valid() bool { return h.token != "" }

// Stats is a point-in-time accounting snapshot.
type Stats struct {
	Acquired uint64
	Released uint64
	Live     int
}

// Store owns the byte buffers behind all live handles.
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	acquired uint64
	released uint64
}

func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Acquire registers content under a fresh token. The store keeps a reference
// to the slice, not a copy; callers must not mutate it afterwards.
func (s *Store) Acquire(content []byte) Handle {
	token := uuid.NewString()
	s.mu.Lock()
	s.data[token] = content
	s.acquired++
	s.mu.Unlock()
	telemetry.BlobsAcquired.Inc()
	return Handle{token: token}
}

// Release revokes a handle. Returns false if the handle was invalid or
// already released; repeated releases do not skew the accounting.
func (s *Store) Release(h Handle) bool {
	if !h.Valid() {
		return false
	}
	s.mu.Lock()
	_, ok := s.data[h.token]
	if ok {
		delete(s.data, h.token)
		s.released++
	}
	s.mu.Unlock()
	if !ok {
		log.Printf("[Blob] release of unknown or already-released handle %s", h.token)
		return false
	}
	telemetry.BlobsReleased.Inc()
	return true
}

// Bytes dereferences a handle. A revoked handle yields ErrRevoked.
func (s *Store) Bytes(h Handle) ([]byte, error) {
	s.mu.RLock()
	content, ok := s.data[h.token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRevoked
	}
	return content, nil
}

// Get looks up content by raw token. Used by the gateway, which receives
// tokens over HTTP rather than holding handles.
func (s *Store) Get(token string) ([]byte, bool) {
	s.mu.RLock()
	content, ok := s.data[token]
	s.mu.RUnlock()
	return content, ok
}

// Stats returns the current accounting snapshot.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Acquired: s.acquired, Released: s.released, Live: len(s.data)}
}
