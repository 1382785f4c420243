package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Signal is a coalescing change broadcast: observers learn that state changed
// and re-read it, they are not handed the state itself. A pending tick that
// has not been consumed absorbs later ones.
type Signal struct {
	mu   sync.RWMutex
	subs map[string]chan struct{}
}

func NewSignal() *Signal {
	return &Signal{subs: make(map[string]chan struct{})}
}

// Subscribe registers an observer. The returned channel carries at most one
// pending tick.
func (s *Signal) Subscribe() (string, <-chan struct{}) {
	ch := make(chan struct{}, 1)
	id := uuid.NewString()
	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (s *Signal) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Broadcast notifies all observers without blocking.
func (s *Signal) Broadcast() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
