// Package notify provides the in-process publish/subscribe channels used by
// the registry to surface terminal job transitions and state changes.
package notify

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/cleartrack/client/internal/model"
)

// Emitter fans out notification events to any number of subscribers.
// Publishing never blocks: a subscriber whose channel is full misses the
// event rather than stalling the publisher.
type Emitter struct {
	mu     sync.RWMutex
	subs   map[string]chan model.Event
	closed bool
}

func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[string]chan model.Event)}
}

// Subscribe registers a new observer and returns its id together with the
// receive channel. The channel is closed on Unsubscribe or emitter Close.
func (e *Emitter) Subscribe(buffer int) (string, <-chan model.Event) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan model.Event, buffer)
	id := uuid.NewString()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return id, ch
	}
	e.subs[id] = ch
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (e *Emitter) Unsubscribe(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.subs[id]; ok {
		delete(e.subs, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber that can accept it.
func (e *Emitter) Publish(ev model.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[Notify] subscriber %s full, dropping %s for job %s", id, ev.Type, ev.JobID)
		}
	}
}

// Close shuts the emitter down and closes all subscriber channels.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
