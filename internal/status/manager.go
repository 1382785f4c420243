package status

import (
	"context"
	"sync"
	"time"
)

// Manager owns every live subscription, keyed by the client-side job id.
// At most one subscription exists per job: opening a new one tears down the
// prior one first, so a retried job can never receive duplicate terminal
// events. Subscriptions close themselves after delivering a terminal event
// and can be torn down on demand (job removal, retry).
type Manager struct {
	mu             sync.Mutex
	src            Source
	mode           Mode
	pollInterval   time.Duration
	reconnectDelay time.Duration
	active         map[string]*subscription
}

type subscription struct {
	cancel context.CancelFunc
}

// NewManager creates a subscription manager using the given delivery mode.
func NewManager(src Source, mode Mode, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if mode != ModePoll {
		mode = ModeSSE
	}
	return &Manager{
		src:            src,
		mode:           mode,
		pollInterval:   pollInterval,
		reconnectDelay: reconnectDelay,
		active:         make(map[string]*subscription),
	}
}

// Open starts watching remoteJobID on behalf of jobID, replacing any prior
// subscription for the same job. Events are delivered on a dedicated
// goroutine until a terminal event or Close.
func (m *Manager) Open(jobID, remoteJobID string, fn Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel}

	m.mu.Lock()
	if prev, ok := m.active[jobID]; ok {
		prev.cancel()
	}
	m.active[jobID] = sub
	m.mu.Unlock()

	go func() {
		defer m.drop(jobID, sub)
		switch m.mode {
		case ModePoll:
			m.runPoll(ctx, remoteJobID, fn)
		default:
			m.runStream(ctx, remoteJobID, fn)
		}
	}()
}

// Close tears down the subscription for jobID, if any.
func (m *Manager) Close(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.active[jobID]; ok {
		sub.cancel()
		delete(m.active, jobID)
	}
}

// CloseAll tears down every live subscription.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.active {
		sub.cancel()
		delete(m.active, id)
	}
}

// Active reports whether jobID currently has a live subscription.
func (m *Manager) Active(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[jobID]
	return ok
}

// drop removes the side-table entry once its goroutine ends, unless a newer
// subscription has already replaced it.
func (m *Manager) drop(jobID string, sub *subscription) {
	sub.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[jobID] == sub {
		delete(m.active, jobID)
	}
}
