package status

import (
	"context"
	"log"
	"time"
)

// runPoll polls the status endpoint on a fixed interval until a terminal
// event is delivered or the subscription is cancelled. Transient poll errors
// are absorbed: the job's fate is decided only by an explicit terminal status.
func (m *Manager) runPoll(ctx context.Context, remoteJobID string, fn Handler) {
	for {
		st, err := m.src.Status(ctx, remoteJobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Status] poll failed for %s: %v", remoteJobID, err)
		} else {
			if ctx.Err() != nil {
				return
			}
			ev := Event{Status: st.Status, Progress: st.Progress, ErrorMessage: st.ErrorMessage}
			fn(ev)
			if ev.Terminal() {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.pollInterval):
		}
	}
}
