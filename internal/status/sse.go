package status

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cleartrack/client/internal/api"
	"github.com/cleartrack/client/internal/model"
)

const reconnectDelay = 3 * time.Second

// runStream consumes the server-push event stream, reconnecting transparently
// when the connection drops before a terminal event. A stream the server
// rejects outright is permanent: the watcher stops without fabricating a
// failure, leaving the job in its last known state.
func (m *Manager) runStream(ctx context.Context, remoteJobID string, fn Handler) {
	for {
		body, err := m.src.Events(ctx, remoteJobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, api.ErrStreamRejected) {
				log.Printf("[Status] stream for %s unavailable, giving up: %v", remoteJobID, err)
				return
			}
			log.Printf("[Status] stream for %s failed, reconnecting: %v", remoteJobID, err)
			if !sleep(ctx, m.reconnectDelay) {
				return
			}
			continue
		}

		terminal := m.consume(ctx, body, remoteJobID, fn)
		body.Close()
		if terminal || ctx.Err() != nil {
			return
		}

		// Stream ended without a terminal event: reconnect.
		if !sleep(ctx, m.reconnectDelay) {
			return
		}
	}
}

// consume reads text/event-stream frames until EOF or a terminal event.
// Returns true when a terminal event was delivered.
func (m *Manager) consume(ctx context.Context, body io.Reader, remoteJobID string, fn Handler) bool {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if data.Len() > 0 {
				ev, ok := parseEvent(data.String())
				data.Reset()
				if !ok {
					continue
				}
				if ctx.Err() != nil {
					return false
				}
				fn(ev)
				if ev.Terminal() {
					return true
				}
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id:, retry: and comments carry nothing we act on;
			// the payload's own status field decides the transition.
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("[Status] stream read error for %s: %v", remoteJobID, err)
	}
	return false
}

// parseEvent decodes one event payload.
func parseEvent(data string) (Event, bool) {
	var payload struct {
		Status       model.JobStatus `json:"status"`
		Progress     int             `json:"progress"`
		ErrorMessage string          `json:"error_message"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		log.Printf("[Status] discarding malformed event payload: %v", err)
		return Event{}, false
	}
	if payload.Status == "" {
		return Event{}, false
	}
	return Event{Status: payload.Status, Progress: payload.Progress, ErrorMessage: payload.ErrorMessage}, true
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
