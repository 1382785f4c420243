// Package status delivers remote job progress events to a single consumer
// callback per job, over a server-push stream or interval polling.
package status

import (
	"context"
	"io"

	"github.com/cleartrack/client/internal/model"
)

// Mode selects the delivery strategy at construction time.
type Mode string

const (
	ModeSSE  Mode = "sse"
	ModePoll Mode = "poll"
)

// Event is one status update for a watched remote job.
type Event struct {
	Status       model.JobStatus
	Progress     int
	ErrorMessage string
}

// Terminal reports whether the subscription ends with this event.
func (e Event) Terminal() bool { return e.Status.Terminal() }

// Handler consumes status events for one subscription.
type Handler func(Event)

// Source is the slice of the transport adapter the status channel needs.
type Source interface {
	Status(ctx context.Context, remoteJobID string) (*model.StatusResponse, error)
	Events(ctx context.Context, remoteJobID string) (io.ReadCloser, error)
}
