package model

// Notification event types
type EventType string

const (
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
)

// Event is a fire-and-forget notification about a terminal job transition.
type Event struct {
	Type     EventType `json:"type"`
	JobID    string    `json:"jobId"`
	FileName string    `json:"fileName"`
	Message  string    `json:"message"`
}
