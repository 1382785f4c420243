package model

import (
	"time"

	"github.com/cleartrack/client/internal/blob"
)

// Job represents one submitted file's journey from selection to terminal
// outcome. Instances are owned by the registry; consumers only ever see
// copies, so reads never race with the registry's own mutations.
type Job struct {
	ID                 string      `json:"id"`
	FileName           string      `json:"fileName"`
	FileSize           int64       `json:"fileSize"`
	Preset             Preset      `json:"preset"`
	Status             JobStatus   `json:"status"`
	UploadProgress     int         `json:"uploadProgress"`
	ProcessingProgress int         `json:"processingProgress"`
	RemoteJobID        string      `json:"remoteJobId,omitempty"`
	RemoteFileName     string      `json:"remoteFileName,omitempty"`
	ResultHandle       blob.Handle `json:"-"`
	Error              string      `json:"error,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`

	// SourceBytes holds the original file content for the job's lifetime.
	// Never mutated after submission.
	SourceBytes []byte `json:"-"`
}
