package model

// UploadResponse represents the server's response to a multipart upload.
type UploadResponse struct {
	JobID            string    `json:"job_id"`
	Status           JobStatus `json:"status"`
	Progress         int       `json:"progress"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
}

// StatusResponse represents one snapshot of a remote job's progress.
type StatusResponse struct {
	JobID            string    `json:"job_id"`
	Status           JobStatus `json:"status"`
	Progress         int       `json:"progress"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	ProcessingType   string    `json:"processing_type,omitempty"`
}

// Project represents a previously completed job in the remote catalog,
// reviewable outside the session it was created in.
type Project struct {
	JobID            string    `json:"job_id"`
	ProjectName      *string   `json:"project_name"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Status           JobStatus `json:"status"`
	ProcessingType   string    `json:"processing_type,omitempty"`
	CreatedAt        string    `json:"created_at"`
}
