package registry

import (
	"context"
	"fmt"
	"log"

	"github.com/cleartrack/client/internal/model"
	"github.com/cleartrack/client/internal/status"
	"github.com/cleartrack/client/internal/telemetry"
	"github.com/cleartrack/client/pkg/format"
)

// startUpload runs one upload attempt. Every re-entry into registry state
// goes through patch, so an attempt that was superseded by remove or retry
// silently stops mutating.
func (r *Registry) startUpload(jobID string, attempt int) {
	var fileName string
	var content []byte
	var preset model.Preset
	ok := r.patch(jobID, attempt, func(j *job) {
		j.Status = model.JobStatusUploading
		j.UploadProgress = 0
		j.Error = ""
		fileName = j.FileName
		content = j.SourceBytes
		preset = j.Preset
	})
	if !ok {
		return
	}

	resp, err := r.transport.Upload(context.Background(), fileName, content, preset, func(percent int) {
		r.patch(jobID, attempt, func(j *job) { j.UploadProgress = percent })
	})
	if err != nil {
		r.fail(jobID, attempt, err.Error())
		return
	}

	ok = r.patch(jobID, attempt, func(j *job) {
		j.RemoteJobID = resp.JobID
		j.RemoteFileName = resp.OriginalFilename
		j.Status = model.JobStatusProcessing
	})
	if !ok {
		return
	}

	r.channels.Open(jobID, resp.JobID, func(ev status.Event) {
		r.onStatusEvent(jobID, attempt, ev)
	})
}

// onStatusEvent reconciles one status channel event into job state. Only an
// explicit terminal status changes the lifecycle; everything else is a
// progress/metadata update.
func (r *Registry) onStatusEvent(jobID string, attempt int, ev status.Event) {
	switch ev.Status {
	case model.JobStatusCompleted:
		var fileName, remoteID string
		var size int64
		ok := r.patch(jobID, attempt, func(j *job) {
			j.Status = model.JobStatusCompleted
			j.ProcessingProgress = 100
			fileName = j.FileName
			remoteID = j.RemoteJobID
			size = j.FileSize
		})
		if !ok {
			return
		}
		telemetry.JobsCompleted.Inc()
		telemetry.ActiveJobs.Dec()
		r.emitter.Publish(model.Event{
			Type:     model.EventJobCompleted,
			JobID:    jobID,
			FileName: fileName,
			Message:  fmt.Sprintf("%s (%s) is ready", fileName, format.Size(size)),
		})
		log.Printf("[Jobs] %s completed", jobID)

		// Completion is not blocked on bytes: the preview handle is a
		// best-effort enhancement fetched in the background.
		go r.fetchResult(jobID, attempt, remoteID)

	case model.JobStatusFailed:
		reason := ev.ErrorMessage
		if reason == "" {
			reason = "Processing failed"
		}
		r.fail(jobID, attempt, reason)

	default:
		r.patch(jobID, attempt, func(j *job) {
			j.ProcessingProgress = ev.Progress
		})
	}
}

// fail records a terminal failure and emits the failure notification.
func (r *Registry) fail(jobID string, attempt int, reason string) {
	var fileName string
	ok := r.patch(jobID, attempt, func(j *job) {
		j.Status = model.JobStatusFailed
		j.Error = reason
		fileName = j.FileName
	})
	if !ok {
		return
	}
	telemetry.JobsFailed.Inc()
	telemetry.ActiveJobs.Dec()
	r.emitter.Publish(model.Event{
		Type:     model.EventJobFailed,
		JobID:    jobID,
		FileName: fileName,
		Message:  reason,
	})
	log.Printf("[Jobs] %s failed: %s", jobID, reason)
}

// fetchResult downloads the processed bytes and attaches them as a handle.
// Failure degrades to "preview unavailable": the remote id still supports
// direct download, so no error surfaces.
func (r *Registry) fetchResult(jobID string, attempt int, remoteJobID string) {
	content, err := r.transport.FetchResult(context.Background(), remoteJobID)
	if err != nil {
		log.Printf("[Jobs] preview unavailable for %s: %v", jobID, err)
		return
	}

	h := r.blobs.Acquire(content)
	if ok := r.patch(jobID, attempt, func(j *job) { j.ResultHandle = h }); !ok {
		// Job vanished while the fetch was in flight.
		r.blobs.Release(h)
	}
}
