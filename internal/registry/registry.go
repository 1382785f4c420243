// Package registry owns the set of submitted jobs and drives each through
// its lifecycle: queued → uploading → processing → completed, with failed
// reachable from the two transient states and retry returning a failed job
// to queued. It is the single source of truth for all observers.
package registry

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cleartrack/client/internal/api"
	"github.com/cleartrack/client/internal/blob"
	"github.com/cleartrack/client/internal/model"
	"github.com/cleartrack/client/internal/notify"
	"github.com/cleartrack/client/internal/status"
	"github.com/cleartrack/client/internal/telemetry"
)

// Transport is the slice of the transport adapter the registry drives.
type Transport interface {
	Upload(ctx context.Context, fileName string, content []byte, preset model.Preset, onProgress api.ProgressFunc) (*model.UploadResponse, error)
	FetchResult(ctx context.Context, remoteJobID string) ([]byte, error)
}

// Channels manages status subscriptions keyed by client job id.
type Channels interface {
	Open(jobID, remoteJobID string, fn status.Handler)
	Close(jobID string)
}

// Submission is the input to Submit. Size and content-type policy live with
// the caller; the registry only insists the file exists and the preset is one
// of the supported processing modes.
type Submission struct {
	FileName string       `validate:"required"`
	Content  []byte       `validate:"required"`
	Preset   model.Preset `validate:"required,oneof=speech_enhancement speaker_separation music_separation noise_reduction"`
}

// job pairs the public read model with the attempt epoch used to discard
// continuations of superseded attempts.
type job struct {
	model.Job
	attempt int
}

// Registry is the job state-machine set. All mutation flows through its
// methods; readers get copies and subscribe to change ticks.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*job
	transport Transport
	channels  Channels
	blobs     *blob.Store
	emitter   *notify.Emitter
	changed   *notify.Signal
	validate  *validator.Validate
}

func New(transport Transport, channels Channels, blobs *blob.Store, emitter *notify.Emitter) *Registry {
	return &Registry{
		jobs:      make(map[string]*job),
		transport: transport,
		channels:  channels,
		blobs:     blobs,
		emitter:   emitter,
		changed:   notify.NewSignal(),
		validate:  validator.New(),
	}
}

// Submit registers a new job and begins its upload immediately. It returns
// the client-generated job id without waiting on any network work.
func (r *Registry) Submit(sub Submission) (string, error) {
	if err := r.validate.Struct(sub); err != nil {
		return "", fmt.Errorf("invalid submission: %w", err)
	}

	id := uuid.NewString()
	j := &job{
		Job: model.Job{
			ID:          id,
			FileName:    sub.FileName,
			FileSize:    int64(len(sub.Content)),
			Preset:      sub.Preset,
			Status:      model.JobStatusQueued,
			CreatedAt:   time.Now(),
			SourceBytes: sub.Content,
		},
		attempt: 1,
	}

	r.mu.Lock()
	r.jobs[id] = j
	r.mu.Unlock()

	telemetry.JobsSubmitted.Inc()
	telemetry.ActiveJobs.Inc()
	r.changed.Broadcast()
	log.Printf("[Jobs] submitted %s (%s, preset=%s)", id, sub.FileName, sub.Preset)

	go r.startUpload(id, 1)
	return id, nil
}

// Retry restarts a failed job from the upload path. Calling it on a job in
// any other state is a no-op. The prior attempt's status subscription is torn
// down first so a superseded attempt can never deliver events.
func (r *Registry) Retry(jobID string) {
	r.mu.Lock()
	j, ok := r.jobs[jobID]
	if !ok || j.Status != model.JobStatusFailed {
		r.mu.Unlock()
		return
	}
	j.attempt++
	attempt := j.attempt
	j.Status = model.JobStatusQueued
	j.UploadProgress = 0
	j.ProcessingProgress = 0
	j.RemoteJobID = ""
	j.RemoteFileName = ""
	j.Error = ""
	stale := j.ResultHandle
	j.ResultHandle = blob.Handle{}
	r.mu.Unlock()

	r.channels.Close(jobID)
	if stale.Valid() {
		r.blobs.Release(stale)
	}
	telemetry.ActiveJobs.Inc()
	r.changed.Broadcast()
	log.Printf("[Jobs] retrying %s (attempt %d)", jobID, attempt)

	go r.startUpload(jobID, attempt)
}

// Remove deletes a job in any state, tearing down its subscription and
// releasing its result handle. An in-flight operation that resolves later
// finds the job gone and mutates nothing.
func (r *Registry) Remove(jobID string) {
	r.mu.Lock()
	j, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.jobs, jobID)
	handle := j.ResultHandle
	active := !j.Status.Terminal()
	r.mu.Unlock()

	r.channels.Close(jobID)
	if handle.Valid() {
		r.blobs.Release(handle)
	}
	if active {
		telemetry.ActiveJobs.Dec()
	}
	r.changed.Broadcast()
	log.Printf("[Jobs] removed %s", jobID)
}

// ClearCompleted removes every completed job, releasing each result handle.
func (r *Registry) ClearCompleted() {
	r.mu.Lock()
	var handles []blob.Handle
	for id, j := range r.jobs {
		if j.Status == model.JobStatusCompleted {
			delete(r.jobs, id)
			if j.ResultHandle.Valid() {
				handles = append(handles, j.ResultHandle)
			}
		}
	}
	r.mu.Unlock()

	for _, h := range handles {
		r.blobs.Release(h)
	}
	r.changed.Broadcast()
}

// Job returns a copy of one job's read model.
func (r *Registry) Job(jobID string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return model.Job{}, false
	}
	return j.Job, true
}

// List returns all jobs, newest first. The collection itself is unordered;
// display order is a read-side concern.
func (r *Registry) List() []model.Job {
	r.mu.RLock()
	jobs := make([]model.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j.Job)
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	return jobs
}

// ActiveCount returns the number of jobs not yet in a terminal state.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, j := range r.jobs {
		if !j.Status.Terminal() {
			n++
		}
	}
	return n
}

// CompletedCount returns the number of completed jobs.
func (r *Registry) CompletedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, j := range r.jobs {
		if j.Status == model.JobStatusCompleted {
			n++
		}
	}
	return n
}

// Watch subscribes to change ticks; re-read via Job/List after each tick.
func (r *Registry) Watch() (string, <-chan struct{}) { return r.changed.Subscribe() }

// Unwatch removes a change subscription.
func (r *Registry) Unwatch(id string) { r.changed.Unsubscribe(id) }

// patch applies fn to a job iff it still exists and the attempt epoch
// matches, guarding every asynchronous continuation against jobs that were
// removed or retried while the operation was in flight.
func (r *Registry) patch(jobID string, attempt int, fn func(*job)) bool {
	r.mu.Lock()
	j, ok := r.jobs[jobID]
	if !ok || j.attempt != attempt {
		r.mu.Unlock()
		return false
	}
	fn(j)
	r.mu.Unlock()
	r.changed.Broadcast()
	return true
}
