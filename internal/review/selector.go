// Package review materializes the single active "original vs. result"
// comparison, either from an in-session job or from a remote project.
package review

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cleartrack/client/internal/blob"
	"github.com/cleartrack/client/internal/model"
	"github.com/cleartrack/client/internal/notify"
)

// Jobs is the read-only slice of the registry the selector needs.
type Jobs interface {
	Job(jobID string) (model.Job, bool)
}

// Fetcher retrieves binary content for jobs whose bytes are not cached
// locally.
type Fetcher interface {
	FetchResult(ctx context.Context, remoteJobID string) ([]byte, error)
	FetchOriginal(ctx context.Context, remoteJobID string) ([]byte, error)
}

// Selection is the current review binding. Handles may be zero while a fetch
// is pending or after a degraded project load.
type Selection struct {
	JobID          string
	RemoteJobID    string
	DisplayName    string
	RemoteFileName string
	Original       blob.Handle
	Result         blob.Handle
	Loading        bool
}

// Selector holds at most one active selection. The original handle is always
// acquired (and therefore released) by the selector itself; the result handle
// is borrowed from the job when available and only owned when the selector
// fetched it on its own.
type Selector struct {
	mu         sync.Mutex
	gen        int
	sel        Selection
	ownsResult bool
	jobs       Jobs
	fetcher    Fetcher
	blobs      *blob.Store
	changed    *notify.Signal
}

func NewSelector(jobs Jobs, fetcher Fetcher, blobs *blob.Store) *Selector {
	return &Selector{
		jobs:    jobs,
		fetcher: fetcher,
		blobs:   blobs,
		changed: notify.NewSignal(),
	}
}

// SelectJob binds the review to an in-session job. The original handle is a
// fresh acquisition over the job's source bytes; the job keeps its own state
// untouched. A missing result handle triggers a background fetch whose
// outcome is discarded if the selection moves on before it resolves.
func (s *Selector) SelectJob(jobID string) error {
	job, ok := s.jobs.Job(jobID)
	if !ok {
		return fmt.Errorf("review: unknown job %s", jobID)
	}

	s.mu.Lock()
	s.releaseLocked()
	s.gen++
	gen := s.gen

	sel := Selection{
		JobID:          jobID,
		RemoteJobID:    job.RemoteJobID,
		DisplayName:    job.FileName,
		RemoteFileName: job.RemoteFileName,
		Original:       s.blobs.Acquire(job.SourceBytes),
	}
	switch {
	case job.ResultHandle.Valid():
		sel.Result = job.ResultHandle // borrowed; the job owns it
	case job.Status == model.JobStatusCompleted && job.RemoteJobID != "":
		sel.Loading = true
		go s.fetchResult(gen, job.RemoteJobID)
	}
	s.sel = sel
	s.mu.Unlock()

	s.changed.Broadcast()
	return nil
}

// LoadProject binds the review to a remote project with no local job,
// fetching original and processed bytes concurrently. Either fetch failing
// degrades that side to an empty handle instead of erroring.
func (s *Selector) LoadProject(remoteJobID, displayName string) {
	s.mu.Lock()
	s.releaseLocked()
	s.gen++
	gen := s.gen
	s.sel = Selection{
		RemoteJobID:    remoteJobID,
		DisplayName:    displayName,
		RemoteFileName: displayName,
		Loading:        true,
	}
	s.mu.Unlock()

	s.changed.Broadcast()
	go s.loadProject(gen, remoteJobID)
}

// Clear resets to an empty selection, releasing only handles the selector
// itself acquired.
func (s *Selector) Clear() {
	s.mu.Lock()
	s.releaseLocked()
	s.gen++
	s.mu.Unlock()
	s.changed.Broadcast()
}

// Selection returns a copy of the current binding.
func (s *Selector) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Watch subscribes to selection change ticks.
func (s *Selector) Watch() (string, <-chan struct{}) { return s.changed.Subscribe() }

// Unwatch removes a change subscription.
func (s *Selector) Unwatch(id string) { s.changed.Unsubscribe(id) }

// releaseLocked revokes exclusively-held handles and empties the selection.
// Borrowed result handles stay with their owning job.
func (s *Selector) releaseLocked() {
	if s.sel.Original.Valid() {
		s.blobs.Release(s.sel.Original)
	}
	if s.ownsResult && s.sel.Result.Valid() {
		s.blobs.Release(s.sel.Result)
	}
	s.sel = Selection{}
	s.ownsResult = false
}

// fetchResult resolves the result bytes for a job-backed selection. The
// generation check runs before any handle is acquired, so a superseded fetch
// leaves nothing behind.
func (s *Selector) fetchResult(gen int, remoteJobID string) {
	content, err := s.fetcher.FetchResult(context.Background(), remoteJobID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		log.Printf("[Review] result preview unavailable for %s: %v", remoteJobID, err)
		s.sel.Loading = false
		s.mu.Unlock()
		s.changed.Broadcast()
		return
	}
	s.sel.Result = s.blobs.Acquire(content)
	s.ownsResult = true
	s.sel.Loading = false
	s.mu.Unlock()
	s.changed.Broadcast()
}

// loadProject resolves both sides of a project-backed selection.
func (s *Selector) loadProject(gen int, remoteJobID string) {
	var original, result []byte
	var origErr, resErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		original, origErr = s.fetcher.FetchOriginal(context.Background(), remoteJobID)
	}()
	go func() {
		defer wg.Done()
		result, resErr = s.fetcher.FetchResult(context.Background(), remoteJobID)
	}()
	wg.Wait()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if origErr != nil {
		log.Printf("[Review] original unavailable for project %s: %v", remoteJobID, origErr)
	} else {
		s.sel.Original = s.blobs.Acquire(original)
	}
	if resErr != nil {
		log.Printf("[Review] result unavailable for project %s: %v", remoteJobID, resErr)
	} else {
		s.sel.Result = s.blobs.Acquire(result)
		s.ownsResult = true
	}
	s.sel.Loading = false
	s.mu.Unlock()
	s.changed.Broadcast()
}
