// Package jobs provides an explicit registry of running dubbing jobs. It
// replaces fire-and-forget background tasks with owned handles supporting
// lookup by id, cancellation, and defined teardown.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound indicates a lookup or cancel for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// Status is a job's lifecycle state.
type Status string

// Job lifecycle states.
const (
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is a read-only snapshot of one registered job.
type Job struct {
	ID        string
	Status    Status
	Detail    string
	StartedAt time.Time
}

// handle is the registry's owned state for a job, including its cancel
// function. Snapshots handed out never carry the cancel function.
type handle struct {
	job    Job
	cancel context.CancelFunc
}

// Registry tracks every in-flight job and owns its cancellation.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*handle
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*handle),
	}
}

// Begin registers a new running job and returns its id together with a
// context that Cancel can end. The caller must conclude the job with Finish
// on every exit path.
func (r *Registry) Begin(parent context.Context) (string, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handles[id] = &handle{
		job: Job{
			ID:        id,
			Status:    StatusRunning,
			Detail:    "",
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}

	return id, ctx
}

// Lookup returns a snapshot of the job with the given id.
func (r *Registry) Lookup(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.handles[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}

	return entry.job, nil
}

// SetDetail updates a running job's human-readable stage description.
func (r *Registry) SetDetail(id, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.handles[id]
	if !ok {
		return ErrJobNotFound
	}

	entry.job.Detail = detail

	return nil
}

// Cancel ends a job's context. The job stays registered until its runner
// observes the cancellation and calls Finish.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.handles[id]
	if !ok {
		return ErrJobNotFound
	}

	entry.cancel()
	entry.job.Status = StatusCancelled

	return nil
}

// Finish records a job's terminal status and releases its cancel function.
// A job already marked cancelled keeps that status.
func (r *Registry) Finish(id string, status Status, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.handles[id]
	if !ok {
		return ErrJobNotFound
	}

	entry.cancel()

	if entry.job.Status != StatusCancelled {
		entry.job.Status = status
	}

	entry.job.Detail = detail

	return nil
}

// Remove drops a job's record entirely, cancelling it first if needed.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.handles[id]
	if !ok {
		return ErrJobNotFound
	}

	entry.cancel()
	delete(r.handles, id)

	return nil
}

// List returns snapshots of every registered job.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshots := make([]Job, 0, len(r.handles))
	for _, entry := range r.handles {
		snapshots = append(snapshots, entry.job)
	}

	return snapshots
}
