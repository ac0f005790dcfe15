package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/fetchkit/fetchd/internal/model"
)

// Registry is the single source of truth for job state. It is the only
// structure in the service mutated by more than one goroutine, so every
// access goes through the table lock and readers only ever see full-record
// copies, never partially written jobs.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{jobs: make(map[string]*model.Job)}
}

// Create inserts a fresh in-progress record for id.
func (r *Registry) Create(id string) model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := &model.Job{ID: id, Status: model.StatusInProgress}
	r.jobs[id] = job
	return *job
}

// Get returns a copy of the job, if present.
func (r *Registry) Get(id string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return *job, true
}

// SetDone performs the terminal success transition. CreatedAt is stamped
// now: the retention window starts at completion, not submission.
func (r *Registry) SetDone(id, filename string, size int64) (model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.mutable(id)
	if err != nil {
		return model.Job{}, err
	}

	now := time.Now()
	job.Status = model.StatusDone
	job.Filename = filename
	job.Size = size
	job.CreatedAt = &now
	job.FinishedAt = now
	return *job, nil
}

// SetError performs the terminal failure transition.
func (r *Registry) SetError(id, msg string) (model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.mutable(id)
	if err != nil {
		return model.Job{}, err
	}

	job.Status = model.StatusError
	job.Error = msg
	job.FinishedAt = time.Now()
	return *job, nil
}

// mutable fetches a job that may still legally transition. Transitions are
// one-way: a second terminal write is refused, never applied.
func (r *Registry) mutable(id string) (*model.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if job.Status.Terminal() {
		return nil, fmt.Errorf("job %s already %s", id, job.Status)
	}
	return job, nil
}

// Delete removes the record for id, if present.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Snapshot returns copies of every live record, for the reaper's scan and
// the artifact server's filename lookup.
func (r *Registry) Snapshot() []model.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out
}

// Len reports the number of live records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
