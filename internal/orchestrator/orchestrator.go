package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fetchkit/fetchd/internal/acquire"
	"github.com/fetchkit/fetchd/internal/metrics"
	"github.com/fetchkit/fetchd/internal/model"
	"github.com/fetchkit/fetchd/internal/registry"
	"github.com/fetchkit/fetchd/internal/selector"
)

// Prober is the stream catalog access the pipeline starts with.
// Implemented by extract.Client.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (*model.MediaInfo, error)
}

// Executor runs the acquisition for one job. Implemented by acquire.Executor.
type Executor interface {
	Execute(ctx context.Context, rawURL string, contentType model.ContentType, ceiling int, info *model.MediaInfo, plan model.SelectionPlan, workDir string) (acquire.Artifact, error)
}

// request carries one submission through the worker queue.
type request struct {
	jobID       string
	url         string
	contentType model.ContentType
	quality     int
	workDir     string
}

// Orchestrator owns job submission: it creates the registry record and the
// working directory, then runs probe -> select -> execute in a worker
// goroutine under a bounded concurrency ceiling. Submission never blocks on
// acquisition; outcomes are observed only through the registry.
type Orchestrator struct {
	Registry    *registry.Registry
	Prober      Prober
	Executor    Executor
	JobsRoot    string
	MaxParallel int
	JobDeadline time.Duration

	// Notify, when set, receives a copy of the job after every status
	// change. Feeds the websocket hub.
	Notify func(model.Job)

	mu      sync.Mutex
	active  int
	pending []request
}

// Submit registers a new job and schedules its worker. The returned id is
// immediately pollable; the worker's success or failure surfaces only in
// the registry.
func (o *Orchestrator) Submit(rawURL string, contentType model.ContentType, quality int) (string, error) {
	id := newJobID()
	workDir := filepath.Join(o.JobsRoot, id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("create job workdir: %w", err)
	}

	job := o.Registry.Create(id)
	o.notify(job)
	metrics.JobsSubmitted.Inc()

	req := request{jobID: id, url: rawURL, contentType: contentType, quality: quality, workDir: workDir}

	o.mu.Lock()
	if o.active < o.maxParallel() {
		o.active++
		metrics.ActiveWorkers.Set(float64(o.active))
		go o.runWorker(req)
	} else {
		o.pending = append(o.pending, req)
	}
	o.mu.Unlock()

	return id, nil
}

func (o *Orchestrator) maxParallel() int {
	if o.MaxParallel <= 0 {
		return 1
	}
	return o.MaxParallel
}

// runWorker executes one job and then hands its slot to the next pending
// request. Panics are recovered into a terminal error record so a bad job
// can never take the process down or leave its record in-progress forever.
func (o *Orchestrator) runWorker(req request) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("job %s: worker panic: %v", req.jobID, r)
			o.fail(req.jobID, fmt.Errorf("internal error: %v", r))
		}
		o.releaseSlot()
	}()

	o.run(req)
}

func (o *Orchestrator) releaseSlot() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.active--
	if len(o.pending) > 0 {
		next := o.pending[0]
		o.pending = o.pending[1:]
		o.active++
		go o.runWorker(next)
	}
	metrics.ActiveWorkers.Set(float64(o.active))
}

// run is the acquisition pipeline: strictly sequential stages, exactly one
// terminal registry write at the end.
func (o *Orchestrator) run(req request) {
	ctx := context.Background()
	if o.JobDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.JobDeadline)
		defer cancel()
	}

	info, err := o.Prober.Probe(ctx, req.url)
	if err != nil {
		o.fail(req.jobID, o.withDeadlineHint(ctx, err))
		return
	}

	plan := selector.Select(info.Formats, req.contentType, req.quality)

	art, err := o.Executor.Execute(ctx, req.url, req.contentType, req.quality, info, plan, req.workDir)
	if err != nil {
		o.fail(req.jobID, o.withDeadlineHint(ctx, err))
		return
	}

	job, err := o.Registry.SetDone(req.jobID, art.Filename, art.Size)
	if err != nil {
		log.Printf("job %s: terminal write refused: %v", req.jobID, err)
		return
	}
	log.Printf("job %s: done file=%q size=%d", req.jobID, art.Filename, art.Size)
	metrics.JobsCompleted.Inc()
	o.notify(job)
}

// withDeadlineHint makes timeout failures say so instead of surfacing the
// engine's context error verbatim.
func (o *Orchestrator) withDeadlineHint(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("acquisition timed out after %s: %w", o.JobDeadline, err)
	}
	return err
}

func (o *Orchestrator) fail(jobID string, cause error) {
	job, err := o.Registry.SetError(jobID, cause.Error())
	if err != nil {
		// Already terminal (e.g. panic after a refused write); keep the
		// first outcome.
		return
	}
	log.Printf("job %s: error: %v", jobID, cause)
	metrics.JobsFailed.Inc()
	o.notify(job)
}

func (o *Orchestrator) notify(job model.Job) {
	if o.Notify != nil {
		o.Notify(job)
	}
}

// newJobID returns a time-ordered unique id, falling back to v4 if the
// clock-based generator fails.
func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
