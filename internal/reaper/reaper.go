package reaper

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fetchkit/fetchd/internal/metrics"
	"github.com/fetchkit/fetchd/internal/model"
	"github.com/fetchkit/fetchd/internal/registry"
)

// Reaper is the perpetual cleanup loop. Done jobs older than TTL (aged from
// completion) lose their artifact, their working directory, and their
// registry entry; error jobs are aged out by ErrorTTL so the table cannot
// grow without bound. In-progress jobs are never touched.
type Reaper struct {
	Registry  *registry.Registry
	OutputDir string
	JobsRoot  string

	TTL      time.Duration
	ErrorTTL time.Duration // 0 disables error-job aging
	Interval time.Duration
}

// Run sweeps every Interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	log.Printf("reaper: ttl=%s error_ttl=%s interval=%s", r.TTL, r.ErrorTTL, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

// sweep purges every expired job. Cleanup is best effort: a failed delete is
// logged and the entry kept, so the next cycle retries it.
func (r *Reaper) sweep(now time.Time) {
	for _, job := range r.Registry.Snapshot() {
		if !r.expired(job, now) {
			continue
		}
		if err := r.purge(job); err != nil {
			log.Printf("reaper: job %s: %v (will retry)", job.ID, err)
			continue
		}
		r.Registry.Delete(job.ID)
		metrics.JobsPurged.Inc()
		log.Printf("reaper: purged job %s status=%s file=%q", job.ID, job.Status, job.Filename)
	}
}

func (r *Reaper) expired(job model.Job, now time.Time) bool {
	switch job.Status {
	case model.StatusDone:
		return job.CreatedAt != nil && now.Sub(*job.CreatedAt) > r.TTL
	case model.StatusError:
		return r.ErrorTTL > 0 && !job.FinishedAt.IsZero() && now.Sub(job.FinishedAt) > r.ErrorTTL
	default:
		return false
	}
}

// purge removes the job's artifact and working directory. Concurrent
// downloads of a file being purged degrade to not-found on the serving side.
func (r *Reaper) purge(job model.Job) error {
	if job.Filename != "" {
		path := filepath.Join(r.OutputDir, job.Filename)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	workDir := filepath.Join(r.JobsRoot, job.ID)
	if err := os.RemoveAll(workDir); err != nil {
		return err
	}
	return nil
}
