package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fetchkit/fetchd/internal/model"
)

func TestCreateAndGet(t *testing.T) {
	r := New()
	created := r.Create("job-1")

	if created.Status != model.StatusInProgress {
		t.Errorf("Status = %s, expected in_progress", created.Status)
	}

	got, ok := r.Get("job-1")
	if !ok {
		t.Fatal("expected job to exist")
	}
	if got.ID != "job-1" || got.Status != model.StatusInProgress {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing job to be absent")
	}
}

func TestTerminalTransitionIsOneWay(t *testing.T) {
	r := New()
	r.Create("job-1")

	done, err := r.SetDone("job-1", "file.mp4", 42)
	if err != nil {
		t.Fatalf("SetDone: %v", err)
	}
	if done.Status != model.StatusDone || done.Filename != "file.mp4" || done.Size != 42 {
		t.Errorf("unexpected done record: %+v", done)
	}
	if done.CreatedAt == nil {
		t.Error("CreatedAt must be stamped at completion")
	}
	if done.Error != "" {
		t.Error("done record must not carry an error message")
	}

	if _, err := r.SetError("job-1", "late failure"); err == nil {
		t.Error("second terminal write must be refused")
	}
	if _, err := r.SetDone("job-1", "other.mp4", 1); err == nil {
		t.Error("re-entering done must be refused")
	}

	got, _ := r.Get("job-1")
	if got.Filename != "file.mp4" || got.Status != model.StatusDone {
		t.Errorf("record changed after refused write: %+v", got)
	}
}

func TestSetErrorRecord(t *testing.T) {
	r := New()
	r.Create("job-1")

	failed, err := r.SetError("job-1", "fetch failed")
	if err != nil {
		t.Fatalf("SetError: %v", err)
	}
	if failed.Status != model.StatusError || failed.Error != "fetch failed" {
		t.Errorf("unexpected error record: %+v", failed)
	}
	if failed.CreatedAt != nil {
		t.Error("error record must not carry CreatedAt")
	}
	if failed.FinishedAt.IsZero() {
		t.Error("error record must carry a terminal timestamp")
	}
}

func TestSetTerminalOnUnknownJob(t *testing.T) {
	r := New()
	if _, err := r.SetDone("nope", "f", 1); err == nil {
		t.Error("expected error for unknown job")
	}
	if _, err := r.SetError("nope", "m"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestGetReturnsCopies(t *testing.T) {
	r := New()
	r.Create("job-1")

	got, _ := r.Get("job-1")
	got.Status = model.StatusDone
	got.Filename = "tampered"

	fresh, _ := r.Get("job-1")
	if fresh.Status != model.StatusInProgress || fresh.Filename != "" {
		t.Error("mutating a returned record must not affect the registry")
	}
}

func TestDeleteAndSnapshot(t *testing.T) {
	r := New()
	r.Create("a")
	r.Create("b")
	r.Delete("a")
	r.Delete("missing") // no-op

	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].ID != "b" {
		t.Errorf("Snapshot = %+v, expected only b", snap)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, expected 1", r.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			r.Create(id)
			if i%2 == 0 {
				r.SetDone(id, id+".mp4", int64(i))
			} else {
				r.SetError(id, "boom")
			}
			r.Get(id)
			r.Snapshot()
		}(i)
	}
	wg.Wait()

	if r.Len() != n {
		t.Errorf("Len = %d, expected %d", r.Len(), n)
	}
	for _, job := range r.Snapshot() {
		if !job.Status.Terminal() {
			t.Errorf("job %s not terminal: %s", job.ID, job.Status)
		}
		if job.Status == model.StatusDone && job.Error != "" {
			t.Errorf("job %s has both terminal fields set", job.ID)
		}
		if job.Status == model.StatusError && job.Filename != "" {
			t.Errorf("job %s has both terminal fields set", job.ID)
		}
	}
}
