package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fetchkit/fetchd/internal/acquire"
	"github.com/fetchkit/fetchd/internal/model"
	"github.com/fetchkit/fetchd/internal/orchestrator"
	"github.com/fetchkit/fetchd/internal/registry"
)

type fakeProber struct {
	err error
}

func (p *fakeProber) Probe(context.Context, string) (*model.MediaInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &model.MediaInfo{
		Title:    "Test Clip",
		Uploader: "tester",
		Duration: 12.5,
		Formats: []model.MediaFormat{
			{ID: "137", Height: 1080, Size: 9 << 20, HasVideo: true},
			{ID: "140", Size: 2 << 20, HasAudio: true},
		},
	}, nil
}

type fakeExecutor struct{}

func (fakeExecutor) Execute(context.Context, string, model.ContentType, int, *model.MediaInfo, model.SelectionPlan, string) (acquire.Artifact, error) {
	return acquire.Artifact{Filename: "clip.mp4", Size: 4}, nil
}

func newTestServer(t *testing.T) (*Server, *registry.Registry, string) {
	t.Helper()
	reg := registry.New()
	outputDir := t.TempDir()
	orch := &orchestrator.Orchestrator{
		Registry:    reg,
		Prober:      &fakeProber{},
		Executor:    fakeExecutor{},
		JobsRoot:    t.TempDir(),
		MaxParallel: 2,
		JobDeadline: time.Minute,
	}
	return New(reg, orch, &fakeProber{}, outputDir, nil), reg, outputDir
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var payload map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("bad JSON response %q: %v", w.Body.String(), err)
		}
	}
	return w, payload
}

func TestExtractRejectsMissingURL(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	for _, body := range []string{"", "{}", `{"url":""}`, "not json"} {
		w, payload := doJSON(t, h, http.MethodPost, "/extract", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, expected 400", body, w.Code)
		}
		if payload["status"] != "error" {
			t.Errorf("body %q: payload = %v", body, payload)
		}
	}
}

func TestExtractReturnsMetadataAndFormats(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, payload := doJSON(t, s.Handler(), http.MethodPost, "/extract", `{"url":"https://youtube.com/watch?v=x"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if payload["status"] != "ok" || payload["title"] != "Test Clip" || payload["uploader"] != "tester" {
		t.Errorf("payload = %v", payload)
	}
	formats, ok := payload["formats"].([]interface{})
	if !ok || len(formats) != 2 {
		t.Fatalf("formats = %v", payload["formats"])
	}
	first := formats[0].(map[string]interface{})
	if first["height"] != float64(1080) || first["has_video"] != true {
		t.Errorf("first format = %v", first)
	}
	if _, leaked := first["ID"]; leaked {
		t.Error("internal format id leaked into the response")
	}
}

func TestDownloadRejectsMissingURL(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, payload := doJSON(t, s.Handler(), http.MethodPost, "/download", `{"type":"both"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
	if payload["status"] != "error" {
		t.Errorf("payload = %v", payload)
	}
}

func TestDownloadReturnsJobIDAndJobCompletes(t *testing.T) {
	s, reg, _ := newTestServer(t)
	h := s.Handler()

	w, payload := doJSON(t, h, http.MethodPost, "/download", `{"url":"https://youtube.com/watch?v=x","type":"both","quality":720}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	id, _ := payload["job_id"].(string)
	if payload["status"] != "ok" || id == "" {
		t.Fatalf("payload = %v", payload)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, ok := reg.Get(id)
		if ok && job.Status.Terminal() {
			if job.Status != model.StatusDone {
				t.Fatalf("job finished as %s: %s", job.Status, job.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("job never reached a terminal state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Terminal records are frozen: repeated polls return the same payload.
	w1, _ := doJSON(t, h, http.MethodGet, "/job/"+id, "")
	w2, _ := doJSON(t, h, http.MethodGet, "/job/"+id, "")
	if w1.Code != http.StatusOK || w1.Body.String() != w2.Body.String() {
		t.Errorf("poll payloads differ: %q vs %q", w1.Body.String(), w2.Body.String())
	}
	if !strings.Contains(w1.Body.String(), `"filename":"clip.mp4"`) {
		t.Errorf("job payload missing filename: %s", w1.Body.String())
	}
}

func TestJobUnknownIs404(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, payload := doJSON(t, s.Handler(), http.MethodGet, "/job/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", w.Code)
	}
	if payload["status"] != "error" {
		t.Errorf("payload = %v", payload)
	}
}

func TestFilesUnknownNameIsExpired(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, payload := doJSON(t, s.Handler(), http.MethodGet, "/files/never-produced.mp4", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", w.Code)
	}
	if payload["status"] != "expired" {
		t.Errorf("payload = %v", payload)
	}
}

func TestFilesServesDoneJobArtifact(t *testing.T) {
	s, reg, outputDir := newTestServer(t)

	reg.Create("j1")
	if _, err := reg.SetDone("j1", "clip.mp4", 9); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "clip.mp4"), []byte("videodata"), 0644); err != nil {
		t.Fatal(err)
	}

	w, _ := doJSON(t, s.Handler(), http.MethodGet, "/files/clip.mp4", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "videodata" {
		t.Errorf("body = %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="clip.mp4"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestFilesInProgressJobIsExpired(t *testing.T) {
	s, reg, outputDir := newTestServer(t)

	reg.Create("j1")
	if err := os.WriteFile(filepath.Join(outputDir, "clip.mp4"), []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	w, payload := doJSON(t, s.Handler(), http.MethodGet, "/files/clip.mp4", "")
	if w.Code != http.StatusNotFound || payload["status"] != "expired" {
		t.Errorf("status = %d payload = %v, expected 404 expired", w.Code, payload)
	}
}

func TestHealthReportsUptime(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, payload := doJSON(t, s.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if payload["status"] != "ok" {
		t.Errorf("payload = %v", payload)
	}
	if _, ok := payload["uptime"].(float64); !ok {
		t.Errorf("uptime missing or not numeric: %v", payload["uptime"])
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	w, _ := doJSON(t, s.Handler(), http.MethodOptions, "/download", "")
	if w.Code != http.StatusOK {
		t.Errorf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}
