package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fetchkit/fetchd/internal/model"
	"github.com/fetchkit/fetchd/internal/orchestrator"
	"github.com/fetchkit/fetchd/internal/registry"
)

// Prober resolves a URL to its media metadata. Implemented by extract.Client.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (*model.MediaInfo, error)
}

// Server is the HTTP surface over the job pipeline.
type Server struct {
	registry  *registry.Registry
	orch      *orchestrator.Orchestrator
	prober    Prober
	outputDir string
	hub       *Hub
	start     time.Time
	upgrader  websocket.Upgrader
}

// New wires the HTTP surface. hub may be nil when websocket updates are not
// wanted (tests).
func New(reg *registry.Registry, orch *orchestrator.Orchestrator, prober Prober, outputDir string, hub *Hub) *Server {
	return &Server{
		registry:  reg,
		orch:      orch,
		prober:    prober,
		outputDir: outputDir,
		hub:       hub,
		start:     time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler builds the route table, wrapped in permissive CORS for browser
// frontends.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/job/", s.handleJob)
	mux.HandleFunc("/files/", s.handleFile)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type extractRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Quality int    `json:"quality"`
}

// handleExtract probes a URL and returns its metadata and candidate streams.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"status": "error"})
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error"})
		return
	}

	info, err := s.prober.Probe(r.Context(), req.URL)
	if err != nil {
		log.Printf("extract %q: %v", req.URL, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"title":     info.Title,
		"thumbnail": info.Thumbnail,
		"duration":  info.Duration,
		"uploader":  info.Uploader,
		"formats":   info.Formats,
	})
}

// handleDownload registers an acquisition job and answers with its id before
// any work happens.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"status": "error"})
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error"})
		return
	}
	if req.Quality <= 0 {
		req.Quality = 1080
	}

	id, err := s.orch.Submit(req.URL, model.ParseContentType(req.Type), req.Quality)
	if err != nil {
		log.Printf("download %q: %v", req.URL, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "job_id": id})
}

// handleJob returns the current job record. Terminal records never change,
// so repeated polls after completion see the same payload.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"status": "error"})
		return
	}

	id := filepath.Base(r.URL.Path)
	job, ok := s.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleFile streams a finished artifact as an attachment. Anything that is
// not a live done job's file reads as expired: unknown names, in-progress
// jobs, and files the reaper already removed all answer the same way.
// Ownership is a linear scan over live jobs; at larger registry sizes this
// wants a filename index.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"status": "error"})
		return
	}

	name := filepath.Base(r.URL.Path)
	if name == "." || name == "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "expired"})
		return
	}

	var owned bool
	for _, job := range s.registry.Snapshot() {
		if job.Status == model.StatusDone && job.Filename == name {
			owned = true
			break
		}
	}
	if !owned {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "expired"})
		return
	}

	f, err := os.Open(filepath.Join(s.outputDir, name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("files %q: %v", name, err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "expired"})
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "expired"})
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, fi.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": int64(time.Since(s.start).Seconds()),
	})
}

// handleWS upgrades the connection and registers it with the hub. The read
// loop exists only to notice the client going away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket updates disabled", http.StatusNotImplemented)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	// Current state first, so a late subscriber is not blind until the next
	// transition. The snapshot goes out before the hub learns about the
	// connection: once registered, the hub loop is the connection's only
	// writer.
	for _, job := range s.registry.Snapshot() {
		payload, err := json.Marshal(map[string]interface{}{"type": "job_update", "job": job})
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			return
		}
	}
	s.hub.Register(conn)

	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
