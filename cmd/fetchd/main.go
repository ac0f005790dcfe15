package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fetchkit/fetchd/internal/acquire"
	"github.com/fetchkit/fetchd/internal/config"
	"github.com/fetchkit/fetchd/internal/extract"
	"github.com/fetchkit/fetchd/internal/model"
	"github.com/fetchkit/fetchd/internal/muxer"
	"github.com/fetchkit/fetchd/internal/orchestrator"
	"github.com/fetchkit/fetchd/internal/reaper"
	"github.com/fetchkit/fetchd/internal/registry"
	"github.com/fetchkit/fetchd/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.FromEnv()

	addr := flag.String("addr", cfg.Addr, "listen address")
	dataDir := flag.String("data-dir", cfg.DataDir, "root directory for job scratch space and artifacts")
	flag.Parse()
	cfg.Addr = *addr
	cfg.DataDir = *dataDir

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	for _, dir := range []string{cfg.JobsDir(), cfg.OutputDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	engine := &extract.Client{
		AudioBitrate:     cfg.AudioBitrate,
		CookieFile:       cfg.CookieFile,
		CookieFileTikTok: cfg.CookieFileTikTok,
	}

	reg := registry.New()
	hub := server.NewHub()
	hub.Start()

	orch := &orchestrator.Orchestrator{
		Registry: reg,
		Prober:   engine,
		Executor: &acquire.Executor{
			Engine:    engine,
			Muxer:     muxer.New(cfg.FFmpegPath),
			OutputDir: cfg.OutputDir(),
		},
		JobsRoot:    cfg.JobsDir(),
		MaxParallel: cfg.MaxParallel,
		JobDeadline: cfg.JobDeadline,
		Notify:      func(j model.Job) { hub.BroadcastJob(j) },
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go (&reaper.Reaper{
		Registry:  reg,
		OutputDir: cfg.OutputDir(),
		JobsRoot:  cfg.JobsDir(),
		TTL:       cfg.ArtifactTTL,
		ErrorTTL:  cfg.ErrorTTL,
		Interval:  cfg.SweepInterval,
	}).Run(ctx)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(reg, orch, engine, cfg.OutputDir(), hub).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (data dir %s)", cfg.Addr, cfg.DataDir)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
