package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fetchkit/fetchd/internal/model"
	"github.com/fetchkit/fetchd/internal/muxer"
	"github.com/fetchkit/fetchd/internal/platform"
)

// Engine is the slice of the extraction engine the executor drives.
// Implemented by extract.Client.
type Engine interface {
	FetchAudioMP3(ctx context.Context, rawURL, workDir string) error
	FetchVideoCapped(ctx context.Context, rawURL string, ceiling int, outPath string) error
	FetchCombined(ctx context.Context, rawURL string, ceiling int, outPath string) error
	FetchFormatByID(ctx context.Context, rawURL, formatID, destPath string) error
	FetchBest(ctx context.Context, rawURL, outPath string) error
}

// Artifact identifies the file a finished job contributed to the output
// directory.
type Artifact struct {
	Filename string
	Size     int64
}

// Executor turns a selection plan into a finished artifact. It branches on
// platform classification and content type; any failure along the way comes
// back as a single error with the stage in its message.
type Executor struct {
	Engine    Engine
	Muxer     muxer.Muxer
	OutputDir string
}

// Execute runs the acquisition for one job. workDir is the job's private
// scratch directory; the artifact lands in the shared OutputDir under a
// sanitized title-derived name (last writer wins on collisions).
func (e *Executor) Execute(ctx context.Context, rawURL string, contentType model.ContentType, ceiling int, info *model.MediaInfo, plan model.SelectionPlan, workDir string) (Artifact, error) {
	if info == nil || len(info.Formats) == 0 {
		return Artifact{}, errors.New("engine reported no fetchable streams")
	}

	title := SanitizeFilename(info.Title)
	if title == "" {
		// Mirror of the job id, which names the working directory.
		title = filepath.Base(workDir)
	}

	if platform.Detect(rawURL).ShortForm() {
		return e.fetchInto(ctx, title+".mp4", func(ctx context.Context, outPath string) error {
			return e.Engine.FetchBest(ctx, rawURL, outPath)
		})
	}

	switch contentType {
	case model.TypeAudio:
		return e.executeAudio(ctx, rawURL, title, workDir)
	case model.TypeVideo:
		return e.executeVideo(ctx, rawURL, title, ceiling, plan)
	default:
		return e.executeBoth(ctx, rawURL, title, ceiling, plan, workDir)
	}
}

// executeAudio extracts into the workdir (the engine writes audio.mp3 plus
// thumbnail scratch files there), then moves the MP3 into the output dir.
func (e *Executor) executeAudio(ctx context.Context, rawURL, title, workDir string) (Artifact, error) {
	if err := e.Engine.FetchAudioMP3(ctx, rawURL, workDir); err != nil {
		return Artifact{}, err
	}

	produced, err := findByExt(workDir, ".mp3")
	if err != nil {
		return Artifact{}, fmt.Errorf("locate extracted audio: %w", err)
	}

	outPath := filepath.Join(e.OutputDir, title+".mp3")
	if err := os.Rename(produced, outPath); err != nil {
		return Artifact{}, fmt.Errorf("move audio into output dir: %w", err)
	}
	return e.artifactFor(outPath)
}

func (e *Executor) executeVideo(ctx context.Context, rawURL, title string, ceiling int, plan model.SelectionPlan) (Artifact, error) {
	return e.fetchInto(ctx, title+".mp4", func(ctx context.Context, outPath string) error {
		if plan.Video != nil && plan.Video.ID != "" {
			return e.Engine.FetchFormatByID(ctx, rawURL, plan.Video.ID, outPath)
		}
		// No candidate survived the plausibility filter; let the engine's
		// own capped expression decide.
		return e.Engine.FetchVideoCapped(ctx, rawURL, ceiling, outPath)
	})
}

// executeBoth fetches video and audio separately and merges locally when the
// selector pinned both streams; otherwise it falls back to the engine-side
// combined expression in a single pass.
func (e *Executor) executeBoth(ctx context.Context, rawURL, title string, ceiling int, plan model.SelectionPlan, workDir string) (Artifact, error) {
	if plan.Video == nil || plan.Video.ID == "" || plan.Audio == nil || plan.Audio.ID == "" {
		return e.fetchInto(ctx, title+".mp4", func(ctx context.Context, outPath string) error {
			return e.Engine.FetchCombined(ctx, rawURL, ceiling, outPath)
		})
	}

	videoPath := filepath.Join(workDir, "video.mp4")
	audioPath := filepath.Join(workDir, "audio.m4a")

	if err := e.Engine.FetchFormatByID(ctx, rawURL, plan.Video.ID, videoPath); err != nil {
		return Artifact{}, err
	}
	if err := e.Engine.FetchFormatByID(ctx, rawURL, plan.Audio.ID, audioPath); err != nil {
		return Artifact{}, err
	}

	outPath := filepath.Join(e.OutputDir, title+".mp4")
	if err := e.Muxer.Merge(ctx, videoPath, audioPath, outPath); err != nil {
		return Artifact{}, err
	}
	return e.artifactFor(outPath)
}

// fetchInto runs one engine fetch that writes straight to the output dir.
func (e *Executor) fetchInto(ctx context.Context, filename string, fetch func(ctx context.Context, outPath string) error) (Artifact, error) {
	outPath := filepath.Join(e.OutputDir, filename)
	if err := fetch(ctx, outPath); err != nil {
		return Artifact{}, err
	}
	return e.artifactFor(outPath)
}

func (e *Executor) artifactFor(outPath string) (Artifact, error) {
	fi, err := os.Stat(outPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("stat artifact: %w", err)
	}
	return Artifact{Filename: filepath.Base(outPath), Size: fi.Size()}, nil
}

// findByExt returns the first file in dir with the given extension.
func findByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no %s file in %s", ext, dir)
}

// SanitizeFilename strips characters that are unsafe in filenames across
// platforms and trims surrounding whitespace.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}
