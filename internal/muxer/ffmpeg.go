package muxer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Muxer defines the interface for combining separately fetched tracks.
type Muxer interface {
	Available() bool
	Merge(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// FFmpeg implements Muxer using the ffmpeg command line tool.
type FFmpeg struct {
	Path string
}

// New returns an FFmpeg muxer. If path is empty, "ffmpeg" from PATH is used.
func New(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// Available checks if ffmpeg is executable.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

// MergeArgs builds the ffmpeg arguments for a merge: the video elementary
// stream is copied unmodified, the audio track is transcoded to AAC.
func MergeArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-y", outputPath,
	}
}

// Merge combines a video file and an audio file into one output container.
func (f *FFmpeg) Merge(ctx context.Context, videoPath, audioPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, f.Path, MergeArgs(videoPath, audioPath, outputPath)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.Bytes()); msg != "" {
			return fmt.Errorf("ffmpeg merge failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg merge failed: %w", err)
	}
	return nil
}

// lastLine extracts the final non-empty stderr line, which is where ffmpeg
// puts its actual error.
func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
