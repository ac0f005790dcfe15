package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults mirror the reference deployment: artifacts live for 3 minutes
// after completion, the reaper wakes once a minute.
const (
	DefaultAddr          = ":8000"
	DefaultDataDir       = "data"
	DefaultArtifactTTL   = 180 * time.Second
	DefaultErrorTTL      = 10 * time.Minute
	DefaultSweepInterval = 60 * time.Second
	DefaultMaxParallel   = 4
	DefaultJobDeadline   = 30 * time.Minute
	DefaultAudioBitrate  = "192K"
	DefaultQuality       = 1080
)

// Config holds all runtime settings. Values come from FETCHD_* environment
// variables (a .env file is loaded by main before this runs).
type Config struct {
	Addr    string
	DataDir string

	ArtifactTTL   time.Duration // retention of done jobs, from completion
	ErrorTTL      time.Duration // retention of failed job records; 0 keeps them forever
	SweepInterval time.Duration

	MaxParallel int
	JobDeadline time.Duration

	FFmpegPath   string
	AudioBitrate string

	// Credential context per source platform. CookieFile is the fallback
	// used when no platform-specific file is configured.
	CookieFile       string
	CookieFileTikTok string
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() Config {
	return Config{
		Addr:             envStr("FETCHD_ADDR", DefaultAddr),
		DataDir:          envStr("FETCHD_DATA_DIR", DefaultDataDir),
		ArtifactTTL:      envDurationSeconds("FETCHD_FILE_TTL_S", DefaultArtifactTTL),
		ErrorTTL:         envDurationSeconds("FETCHD_ERROR_TTL_S", DefaultErrorTTL),
		SweepInterval:    envDurationSeconds("FETCHD_SWEEP_S", DefaultSweepInterval),
		MaxParallel:      envInt("FETCHD_MAX_PARALLEL", DefaultMaxParallel),
		JobDeadline:      envDurationSeconds("FETCHD_JOB_TIMEOUT_S", DefaultJobDeadline),
		FFmpegPath:       envStr("FETCHD_FFMPEG", "ffmpeg"),
		AudioBitrate:     envStr("FETCHD_AUDIO_BITRATE", DefaultAudioBitrate),
		CookieFile:       envStr("FETCHD_COOKIES", "cookies.txt"),
		CookieFileTikTok: envStr("FETCHD_COOKIES_TIKTOK", ""),
	}
}

// JobsDir is the root under which each job gets its working directory.
func (c Config) JobsDir() string {
	return filepath.Join(c.DataDir, "jobs")
}

// OutputDir is the shared flat directory holding finished artifacts.
func (c Config) OutputDir() string {
	return filepath.Join(c.DataDir, "merged")
}

func envStr(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDurationSeconds(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return time.Duration(f * float64(time.Second))
}
