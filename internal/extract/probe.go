package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fetchkit/fetchd/internal/model"
)

// probePayload mirrors the slice of the engine's single-JSON dump we care
// about. Numeric fields are float64 because the engine emits approximate
// sizes as floats for some extractors.
type probePayload struct {
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
	Uploader  string  `json:"uploader"`
	Formats   []struct {
		FormatID       string  `json:"format_id"`
		Height         float64 `json:"height"`
		Filesize       float64 `json:"filesize"`
		FilesizeApprox float64 `json:"filesize_approx"`
		VCodec         string  `json:"vcodec"`
		ACodec         string  `json:"acodec"`
	} `json:"formats"`
}

// Probe asks the engine for metadata and the candidate stream list of a URL
// without downloading anything.
func (c *Client) Probe(ctx context.Context, rawURL string) (*model.MediaInfo, error) {
	res, err := c.base(rawURL).
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}

	var payload probePayload
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return nil, fmt.Errorf("parse engine metadata: %w", err)
	}

	info := &model.MediaInfo{
		Title:     payload.Title,
		Thumbnail: payload.Thumbnail,
		Duration:  payload.Duration,
		Uploader:  payload.Uploader,
		Formats:   make([]model.MediaFormat, 0, len(payload.Formats)),
	}
	for _, f := range payload.Formats {
		size := int64(f.Filesize)
		if size == 0 {
			// First non-null wins: fall back to the approximate size.
			size = int64(f.FilesizeApprox)
		}
		info.Formats = append(info.Formats, model.MediaFormat{
			ID:       f.FormatID,
			Height:   int(f.Height),
			Size:     size,
			HasVideo: f.VCodec != "" && f.VCodec != "none",
			HasAudio: f.ACodec != "" && f.ACodec != "none",
		})
	}
	return info, nil
}
