package extract

import (
	"context"
	"fmt"
)

// FetchAudioMP3 downloads the best audio stream into workDir, transcoded to
// MP3 at the configured bitrate with thumbnail and metadata tags embedded.
// The produced file lands in workDir as audio.mp3.
func (c *Client) FetchAudioMP3(ctx context.Context, rawURL, workDir string) error {
	dl := c.base(rawURL).
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality(c.bitrate()).
		WriteThumbnail().
		ConvertThumbnails("jpg").
		EmbedThumbnail().
		EmbedMetadata().
		Output(AudioOutputTemplate(workDir))

	if _, err := dl.Run(ctx, rawURL); err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}
	return nil
}

// FetchVideoCapped downloads the best video-only stream at or under the
// given height directly to outPath.
func (c *Client) FetchVideoCapped(ctx context.Context, rawURL string, ceiling int, outPath string) error {
	dl := c.base(rawURL).
		Format(fmt.Sprintf("bestvideo[height<=%d]/bestvideo", ceiling)).
		Output(outPath)

	if _, err := dl.Run(ctx, rawURL); err != nil {
		return fmt.Errorf("fetch video: %w", err)
	}
	return nil
}

// FetchCombined asks the engine for best capped video plus best audio and
// lets it merge both into a single MP4 at outPath in one pass.
func (c *Client) FetchCombined(ctx context.Context, rawURL string, ceiling int, outPath string) error {
	dl := c.base(rawURL).
		Format(fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", ceiling)).
		MergeOutputFormat("mp4").
		Output(outPath)

	if _, err := dl.Run(ctx, rawURL); err != nil {
		return fmt.Errorf("fetch combined: %w", err)
	}
	return nil
}

// FetchFormatByID downloads exactly one stream, addressed by the engine's
// format id, to destPath. Used for split video+audio acquisition.
func (c *Client) FetchFormatByID(ctx context.Context, rawURL, formatID, destPath string) error {
	dl := c.base(rawURL).
		Format(formatID).
		Output(destPath)

	if _, err := dl.Run(ctx, rawURL); err != nil {
		return fmt.Errorf("fetch format %s: %w", formatID, err)
	}
	return nil
}

// FetchBest downloads the best available combined stream to outPath,
// ignoring any quality ceiling. Short-form platform content always takes
// this path.
func (c *Client) FetchBest(ctx context.Context, rawURL, outPath string) error {
	dl := c.base(rawURL).
		Format("best").
		MergeOutputFormat("mp4").
		Output(outPath)

	if _, err := dl.Run(ctx, rawURL); err != nil {
		return fmt.Errorf("fetch best: %w", err)
	}
	return nil
}
