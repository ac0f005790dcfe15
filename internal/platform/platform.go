package platform

// Package platform classifies media URLs by source platform. The acquisition
// executor branches on this: short-form sources are always fetched as one
// combined stream, and each platform may carry its own cookie file.

import "strings"

// Platform identifies the source site of a media URL
type Platform string

const (
	YouTube       Platform = "youtube"
	YouTubeShorts Platform = "youtube_shorts"
	TikTok        Platform = "tiktok"
	Generic       Platform = "generic"
)

// Detect classifies a URL by shape. Unknown hosts map to Generic.
func Detect(rawURL string) Platform {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "youtube.com/shorts/"):
		return YouTubeShorts
	case strings.Contains(u, "tiktok.com"):
		return TikTok
	case strings.Contains(u, "youtube.com"), strings.Contains(u, "youtu.be"):
		return YouTube
	default:
		return Generic
	}
}

// ShortForm reports whether content from p is short-video material that is
// fetched as a single best-available combined stream, ignoring quality caps.
func (p Platform) ShortForm() bool {
	return p == YouTubeShorts || p == TikTok
}
