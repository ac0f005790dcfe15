package extract

import (
	"os"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"

	"github.com/fetchkit/fetchd/internal/platform"
)

// Client wraps the yt-dlp engine (via github.com/lrstanley/go-ytdlp) behind
// the handful of fetch shapes the acquisition executor needs. Every fetch
// respects the caller's context; a hung engine process dies with it.
type Client struct {
	// AudioBitrate is the target bitrate for MP3 extraction, e.g. "192K".
	AudioBitrate string

	// CookieFile is the default Netscape cookie file handed to the engine.
	// CookieFileTikTok, when set, overrides it for TikTok URLs.
	CookieFile       string
	CookieFileTikTok string
}

// base builds the engine invocation shared by every fetch: certificate
// checks off, playlists off, and the platform's credential context attached
// when the cookie file actually exists.
func (c *Client) base(rawURL string) *ytdlp.Command {
	dl := ytdlp.New().
		NoCheckCertificates().
		NoPlaylist().
		ForceOverwrites()

	if ck := c.cookieFor(rawURL); ck != "" {
		if _, err := os.Stat(ck); err == nil {
			dl = dl.Cookies(ck)
		}
	}
	return dl
}

func (c *Client) cookieFor(rawURL string) string {
	if platform.Detect(rawURL) == platform.TikTok && c.CookieFileTikTok != "" {
		return c.CookieFileTikTok
	}
	return c.CookieFile
}

func (c *Client) bitrate() string {
	if c.AudioBitrate == "" {
		return "192K"
	}
	return c.AudioBitrate
}

// AudioOutputTemplate returns the engine output template used inside a job
// working directory for audio extraction.
func AudioOutputTemplate(workDir string) string {
	return filepath.Join(workDir, "audio.%(ext)s")
}
