package extract

import (
	"encoding/json"
	"testing"
)

func TestProbePayloadMapping(t *testing.T) {
	raw := `{
		"title": "A Video",
		"thumbnail": "https://example.com/t.jpg",
		"duration": 123.4,
		"uploader": "someone",
		"formats": [
			{"format_id": "137", "height": 1080, "filesize": 9437184, "vcodec": "avc1", "acodec": "none"},
			{"format_id": "140", "height": null, "filesize": null, "filesize_approx": 3145728.0, "vcodec": "none", "acodec": "mp4a"},
			{"format_id": "sb0", "vcodec": "", "acodec": ""}
		]
	}`

	var payload probePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if payload.Title != "A Video" || payload.Uploader != "someone" {
		t.Errorf("metadata fields not mapped: %+v", payload)
	}
	if len(payload.Formats) != 3 {
		t.Fatalf("expected 3 formats, got %d", len(payload.Formats))
	}

	video := payload.Formats[0]
	if video.Height != 1080 || video.Filesize != 9437184 {
		t.Errorf("video format mapped wrong: %+v", video)
	}
	if video.ACodec != "none" {
		t.Errorf("acodec = %q, expected none", video.ACodec)
	}

	audio := payload.Formats[1]
	if audio.Filesize != 0 || audio.FilesizeApprox != 3145728 {
		t.Errorf("approx size not mapped: %+v", audio)
	}
}

func TestCookieFor(t *testing.T) {
	c := &Client{CookieFile: "cookies.txt", CookieFileTikTok: "tiktok.txt"}

	if got := c.cookieFor("https://www.tiktok.com/@u/video/1"); got != "tiktok.txt" {
		t.Errorf("tiktok cookie = %q, expected tiktok.txt", got)
	}
	if got := c.cookieFor("https://youtube.com/watch?v=x"); got != "cookies.txt" {
		t.Errorf("default cookie = %q, expected cookies.txt", got)
	}

	c.CookieFileTikTok = ""
	if got := c.cookieFor("https://www.tiktok.com/@u/video/1"); got != "cookies.txt" {
		t.Errorf("fallback cookie = %q, expected cookies.txt", got)
	}
}

func TestBitrateDefault(t *testing.T) {
	c := &Client{}
	if c.bitrate() != "192K" {
		t.Errorf("bitrate = %q, expected 192K", c.bitrate())
	}
	c.AudioBitrate = "320K"
	if c.bitrate() != "320K" {
		t.Errorf("bitrate = %q, expected 320K", c.bitrate())
	}
}
