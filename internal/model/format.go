package model

// MediaFormat describes one fetchable stream reported by the extraction
// engine for a URL. Size already resolves the engine's exact/approximate
// filesize pair (first non-null wins). Zero values mean "not reported".
type MediaFormat struct {
	ID       string `json:"-"`
	Height   int    `json:"height"`
	Size     int64  `json:"filesize"`
	HasVideo bool   `json:"has_video"`
	HasAudio bool   `json:"has_audio"`
}

// MediaInfo is the descriptive metadata the engine returns for a URL.
type MediaInfo struct {
	Title     string        `json:"title"`
	Thumbnail string        `json:"thumbnail"`
	Duration  float64       `json:"duration"`
	Uploader  string        `json:"uploader"`
	Formats   []MediaFormat `json:"formats"`
}

// SelectionPlan is the format selector's output: the chosen video and/or
// audio stream for one acquisition attempt. Either side may be nil; absence
// is not an error by itself.
type SelectionPlan struct {
	Video *MediaFormat
	Audio *MediaFormat
}
