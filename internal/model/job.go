package model

import "time"

// Job is the lifecycle record of one asynchronous acquisition request.
// CreatedAt is set at completion time, not submission time: it anchors the
// retention window of the finished artifact. FinishedAt is internal and
// covers both terminal states so failed jobs can be aged out too.
type Job struct {
	ID        string     `json:"job_id"`
	Status    JobStatus  `json:"status"`
	Filename  string     `json:"filename,omitempty"`
	Size      int64      `json:"size,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Error     string     `json:"error,omitempty"`

	FinishedAt time.Time `json:"-"`
}

// ContentType selects which tracks a download request wants
type ContentType string

const (
	TypeAudio ContentType = "audio"
	TypeVideo ContentType = "video"
	TypeBoth  ContentType = "both"
)

// ParseContentType maps request input to a ContentType, defaulting to both
func ParseContentType(s string) ContentType {
	switch ContentType(s) {
	case TypeAudio:
		return TypeAudio
	case TypeVideo:
		return TypeVideo
	default:
		return TypeBoth
	}
}

// WantsVideo reports whether a video track must be considered
func (t ContentType) WantsVideo() bool {
	return t == TypeVideo || t == TypeBoth
}

// WantsAudio reports whether an audio track must be considered
func (t ContentType) WantsAudio() bool {
	return t == TypeAudio || t == TypeBoth
}
