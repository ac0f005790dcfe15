package model

// JobStatus represents the lifecycle state of an acquisition job
type JobStatus string

const (
	// StatusInProgress means the job was submitted and its worker is running
	StatusInProgress JobStatus = "in_progress"

	// StatusDone means the artifact was produced and is downloadable
	StatusDone JobStatus = "done"

	// StatusError means the job failed; Error carries the cause
	StatusError JobStatus = "error"
)

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// Terminal returns true once a job can no longer change state
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}
