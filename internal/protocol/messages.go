package protocol

import "time"

// SynthesisRequest asks the lecture service to produce one audio artifact.
type SynthesisRequest struct {
	JobID     string `json:"job_id,omitempty"`
	LectureID string `json:"lecture_id"`
	Text      string `json:"text"`
	Language  string `json:"language"`
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder,omitempty"`
}

// SynthesisResult reports the outcome of one synthesis request.
type SynthesisResult struct {
	JobID     string    `json:"job_id,omitempty"`
	LectureID string    `json:"lecture_id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path,omitempty"`
	Voice     string    `json:"voice,omitempty"`
	Bytes     int64     `json:"bytes,omitempty"`
	Chunks    int       `json:"chunks,omitempty"`
	Skipped   bool      `json:"skipped,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSynthesisRequest   = "lecture.audio.request"
	SubjectSynthesisCompleted = "lecture.audio.completed"
	SubjectSynthesisFailed    = "lecture.audio.failed"
)
