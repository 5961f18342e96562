package tts

import "context"

// EventType tags one event on a synthesis stream.
type EventType int

const (
	// EventAudio carries audio payload bytes to persist.
	EventAudio EventType = iota
	// EventMetadata marks boundary/bookkeeping events with no audio payload.
	EventMetadata
)

// StreamEvent is one typed event received from a synthesis stream.
type StreamEvent struct {
	Type EventType
	Data []byte
}

// SpeechRequest contains parameters for one streaming synthesis attempt.
type SpeechRequest struct {
	Text   string
	Voice  string
	Rate   string
	Volume string
	Pitch  string
}

// Synthesizer opens one streaming synthesis call per invocation. Both
// channels are closed when the stream ends; the error channel carries at
// most one transport error. Implementations must stop sending when ctx is
// cancelled so an abandoned consumer never leaks the producer goroutine.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (<-chan StreamEvent, <-chan error)
}
