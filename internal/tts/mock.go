package tts

import (
	"context"
	"sync"
)

// MockOutcome scripts one attempt of the mock synthesizer.
type MockOutcome struct {
	Segments [][]byte
	Err      error
}

// MockSynthesizer replays scripted outcomes, one per Synthesize call. When
// the script runs out the last outcome repeats. With an empty script every
// call yields a single silent audio segment.
type MockSynthesizer struct {
	mu     sync.Mutex
	script []MockOutcome
	calls  int
}

func NewMockSynthesizer(script ...MockOutcome) *MockSynthesizer {
	return &MockSynthesizer{script: script}
}

// Calls reports how many attempts were made.
func (m *MockSynthesizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, req SpeechRequest) (<-chan StreamEvent, <-chan error) {
	m.mu.Lock()
	outcome := MockOutcome{Segments: [][]byte{make([]byte, 64)}}
	if len(m.script) > 0 {
		idx := m.calls
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		outcome = m.script[idx]
	}
	m.calls++
	m.mu.Unlock()

	events := make(chan StreamEvent, len(outcome.Segments)+1)
	errs := make(chan error, 1)

	// A boundary event first, so consumers prove they filter non-audio types.
	events <- StreamEvent{Type: EventMetadata}
	for _, seg := range outcome.Segments {
		events <- StreamEvent{Type: EventAudio, Data: seg}
	}
	if outcome.Err != nil {
		errs <- outcome.Err
	}
	close(events)
	close(errs)
	return events, errs
}
