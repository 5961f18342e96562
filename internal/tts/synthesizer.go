package tts

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNoAudio reports a stream that completed without a single audio event.
// An empty stream is a failure, not an empty success.
var ErrNoAudio = errors.New("synthesis stream produced no audio")

// ChunkSynthesizer turns one chunk of text into audio segments, retrying
// transient failures with capped exponential backoff. Segments are buffered
// per attempt so bytes from a failed attempt never reach the caller.
type ChunkSynthesizer struct {
	synth   Synthesizer
	policy  RetryPolicy
	timeout time.Duration
	logger  *slog.Logger
}

func NewChunkSynthesizer(synth Synthesizer, policy RetryPolicy, timeout time.Duration, log *slog.Logger) *ChunkSynthesizer {
	return &ChunkSynthesizer{
		synth:   synth,
		policy:  policy,
		timeout: timeout,
		logger:  log.With(slog.String("component", "chunk-synthesizer")),
	}
}

// SynthesizeChunk runs one chunk through the synthesizer. It returns the
// winning attempt's audio segments in stream order, the number of attempts
// made, and the terminal error once retries are exhausted.
func (c *ChunkSynthesizer) SynthesizeChunk(ctx context.Context, req SpeechRequest) ([][]byte, int, error) {
	attemptNo := 0
	return Retry(ctx, c.policy, func(ctx context.Context) ([][]byte, error) {
		attemptNo++
		segments, err := c.attempt(ctx, req)
		if err != nil {
			c.logger.Warn("synthesis attempt failed",
				slog.Int("attempt", attemptNo),
				slog.Int("max_attempts", c.policy.MaxAttempts),
				slog.String("voice", req.Voice),
				slog.String("error", err.Error()))
		}
		return segments, err
	})
}

// attempt opens one streaming call, consumes it fully and collects audio
// events. Timeouts count as transient failures like any transport error.
func (c *ChunkSynthesizer) attempt(parent context.Context, req SpeechRequest) ([][]byte, error) {
	var ctx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	events, errs := c.synth.Synthesize(ctx, req)

	var segments [][]byte
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Type == EventAudio && len(ev.Data) > 0 {
				segments = append(segments, ev.Data)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(segments) == 0 {
		return nil, ErrNoAudio
	}
	return segments, nil
}
