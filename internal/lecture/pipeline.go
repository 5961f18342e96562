// Package lecture drives text-to-audio synthesis for lecture content.
package lecture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edinai/lecture-audio/internal/config"
	"github.com/edinai/lecture-audio/internal/storage"
	"github.com/edinai/lecture-audio/internal/tts"
)

// Request identifies one lecture audio artifact to produce.
type Request struct {
	JobID     string
	LectureID string
	Text      string
	Language  string
	Filename  string
	Subfolder string
}

// Result describes the outcome of a successful (or skipped) request.
type Result struct {
	Path     string
	Voice    string
	Bytes    int64
	Chunks   int
	Attempts int
	Skipped  bool
}

// Pipeline turns one request into a single playable audio file. On success
// the artifact holds exactly the streamed bytes in chunk order; on any
// failure no file is left behind.
type Pipeline struct {
	cfg    config.SynthesisConfig
	paths  storage.Paths
	chunks *tts.ChunkSynthesizer
	logger *slog.Logger
}

func NewPipeline(cfg config.SynthesisConfig, storageRoot string, synth tts.Synthesizer, log *slog.Logger) *Pipeline {
	policy := tts.RetryPolicy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: time.Duration(cfg.InitialDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.MaxDelayMS) * time.Millisecond,
	}
	timeout := time.Duration(cfg.ChunkTimeoutMS) * time.Millisecond
	return &Pipeline{
		cfg:    cfg,
		paths:  storage.NewPaths(storageRoot),
		chunks: tts.NewChunkSynthesizer(synth, policy, timeout, log),
		logger: log.With(slog.String("component", "lecture-pipeline")),
	}
}

// Synthesize runs one request end to end. Empty text is a skip, not a
// failure: Result.Skipped is true, no error, no file. Chunks are processed
// strictly sequentially because append order determines audio order.
func (p *Pipeline) Synthesize(ctx context.Context, req Request) (Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		p.logger.Info("skipping synthesis, text is empty",
			slog.String("lecture_id", req.LectureID),
			slog.String("filename", req.Filename))
		return Result{Skipped: true}, nil
	}

	language := req.Language
	if language == "" {
		language = p.cfg.DefaultLanguage
	}
	voice := tts.VoiceForLanguage(language, p.logger)

	path, err := p.paths.LecturePath(req.LectureID, req.Subfolder, req.Filename)
	if err != nil {
		return Result{}, err
	}

	chunks := tts.SplitChunks(text, p.cfg.ChunkCharLimit)

	artifact, err := storage.CreateArtifact(path)
	if err != nil {
		return Result{}, err
	}

	totalAttempts := 0
	for i, chunkText := range chunks {
		segments, attempts, err := p.chunks.SynthesizeChunk(ctx, tts.SpeechRequest{
			Text:   chunkText,
			Voice:  voice,
			Rate:   p.cfg.Rate,
			Volume: p.cfg.Volume,
			Pitch:  p.cfg.Pitch,
		})
		totalAttempts += attempts
		if err != nil {
			p.abort(artifact, req, totalAttempts, err)
			return Result{}, fmt.Errorf("synthesize chunk %d of %d: %w", i+1, len(chunks), err)
		}
		for _, segment := range segments {
			if err := artifact.Append(segment); err != nil {
				p.abort(artifact, req, totalAttempts, err)
				return Result{}, err
			}
		}
	}

	size, err := artifact.Finalize()
	if err != nil {
		p.abort(artifact, req, totalAttempts, err)
		return Result{}, fmt.Errorf("verify artifact: %w", err)
	}

	p.logger.Info("generated lecture audio",
		slog.String("lecture_id", req.LectureID),
		slog.String("path", path),
		slog.Int64("bytes", size),
		slog.Int("chunks", len(chunks)),
		slog.Int("attempts", totalAttempts))

	return Result{
		Path:     path,
		Voice:    voice,
		Bytes:    size,
		Chunks:   len(chunks),
		Attempts: totalAttempts,
	}, nil
}

// abort logs the failure with request identifiers and removes the partial
// artifact. A cleanup failure is logged and never masks the original error.
func (p *Pipeline) abort(artifact *storage.Artifact, req Request, attempts int, cause error) {
	p.logger.Error("failed to synthesize lecture audio",
		slog.String("lecture_id", req.LectureID),
		slog.String("filename", req.Filename),
		slog.Int("attempts", attempts),
		slog.String("error", cause.Error()))
	if err := artifact.Discard(); err != nil {
		p.logger.Warn("failed to remove partial artifact",
			slog.String("path", artifact.Path()),
			slog.String("error", err.Error()))
	}
}
