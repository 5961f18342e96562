package lecture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/edinai/lecture-audio/internal/config"
	"github.com/edinai/lecture-audio/internal/tts"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSynthConfig() config.SynthesisConfig {
	cfg := config.Default().Synthesis
	cfg.Mode = "mock"
	cfg.InitialDelayMS = 1
	cfg.MaxDelayMS = 2
	return cfg
}

func newTestPipeline(t *testing.T, synth tts.Synthesizer, cfg config.SynthesisConfig) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	return NewPipeline(cfg, root, synth, testLogger()), root
}

func TestSynthesizeProducesArtifact(t *testing.T) {
	synth := tts.NewMockSynthesizer(tts.MockOutcome{Segments: [][]byte{[]byte("audio-bytes")}})
	p, root := newTestPipeline(t, synth, testSynthConfig())

	result, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1",
		Text:      "Hello world.",
		Language:  "English",
		Filename:  "a.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped {
		t.Fatal("expected a produced artifact, got skip")
	}
	wantPath := filepath.Join(root, "L1", "a.mp3")
	if result.Path != wantPath {
		t.Fatalf("expected path %s, got %s", wantPath, result.Path)
	}
	if result.Voice != "en-US-JennyNeural" {
		t.Fatalf("unexpected voice: %s", result.Voice)
	}
	info, err := os.Stat(wantPath)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if info.Size() == 0 || info.Size() != result.Bytes {
		t.Fatalf("size mismatch: stat=%d result=%d", info.Size(), result.Bytes)
	}
}

func TestSynthesizeWritesChunksInOrder(t *testing.T) {
	// One scripted outcome per chunk; the mock advances per call.
	synth := tts.NewMockSynthesizer(
		tts.MockOutcome{Segments: [][]byte{[]byte("first-"), []byte("chunk-")}},
		tts.MockOutcome{Segments: [][]byte{[]byte("second-chunk")}},
	)
	cfg := testSynthConfig()
	cfg.ChunkCharLimit = 30
	p, _ := newTestPipeline(t, synth, cfg)

	result, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1",
		Text:      "This is sentence number one. And this is sentence two.",
		Language:  "English",
		Filename:  "a.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Chunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", result.Chunks)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "first-chunk-second-chunk" {
		t.Fatalf("bytes not in chunk order: %q", data)
	}
}

func TestSynthesizeTransientFailureThenSuccess(t *testing.T) {
	synth := tts.NewMockSynthesizer(
		tts.MockOutcome{Segments: [][]byte{[]byte("discarded")}, Err: errors.New("connection reset")},
		tts.MockOutcome{Err: errors.New("timeout")},
		tts.MockOutcome{Segments: [][]byte{[]byte("kept")}},
	)
	p, _ := newTestPipeline(t, synth, testSynthConfig())

	result, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1", Text: "Hello world.", Language: "English", Filename: "a.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	// No bytes from the failed attempts may leak into the file.
	if string(data) != "kept" {
		t.Fatalf("expected only the successful attempt's bytes, got %q", data)
	}
}

func TestSynthesizeExhaustedRetriesLeavesNoFile(t *testing.T) {
	synth := tts.NewMockSynthesizer(tts.MockOutcome{Err: errors.New("broken pipe")})
	p, root := newTestPipeline(t, synth, testSynthConfig())

	_, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1", Text: "Hello world.", Language: "English", Filename: "a.mp3",
	})
	if err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	if _, statErr := os.Stat(filepath.Join(root, "L1", "a.mp3")); !os.IsNotExist(statErr) {
		t.Fatalf("partial artifact left behind, stat err = %v", statErr)
	}
}

func TestSynthesizeEmptyAudioStreamFailsRequest(t *testing.T) {
	synth := tts.NewMockSynthesizer(tts.MockOutcome{}) // completes with zero audio events
	p, root := newTestPipeline(t, synth, testSynthConfig())

	_, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1", Text: "Hello world.", Language: "English", Filename: "a.mp3",
	})
	if !errors.Is(err, tts.ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "L1", "a.mp3")); !os.IsNotExist(statErr) {
		t.Fatal("artifact must not exist after an empty-stream failure")
	}
}

func TestSynthesizeEmptyTextSkips(t *testing.T) {
	synth := tts.NewMockSynthesizer()
	p, root := newTestPipeline(t, synth, testSynthConfig())

	result, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1", Text: "   \n ", Language: "English", Filename: "a.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Skipped {
		t.Fatal("expected skip for empty text")
	}
	if synth.Calls() != 0 {
		t.Fatalf("synthesizer must not be invoked, got %d calls", synth.Calls())
	}
	// Not even the lecture directory is created.
	if _, statErr := os.Stat(filepath.Join(root, "L1")); !os.IsNotExist(statErr) {
		t.Fatal("no filesystem state may be created for empty input")
	}
}

func TestSynthesizeDefaultsLanguage(t *testing.T) {
	synth := tts.NewMockSynthesizer(tts.MockOutcome{Segments: [][]byte{{1}}})
	cfg := testSynthConfig()
	cfg.DefaultLanguage = "Hindi"
	p, _ := newTestPipeline(t, synth, cfg)

	result, err := p.Synthesize(context.Background(), Request{
		LectureID: "L1", Text: "Hello.", Filename: "a.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Voice != "hi-IN-SwaraNeural" {
		t.Fatalf("expected configured default language voice, got %s", result.Voice)
	}
}
