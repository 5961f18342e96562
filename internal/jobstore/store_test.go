package jobstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/edinai/lecture-audio/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openStore(t *testing.T, cfg config.JobStoreConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "jobs.db")
	}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t, config.JobStoreConfig{})

	job := Job{
		ID:        "job-1",
		LectureID: "L1",
		Filename:  "a.mp3",
		Language:  "Hindi",
		Voice:     "hi-IN-SwaraNeural",
		Path:      "/storage/L1/a.mp3",
		Status:    StatusCompleted,
		Bytes:     4096,
		Chunks:    2,
		Attempts:  1,
	}
	if err := s.Record(context.Background(), job); err != nil {
		t.Fatalf("record: %v", err)
	}

	jobs, err := s.ListLectureJobs(context.Background(), "L1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0]
	if got.Voice != "hi-IN-SwaraNeural" || got.Bytes != 4096 || got.Status != StatusCompleted {
		t.Fatalf("unexpected job row: %+v", got)
	}
}

func TestRecordUpsertsByID(t *testing.T) {
	s := openStore(t, config.JobStoreConfig{})

	base := Job{ID: "job-1", LectureID: "L1", Filename: "a.mp3", Status: StatusFailed, Error: "synthesis failed", Attempts: 3}
	if err := s.Record(context.Background(), base); err != nil {
		t.Fatalf("record: %v", err)
	}
	base.Status = StatusCompleted
	base.Error = ""
	base.Path = "/storage/L1/a.mp3"
	if err := s.Record(context.Background(), base); err != nil {
		t.Fatalf("record update: %v", err)
	}

	jobs, err := s.ListLectureJobs(context.Background(), "L1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected single row after upsert, got %d", len(jobs))
	}
	if jobs[0].Status != StatusCompleted || jobs[0].Error != "" {
		t.Fatalf("expected updated row, got %+v", jobs[0])
	}
}

func TestPruneByAgeAndCount(t *testing.T) {
	s := openStore(t, config.JobStoreConfig{RetentionDays: 1, MaxJobs: 1})

	s.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.Record(context.Background(), Job{ID: "old", LectureID: "L1", Filename: "a.mp3", Status: StatusCompleted}); err != nil {
		t.Fatalf("record old: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.Record(context.Background(), Job{ID: "new", LectureID: "L1", Filename: "b.mp3", Status: StatusCompleted}); err != nil {
		t.Fatalf("record new: %v", err)
	}
	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	jobs, err := s.ListLectureJobs(context.Background(), "L1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "new" {
		t.Fatalf("expected only the newest job to survive, got %+v", jobs)
	}
}
