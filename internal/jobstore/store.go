package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/edinai/lecture-audio/internal/config"
	_ "modernc.org/sqlite"
)

// Job statuses recorded in the store.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Job is one synthesis request outcome.
type Job struct {
	ID        string
	LectureID string
	Filename  string
	Subfolder string
	Language  string
	Voice     string
	Path      string
	Status    string
	Bytes     int64
	Chunks    int
	Attempts  int
	Error     string
	CreatedAt time.Time
}

// Store keeps a SQLite-backed history of synthesis jobs.
type Store struct {
	db    *sql.DB
	cfg   config.JobStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the job store according to config.
func Open(ctx context.Context, cfg config.JobStoreConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("job store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS jobs (
    job_id TEXT PRIMARY KEY,
    lecture_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    subfolder TEXT,
    language TEXT,
    voice TEXT,
    path TEXT,
    status TEXT NOT NULL,
    bytes INTEGER NOT NULL DEFAULT 0,
    chunks INTEGER NOT NULL DEFAULT 0,
    attempts INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_lecture_created ON jobs(lecture_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record writes one job outcome into the store.
func (s *Store) Record(ctx context.Context, job Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs(job_id, lecture_id, filename, subfolder, language, voice, path, status, bytes, chunks, attempts, error, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
		   path=excluded.path, status=excluded.status, bytes=excluded.bytes,
		   chunks=excluded.chunks, attempts=excluded.attempts, error=excluded.error`,
		job.ID, job.LectureID, job.Filename, job.Subfolder, job.Language, job.Voice,
		job.Path, job.Status, job.Bytes, job.Chunks, job.Attempts, job.Error, job.CreatedAt)
	return err
}

// ListLectureJobs returns the most recent jobs for one lecture, newest first.
func (s *Store) ListLectureJobs(ctx context.Context, lectureID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, lecture_id, filename, subfolder, language, voice, path, status, bytes, chunks, attempts, error, created_at
		 FROM jobs WHERE lecture_id = ? ORDER BY created_at DESC LIMIT ?`,
		lectureID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var subfolder, language, voice, path, errMsg sql.NullString
		if err := rows.Scan(&j.ID, &j.LectureID, &j.Filename, &subfolder, &language, &voice,
			&path, &j.Status, &j.Bytes, &j.Chunks, &j.Attempts, &errMsg, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.Subfolder = subfolder.String
		j.Language = language.String
		j.Voice = voice.String
		j.Path = path.String
		j.Error = errMsg.String
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Prune applies the retention policy: drop rows older than the retention
// window, then cap the table at max_jobs keeping the newest rows.
func (s *Store) Prune(ctx context.Context) error {
	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff); err != nil {
			return fmt.Errorf("prune by age: %w", err)
		}
	}
	if s.cfg.MaxJobs > 0 {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM jobs WHERE job_id NOT IN (
			   SELECT job_id FROM jobs ORDER BY created_at DESC LIMIT ?)`,
			s.cfg.MaxJobs)
		if err != nil {
			return fmt.Errorf("prune by count: %w", err)
		}
	}
	return nil
}
