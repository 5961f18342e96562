package storage

import (
	"errors"
	"fmt"
	"os"
)

// ErrEmptyArtifact reports a finalized artifact with no bytes in it.
var ErrEmptyArtifact = errors.New("artifact is empty after synthesis")

// Artifact is an audio file under construction, exclusively owned by one
// synthesis request. While writing, the file holds a growing prefix that is
// discarded on failure; callers must finish with either Finalize or Discard
// so the handle is released on every exit path.
type Artifact struct {
	path string
	file *os.File
}

// CreateArtifact opens the target file for sequential writing, truncating
// any stale leftover from an earlier failed run.
func CreateArtifact(path string) (*Artifact, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	return &Artifact{path: path, file: f}, nil
}

func (a *Artifact) Path() string { return a.path }

// Append writes one audio segment at the end of the file.
func (a *Artifact) Append(segment []byte) error {
	if a.file == nil {
		return errors.New("artifact already closed")
	}
	if _, err := a.file.Write(segment); err != nil {
		return fmt.Errorf("append segment: %w", err)
	}
	return nil
}

// Finalize closes the file and verifies it holds at least one byte,
// returning the final size.
func (a *Artifact) Finalize() (int64, error) {
	if err := a.close(); err != nil {
		return 0, fmt.Errorf("close artifact: %w", err)
	}
	info, err := os.Stat(a.path)
	if err != nil {
		return 0, fmt.Errorf("stat artifact: %w", err)
	}
	if info.Size() == 0 {
		return 0, ErrEmptyArtifact
	}
	return info.Size(), nil
}

// Discard closes the file and removes whatever was written. A missing file
// is not an error.
func (a *Artifact) Discard() error {
	_ = a.close()
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove partial artifact: %w", err)
	}
	return nil
}

func (a *Artifact) close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
