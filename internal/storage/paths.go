// Package storage owns the on-disk layout of lecture audio artifacts.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths computes artifact locations under a configured storage root.
type Paths struct {
	root string
}

func NewPaths(root string) Paths {
	return Paths{root: root}
}

// LecturePath returns root/lectureID[/subfolder]/filename, creating any
// missing directories. Safe to call repeatedly for the same lecture.
func (p Paths) LecturePath(lectureID, subfolder, filename string) (string, error) {
	dir := filepath.Join(p.root, lectureID)
	if subfolder != "" {
		dir = filepath.Join(dir, subfolder)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create lecture dir: %w", err)
	}
	return filepath.Join(dir, filename), nil
}
