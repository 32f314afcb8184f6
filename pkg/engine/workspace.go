package engine

import (
	"fmt"
	"os"
)

// EnsureDir creates path and any missing parents. Idempotent: an existing
// directory is not an error.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return NewResourceError(fmt.Sprintf("creating directory %s", path), err)
	}
	return nil
}

// EnsureCleanDir removes path and everything beneath it, then recreates it
// empty. Postcondition regardless of prior state: the directory exists and
// is empty. A failure here is fatal to the run: later build steps assume a
// pristine staging area.
func EnsureCleanDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return NewResourceError(fmt.Sprintf("clearing directory %s", path), err)
	}
	return EnsureDir(path)
}

// RemoveDir removes path and everything beneath it.
func RemoveDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return NewResourceError(fmt.Sprintf("removing directory %s", path), err)
	}
	return nil
}

// Workspace is the single shared staging directory for source-built tools.
// Exactly one exists per run: reset before the first build task, removed on
// successful completion. Build tasks never run concurrently against it;
// the pipeline is strictly sequential, which is the only locking needed.
type Workspace struct {
	Root string
}

// Reset brings the workspace to the empty state.
func (w Workspace) Reset() error {
	return EnsureCleanDir(w.Root)
}

// Remove tears the workspace down.
func (w Workspace) Remove() error {
	return RemoveDir(w.Root)
}
