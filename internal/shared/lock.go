package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".songsaver.lock"

// LibraryLock holds an exclusive lock on an output directory while a batch writes into it.
type LibraryLock struct {
	lock *flock.Flock
}

// LockLibrary takes a non-blocking lock on dir, creating it if needed.
//
// It fails with [ErrLibraryLocked] when another process already holds the lock.
func LockLibrary(dir string) (*LibraryLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock library: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLibraryLocked, dir)
	}
	return &LibraryLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *LibraryLock) Path() string { return l.lock.Path() }

// Unlock releases the lock. It is safe to call more than once.
func (l *LibraryLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
