package shared

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLockLibrary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "library")

	first, err := LockLibrary(dir)
	if err != nil {
		t.Fatalf("failed to take first lock: %v", err)
	}

	if first.Path() != filepath.Join(dir, lockFileName) {
		t.Errorf("unexpected lock path %s", first.Path())
	}

	if _, err := LockLibrary(dir); !errors.Is(err, ErrLibraryLocked) {
		t.Errorf("expected ErrLibraryLocked for second lock, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("failed to unlock: %v", err)
	}

	again, err := LockLibrary(dir)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	defer again.Unlock()

	var nilLock *LibraryLock
	if err := nilLock.Unlock(); err != nil {
		t.Errorf("nil unlock should be a no-op, got %v", err)
	}
}
