//go:build !windows

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"tranfastic/internal/config"
)

// Lock holds an exclusive flock on a file in the config directory.
// The kernel drops the lock when the process exits.
type Lock struct {
	file *os.File
}

// TryLock takes a non-blocking exclusive lock on the file at name.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("lock path is required")
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", name, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("flock %q: %w", name, err)
	}
	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe on a nil receiver and
// idempotent.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}

// DefaultName returns the lock file path.
func DefaultName() string {
	return filepath.Join(config.Dir(), "tranfastic.lock")
}
