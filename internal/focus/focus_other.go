//go:build !windows

package focus

import (
	"fmt"

	"github.com/go-vgo/robotgo"
	"github.com/sirupsen/logrus"
)

// pidTracker работает через PID процесса активного окна (X11 / macOS).
type pidTracker struct{}

func newTracker() Tracker {
	return pidTracker{}
}

func (pidTracker) Capture() Handle {
	pid := robotgo.GetPid()
	if pid <= 0 {
		return Handle{}
	}
	return Handle{ID: uintptr(pid), Title: robotgo.GetTitle()}
}

func (pidTracker) Restore(h Handle) error {
	if h.IsZero() {
		return &RestoreError{Handle: h, Err: ErrNoWindow}
	}

	exists, err := robotgo.PidExists(int(h.ID))
	if err != nil {
		return &RestoreError{Handle: h, Err: fmt.Errorf("check pid: %w", err)}
	}
	if !exists {
		return &RestoreError{Handle: h, Err: ErrWindowGone}
	}

	if err := robotgo.ActivePid(int(h.ID)); err != nil {
		return &RestoreError{Handle: h, Err: fmt.Errorf("activate pid %d: %w", h.ID, err)}
	}
	logrus.WithField("window", h.Title).Debug("Фокус возвращён")
	return nil
}
