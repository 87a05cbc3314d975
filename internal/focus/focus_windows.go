//go:build windows

package focus

import (
	"fmt"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsIconic                 = user32.NewProc("IsIconic")
	procShowWindow               = user32.NewProc("ShowWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procAttachThreadInput        = user32.NewProc("AttachThreadInput")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
)

const swRestore = 9

type windowsTracker struct{}

func newTracker() Tracker {
	return windowsTracker{}
}

func (windowsTracker) Capture() Handle {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return Handle{}
	}
	return Handle{ID: hwnd, Title: windowText(hwnd)}
}

func (windowsTracker) Restore(h Handle) error {
	if h.IsZero() {
		return &RestoreError{Handle: h, Err: ErrNoWindow}
	}
	if r, _, _ := procIsWindow.Call(h.ID); r == 0 {
		return &RestoreError{Handle: h, Err: ErrWindowGone}
	}
	if r, _, _ := procIsIconic.Call(h.ID); r != 0 {
		procShowWindow.Call(h.ID, swRestore)
	}

	// SetForegroundWindow разрешён только потоку, владеющему вводом
	fg, _, _ := procGetForegroundWindow.Call()
	current := windows.GetCurrentThreadId()
	if fg != 0 {
		fgThread, _, _ := procGetWindowThreadProcessId.Call(fg, 0)
		if fgThread != 0 && uint32(fgThread) != current {
			procAttachThreadInput.Call(uintptr(current), fgThread, 1)
			defer procAttachThreadInput.Call(uintptr(current), fgThread, 0)
		}
	}

	r, _, err := procSetForegroundWindow.Call(h.ID)
	if r == 0 {
		return &RestoreError{Handle: h, Err: fmt.Errorf("SetForegroundWindow: %w", err)}
	}
	logrus.WithField("window", h.Title).Debug("Фокус возвращён")
	return nil
}

func windowText(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}
