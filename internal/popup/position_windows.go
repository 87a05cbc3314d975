//go:build windows

package popup

import (
	"image"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW         = user32.NewProc("FindWindowW")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

const (
	swpNoSize     = 0x0001
	swpShowWindow = 0x0040
)

// hwndTopmost is HWND_TOPMOST, (HWND)-1.
var hwndTopmost = ^uintptr(0)

// positionWindow moves the window to pt, keeps it on top and brings it to
// the foreground.
func positionWindow(windowTitle string, pt image.Point) {
	title, err := windows.UTF16PtrFromString(windowTitle)
	if err != nil {
		return
	}

	// The window may not exist yet right after creation
	var hwnd uintptr
	for i := 0; i < 10 && hwnd == 0; i++ {
		hwnd, _, _ = procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
		if hwnd == 0 {
			time.Sleep(20 * time.Millisecond)
		}
	}
	if hwnd == 0 {
		logrus.Debug("Popup window not found for positioning")
		return
	}

	procSetWindowPos.Call(hwnd, hwndTopmost,
		uintptr(int32(pt.X)), uintptr(int32(pt.Y)), 0, 0,
		swpNoSize|swpShowWindow)
	procSetForegroundWindow.Call(hwnd)
}
