//go:build !linux && !windows

package popup

import "image"

// positionWindow is a no-op where the window system offers no external
// placement; the window opens where the OS puts it.
func positionWindow(windowTitle string, pt image.Point) {}
