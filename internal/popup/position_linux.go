//go:build linux

package popup

import (
	"image"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// positionWindow moves the window to pt, keeps it on top and gives it
// input focus. Called after the window is created and visible.
func positionWindow(windowTitle string, pt image.Point) {
	// Give the window time to appear
	time.Sleep(100 * time.Millisecond)

	output, err := exec.Command("xdotool", "search", "--name", "^"+windowTitle+"$").Output()
	if err != nil {
		logrus.WithError(err).Debug("xdotool search failed")
		return
	}

	windowIDs := strings.Fields(string(output))
	if len(windowIDs) == 0 {
		return
	}
	windowID := windowIDs[len(windowIDs)-1]

	exec.Command("xdotool", "windowmove", windowID, strconv.Itoa(pt.X), strconv.Itoa(pt.Y)).Run()

	// Try to set always-on-top using wmctrl
	if err := exec.Command("wmctrl", "-i", "-r", windowID, "-b", "add,above").Run(); err != nil {
		// wmctrl might not be installed, try xprop alternative
		exec.Command("xprop", "-id", windowID, "-f", "_NET_WM_STATE", "32a",
			"-set", "_NET_WM_STATE", "_NET_WM_STATE_ABOVE").Run()
	}

	exec.Command("xdotool", "windowactivate", windowID).Run()
}
