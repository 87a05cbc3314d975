//go:build linux

package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const desktopFile = appName + ".desktop"

// autostartDir is $XDG_CONFIG_HOME/autostart.
func autostartDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "autostart"), nil
}

func desktopEntry(exe string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", displayName)
	fmt.Fprintf(&b, "Comment=%s\n", description)
	fmt.Fprintf(&b, "Exec=%q\n", exe)
	b.WriteString("Terminal=false\n")
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return b.String()
}

func enable(exe string) error {
	dir, err := autostartDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, desktopFile), []byte(desktopEntry(exe)), 0644)
}

func disable() error {
	dir, err := autostartDir()
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, desktopFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func enabled() (bool, error) {
	dir, err := autostartDir()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(dir, desktopFile))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
