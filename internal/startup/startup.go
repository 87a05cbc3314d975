// Package startup registers the application to run at user login.
package startup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	appName     = "tranfastic"
	displayName = "Tranfastic"
	description = "Instant translation from a global hotkey"
)

// Apply brings the login registration in line with enabled.
func Apply(enabled bool) error {
	exe, err := executable()
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{"enabled": enabled, "exe": exe})
	if enabled {
		if err := enable(exe); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}
		log.Info("Автозапуск включён")
		return nil
	}
	if err := disable(); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	log.Info("Автозапуск выключен")
	return nil
}

// Enabled reports whether the application is registered to run at login.
func Enabled() (bool, error) {
	return enabled()
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
