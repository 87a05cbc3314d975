//go:build !linux && !windows && !darwin

package startup

import "errors"

var errUnsupported = errors.New("autostart is not supported on this platform")

func enable(string) error     { return errUnsupported }
func disable() error          { return nil }
func enabled() (bool, error)  { return false, nil }
