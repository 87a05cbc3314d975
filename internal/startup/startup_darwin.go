//go:build darwin

package startup

import (
	"errors"

	"github.com/kardianos/service"
)

// agent satisfies service.Interface. The LaunchAgent starts the binary
// directly, so Start and Stop are never called in this process.
type agent struct{}

func (agent) Start(service.Service) error { return nil }
func (agent) Stop(service.Service) error  { return nil }

func newLaunchAgent(exe string) (service.Service, error) {
	return service.New(agent{}, &service.Config{
		Name:        appName,
		DisplayName: displayName,
		Description: description,
		Executable:  exe,
		Option: service.KeyValue{
			"UserService": true,
			"RunAtLoad":   true,
			"KeepAlive":   false,
		},
	})
}

func enable(exe string) error {
	s, err := newLaunchAgent(exe)
	if err != nil {
		return err
	}
	if ok, _ := installed(s); ok {
		return nil
	}
	return s.Install()
}

func disable() error {
	exe, err := executable()
	if err != nil {
		return err
	}
	s, err := newLaunchAgent(exe)
	if err != nil {
		return err
	}
	if ok, _ := installed(s); !ok {
		return nil
	}
	return s.Uninstall()
}

func enabled() (bool, error) {
	exe, err := executable()
	if err != nil {
		return false, err
	}
	s, err := newLaunchAgent(exe)
	if err != nil {
		return false, err
	}
	return installed(s)
}

func installed(s service.Service) (bool, error) {
	_, err := s.Status()
	if errors.Is(err, service.ErrNotInstalled) {
		return false, nil
	}
	// A loaded or stopped agent both mean the plist exists
	return err == nil, err
}
