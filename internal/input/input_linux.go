//go:build linux

package input

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/micmonay/keybd_event"
	"github.com/sirupsen/logrus"
)

// uinput нужно время, чтобы система увидела новое устройство
const uinputWarmup = 2 * time.Second

// method - один способ нажать Ctrl+V.
type method struct {
	name  string
	paste func() error
}

type linuxPaster struct {
	methods []method
}

func newPaster() (Paster, error) {
	return &linuxPaster{methods: detectMethods(os.Getenv, exec.LookPath, newUinput)}, nil
}

// detectMethods выбирает способы вставки в порядке предпочтения:
// wtype (Wayland) или xdotool (X11), виртуальная клавиатура uinput,
// затем robotgo. uinput требует прав на /dev/uinput и есть не у всех.
func detectMethods(getenv func(string) string, lookPath func(string) (string, error), uinput func() (func() error, error)) []method {
	var methods []method
	if getenv("WAYLAND_DISPLAY") != "" {
		if _, err := lookPath("wtype"); err == nil {
			methods = append(methods, method{"wtype", func() error {
				return exec.Command("wtype", "-M", "ctrl", "v", "-m", "ctrl").Run()
			}})
		}
	} else if _, err := lookPath("xdotool"); err == nil {
		methods = append(methods, method{"xdotool", func() error {
			return exec.Command("xdotool", "key", "--clearmodifiers", "ctrl+v").Run()
		}})
	}

	if paste, err := uinput(); err != nil {
		logrus.WithError(err).Debug("Виртуальная клавиатура uinput недоступна")
	} else {
		methods = append(methods, method{"uinput", paste})
	}

	return append(methods, method{"robotgo", func() error {
		return robotgo.KeyTap("v", "ctrl")
	}})
}

// newUinput создаёт виртуальную клавиатуру без ожидания: до окончания
// прогрева вставка уходит следующему способу.
func newUinput() (func() error, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)

	readyAt := time.Now().Add(uinputWarmup)
	return func() error {
		if time.Now().Before(readyAt) {
			return errors.New("virtual keyboard is warming up")
		}
		return kb.Launching()
	}, nil
}

// Paste пробует способы по очереди до первого успешного.
func (p *linuxPaster) Paste() error {
	var errs []error
	for _, m := range p.methods {
		err := m.paste()
		if err == nil {
			return nil
		}
		logrus.WithError(err).WithField("method", m.name).Debug("Способ вставки не сработал")
		errs = append(errs, fmt.Errorf("%s: %w", m.name, err))
	}
	return errors.Join(errs...)
}
