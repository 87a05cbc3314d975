// Package notify предоставляет системные уведомления.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"

	"tranfastic/internal/i18n"
)

const (
	appName    = "Tranfastic"
	maxPreview = 100
)

// Notifier отправляет системные уведомления.
type Notifier struct {
	mu      sync.Mutex
	enabled bool
	send    func(title, message string) error
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Enabled сообщает, включены ли уведомления.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// Started показывает уведомление о запуске с текущей горячей клавишей.
func (n *Notifier) Started(hotkey string) {
	n.notify(i18n.T("notify_started"), fmt.Sprintf(i18n.T("notify_started_hint"), hotkey))
}

// PasteManually сообщает, что перевод остался в буфере обмена.
func (n *Notifier) PasteManually() {
	n.notify(i18n.T("notify_paste_manually"), i18n.T("notify_paste_hint"))
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify(i18n.T("notify_error"), msg)
}

// Info показывает информационное уведомление.
func (n *Notifier) Info(msg string) {
	n.notify("", truncate(msg))
}

func (n *Notifier) notify(title, message string) {
	n.mu.Lock()
	enabled, send := n.enabled, n.send
	n.mu.Unlock()
	if !enabled {
		return
	}

	full := appName
	if title != "" {
		full = appName + ": " + title
	}
	// Ошибки уведомлений не критичны
	if err := send(full, message); err != nil {
		logrus.WithError(err).Debug("Notification failed")
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxPreview {
		return string(r[:maxPreview]) + "..."
	}
	return s
}
