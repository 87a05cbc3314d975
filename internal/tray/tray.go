// Package tray предоставляет системный трей с меню.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"tranfastic/embedded"
	"tranfastic/internal/i18n"
)

// State представляет состояние приложения для отображения в трее.
type State int

const (
	StateIdle State = iota
	StateBusy
	StateError
)

// Callbacks содержит обработчики событий меню. Вызываются из горутины
// меню и не должны блокироваться.
type Callbacks struct {
	OnTranslate           func()
	OnSettings            func()
	OnHistory             func()
	OnNotificationsToggle func() bool
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	mu           sync.Mutex
	callbacks    Callbacks
	state        State
	notifyOn     *systray.MenuItem
	status       *systray.MenuItem
	translateBtn *systray.MenuItem
	settingsBtn  *systray.MenuItem
	historyBtn   *systray.MenuItem
	quitBtn      *systray.MenuItem
	notifyInit   bool
}

// New создаёт новый Tray.
func New(callbacks Callbacks, notificationsOn bool) *Tray {
	return &Tray{
		callbacks:  callbacks,
		notifyInit: notificationsOn,
	}
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(embedded.IconIdle)
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	t.mu.Lock()
	defer t.mu.Unlock()

	// Статус
	t.status = systray.AddMenuItem(i18n.T("tray_ready"), "")
	t.status.Disable()

	systray.AddSeparator()

	t.translateBtn = systray.AddMenuItem(i18n.T("tray_translate"), i18n.T("tray_translate_hint"))
	t.historyBtn = systray.AddMenuItem(i18n.T("tray_history"), i18n.T("tray_history_hint"))

	systray.AddSeparator()

	// Уведомления
	t.notifyOn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.notifyInit)

	// Настройки
	t.settingsBtn = systray.AddMenuItem(i18n.T("tray_settings"), i18n.T("tray_settings_hint"))

	systray.AddSeparator()

	// Выход
	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	// Обработка событий меню
	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.translateBtn.ClickedCh:
			if t.callbacks.OnTranslate != nil {
				t.callbacks.OnTranslate()
			}

		case <-t.historyBtn.ClickedCh:
			if t.callbacks.OnHistory != nil {
				t.callbacks.OnHistory()
			}

		// Уведомления
		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				t.SetNotifications(t.callbacks.OnNotificationsToggle())
			}

		// Настройки
		case <-t.settingsBtn.ClickedCh:
			if t.callbacks.OnSettings != nil {
				t.callbacks.OnSettings()
			}

		// Выход. Сам трей закрывает приложение через Quit
		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
		}
	}
}

// SetState устанавливает состояние приложения и обновляет иконку.
func (t *Tray) SetState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.applyStateLocked()
}

func (t *Tray) applyStateLocked() {
	var (
		icon []byte
		text string
	)
	switch t.state {
	case StateBusy:
		icon, text = embedded.IconBusy, i18n.T("tray_translating")
	case StateError:
		icon, text = embedded.IconError, i18n.T("tray_error")
	default:
		icon, text = embedded.IconIdle, i18n.T("tray_ready")
	}

	systray.SetIcon(icon)
	systray.SetTooltip(i18n.T("app_name") + " - " + text)
	if t.status != nil {
		t.status.SetTitle(text)
	}
}

// SetNotifications синхронизирует галочку уведомлений.
func (t *Tray) SetNotifications(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notifyOn == nil {
		t.notifyInit = enabled
		return
	}
	if enabled {
		t.notifyOn.Check()
	} else {
		t.notifyOn.Uncheck()
	}
}

func (t *Tray) onExit() {
	// Cleanup при выходе
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}

// RefreshUI обновляет все тексты меню на текущем языке.
func (t *Tray) RefreshUI() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetTitle(i18n.T("app_name"))
	t.applyStateLocked()

	items := []struct {
		item        *systray.MenuItem
		title, hint string
	}{
		{t.translateBtn, "tray_translate", "tray_translate_hint"},
		{t.historyBtn, "tray_history", "tray_history_hint"},
		{t.notifyOn, "tray_notifications", "tray_notifications_hint"},
		{t.settingsBtn, "tray_settings", "tray_settings_hint"},
		{t.quitBtn, "tray_quit", "tray_quit_hint"},
	}
	for _, it := range items {
		if it.item == nil {
			continue
		}
		it.item.SetTitle(i18n.T(it.title))
		it.item.SetTooltip(i18n.T(it.hint))
	}
}
