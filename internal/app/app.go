// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"tranfastic/internal/clipboard"
	"tranfastic/internal/config"
	"tranfastic/internal/focus"
	"tranfastic/internal/history"
	"tranfastic/internal/hotkey"
	"tranfastic/internal/i18n"
	"tranfastic/internal/input"
	"tranfastic/internal/logging"
	"tranfastic/internal/notify"
	"tranfastic/internal/popup"
	"tranfastic/internal/session"
	"tranfastic/internal/startup"
	"tranfastic/internal/translate"
	"tranfastic/internal/tray"
	"tranfastic/internal/worker"
)

const (
	// PasteBackDelay - пауза со статусом "готово" перед вставкой
	PasteBackDelay = 500 * time.Millisecond

	queueSize   = 64
	pingTimeout = 5 * time.Second
)

// hotkeyBinder - то, что нужно от hotkey.Handler.
type hotkeyBinder interface {
	SetCallback(fn func())
	Register(cfg config.HotkeyConfig) (*hotkey.Registration, error)
	Rebind(cfg config.HotkeyConfig) (*hotkey.Registration, error)
	Close() error
}

// pasteArbiter - то, что нужно от clipboard.Arbiter.
type pasteArbiter interface {
	Paste(text string, opts clipboard.PasteOptions) error
	Cancel()
	Close() error
}

// view - окно перевода.
type view interface {
	Show(opts popup.ShowOptions)
	Hide()
	SetStatus(status session.Status, text string)
	SetHeader(h popup.Header)
	SetSize(size config.PopupSize)
	SetPosition(p config.PopupPosition)
	OnSubmit(fn func(text string))
	OnCancel(fn func())
}

type notifier interface {
	SetEnabled(enabled bool)
	Started(hotkey string)
	PasteManually()
	Error(msg string)
	Info(msg string)
}

type historySink interface {
	Record(e history.Entry) bool
	Open() error
	Close()
}

type trayUI interface {
	Run(onReady func())
	SetState(state tray.State)
	SetNotifications(enabled bool)
	RefreshUI()
	Quit()
}

// Deps - сервисы приложения. Nil-поля заполняются в New.
type Deps struct {
	Config     *config.Config
	Hotkey     hotkeyBinder
	Focus      focus.Tracker
	Arbiter    pasteArbiter
	View       view
	Notifier   notifier
	History    historySink
	Tray       trayUI
	Keys       translate.KeyStore
	Translator translate.Translator
	Autostart  func(enabled bool) error
}

// App представляет главное приложение.
type App struct {
	config    *config.Config
	hotkey    hotkeyBinder
	focus     focus.Tracker
	arbiter   pasteArbiter
	view      view
	notifier  notifier
	history   historySink
	tray      trayUI
	keys      translate.KeyStore
	autostart func(enabled bool) error
	pool      *worker.Pool

	events   chan any
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	started  atomic.Bool

	// Сессия видимого окна; читается из колбэков окна
	visibleID    atomic.Uint64
	settingsOpen atomic.Bool
	closeOnce    sync.Once

	// Состояние ниже принадлежит горутине loop
	nextID         uint64
	current        *session.Session
	task           *worker.Task
	pasteTimer     *time.Timer
	connected      bool
	pasteBackDelay time.Duration
}

// New создаёт приложение с системными сервисами.
func New() (*App, error) {
	cfg := config.New()

	// Инициализируем язык интерфейса из конфига
	if uiLang := cfg.UILanguage(); uiLang != "" {
		i18n.SetLanguage(i18n.Language(uiLang))
	}

	var paster input.Paster
	paster, err := input.New()
	if err != nil {
		// Без синтетической вставки перевод остаётся в буфере обмена
		logrus.WithError(err).Warn("Синтетическая вставка недоступна")
		paster = unavailablePaster{err: err}
	}

	var backend clipboard.Backend
	backend, err = clipboard.NewSystemBackend()
	if err != nil {
		logrus.WithError(err).Warn("Буфер обмена недоступен")
		backend = unavailableBackend{err: err}
	}

	return NewWithDeps(Deps{
		Config:    cfg,
		Hotkey:    hotkey.New(),
		Focus:     focus.New(),
		Arbiter:   clipboard.NewArbiter(backend, paster),
		View:      popup.New(popup.DefaultConfig()),
		Notifier:  notify.New(cfg.NotificationsEnabled()),
		History:   history.New(filepath.Join(config.Dir(), "history")),
		Keys:      translate.NewKeyring(),
		Autostart: startup.Apply,
	})
}

// NewWithDeps создаёт приложение из готовых сервисов.
func NewWithDeps(d Deps) (*App, error) {
	if d.Config == nil || d.Hotkey == nil || d.Focus == nil || d.Arbiter == nil || d.View == nil {
		return nil, errors.New("app: config, hotkey, focus, arbiter and view are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:         d.Config,
		hotkey:         d.Hotkey,
		focus:          d.Focus,
		arbiter:        d.Arbiter,
		view:           d.View,
		notifier:       d.Notifier,
		history:        d.History,
		keys:           d.Keys,
		autostart:      d.Autostart,
		events:         make(chan any, queueSize),
		ctx:            ctx,
		cancel:         cancel,
		loopDone:       make(chan struct{}),
		pasteBackDelay: PasteBackDelay,
	}
	if a.notifier == nil {
		a.notifier = notify.New(false)
	}
	if a.keys != nil {
		a.keys = redactingKeys{a.keys}
	}

	tr := d.Translator
	if tr == nil {
		tr = a.buildTranslator()
	}
	a.pool = worker.NewPool(tr, a.deliver, translate.DefaultTimeout)

	a.view.OnSubmit(func(text string) {
		a.Post(submitEvent{id: a.visibleID.Load(), text: text})
	})
	a.view.OnCancel(func() {
		a.Post(cancelEvent{id: a.visibleID.Load()})
	})
	a.hotkey.SetCallback(a.onHotkey)

	// Изменения настроек приходят из диалогов и из наблюдателя за файлом
	a.config.OnChange(func(ch config.Change) {
		a.Post(configEvent{change: ch})
	})
	a.config.OnInvalid(func(err error) {
		a.Post(callEvent(func() { a.reportInvalidConfig(err) }))
	})

	a.tray = d.Tray
	if a.tray == nil {
		a.tray = tray.New(tray.Callbacks{
			OnTranslate: func() { a.trigger("tray") },
			OnSettings:  func() { a.Post(settingsEvent{}) },
			OnHistory:   func() { a.Post(historyEvent{}) },
			OnNotificationsToggle: func() bool {
				enabled, err := a.config.ToggleNotifications()
				if err != nil {
					logrus.WithError(err).Warn("Не удалось сохранить настройку уведомлений")
				}
				return enabled
			},
			OnQuit: func() { a.Post(quitEvent{}) },
		}, a.config.NotificationsEnabled())
	}

	return a, nil
}

// Run запускает приложение. Блокируется до выхода из трея.
func (a *App) Run() {
	a.tray.Run(func() {
		// Регистрируем горячую клавишу после инициализации трея
		if err := a.Start(); err != nil {
			logrus.WithError(err).Error("Не удалось запустить цикл событий")
			a.tray.Quit()
		}
	})
	a.Close()
}

// Start запускает цикл событий, наблюдение за конфигом и горячую клавишу.
func (a *App) Start() error {
	if !a.started.CompareAndSwap(false, true) {
		return errors.New("app already started")
	}

	go a.loop()

	if err := a.config.Watch(a.ctx); err != nil {
		logrus.WithError(err).Warn("Наблюдение за файлом настроек недоступно")
	}

	if err := a.config.LoadError(); err != nil {
		a.reportInvalidConfig(err)
	}

	hk := a.config.Hotkey()
	if _, err := a.hotkey.Register(hk); err != nil {
		logrus.WithError(err).Error("Ошибка регистрации горячей клавиши")
		a.notifier.Error(fmt.Sprintf(i18n.T("notify_hotkey"), hk.String()))
	} else {
		a.notifier.Started(hk.String())
	}

	go a.checkConnection()
	return nil
}

// Post ставит событие в очередь, не блокируясь.
func (a *App) Post(ev any) bool {
	select {
	case a.events <- ev:
		return true
	default:
		logrus.WithField("event", fmt.Sprintf("%T", ev)).Warn("Очередь событий переполнена, событие отброшено")
		return false
	}
}

// deliver передаёт результат воркера в цикл. В отличие от Post событие
// не теряется при полной очереди: отправка ждёт до остановки приложения.
// emit вызывается под блокировкой задачи, поэтому ждём в отдельной горутине.
func (a *App) deliver(ev worker.Event) {
	go func() {
		select {
		case a.events <- ev:
		case <-a.ctx.Done():
		}
	}()
}

// Close освобождает ресурсы приложения. Повторные вызовы ничего не делают.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		if a.started.Load() {
			<-a.loopDone
		}
		a.shutdown()
	})
}

// shutdown выполняется после остановки цикла, поэтому владеет состоянием.
func (a *App) shutdown() {
	if a.current != nil && a.current.Active() {
		a.teardown("shutdown")
	}
	a.stopPasteTimer()
	if err := a.hotkey.Close(); err != nil {
		logrus.WithError(err).Warn("Ошибка снятия горячей клавиши")
	}
	if err := a.arbiter.Close(); err != nil {
		logrus.WithError(err).Warn("Ошибка закрытия буфера обмена")
	}
	a.pool.Wait()
	if a.history != nil {
		a.history.Close()
	}
	logrus.Info("Приложение остановлено")
}

// reportInvalidConfig сообщает об ошибке в файле настроек. Остальные
// настройки из файла при этом уже применены.
func (a *App) reportInvalidConfig(err error) {
	var hkErr *config.InvalidHotkeyError
	if !errors.As(err, &hkErr) {
		logrus.WithError(err).Warn("Ошибка в файле настроек")
		a.notifier.Error(err.Error())
		return
	}
	logrus.WithError(err).Warn("Недопустимая горячая клавиша в файле настроек")
	a.notifier.Error(fmt.Sprintf(i18n.T("notify_hotkey_invalid"), hkErr.Binding, a.config.Hotkey().String()))
}

func (a *App) onHotkey() {
	a.trigger("hotkey")
}

// trigger захватывает фокус до показа окна и передаёт запрос в цикл.
func (a *App) trigger(source string) {
	target := a.focus.Capture()
	a.Post(triggerEvent{source: source, target: target})
}

func (a *App) buildTranslator() translate.Translator {
	cfg := translate.Config{
		Provider: a.config.Provider(),
		URL:      a.config.ProviderURL(),
		Model:    a.config.ProviderModel(),
	}
	tr, err := translate.New(cfg, a.keys)
	if err != nil {
		logrus.WithError(err).WithField("provider", cfg.Provider).Warn("Сервис перевода недоступен, используется Google")
		return translate.NewGoogle("", translate.DefaultTimeout)
	}
	return tr
}

// checkConnection проверяет сервис перевода и сообщает результат в цикл.
func (a *App) checkConnection() {
	tr := a.pool.Translator()
	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()

	ok := tr.Ping(ctx)
	logrus.WithFields(logrus.Fields{"provider": tr.Name(), "connected": ok}).Info("Проверка сервиса перевода")
	a.Post(callEvent(func() { a.setConnected(ok) }))
}

type unavailablePaster struct{ err error }

func (p unavailablePaster) Paste() error { return p.err }

type unavailableBackend struct{ err error }

func (b unavailableBackend) ReadText() (string, error) { return "", b.err }
func (b unavailableBackend) WriteText(string) error    { return b.err }

// redactingKeys скрывает из логов каждый ключ, прочитанный из хранилища.
type redactingKeys struct {
	translate.KeyStore
}

func (k redactingKeys) Get(provider string) (string, error) {
	key, err := k.KeyStore.Get(provider)
	if key != "" {
		logging.AddSecret(key)
	}
	return key, err
}
