package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tranfastic/internal/clipboard"
	"tranfastic/internal/config"
	"tranfastic/internal/focus"
	"tranfastic/internal/history"
	"tranfastic/internal/hotkey"
	"tranfastic/internal/i18n"
	"tranfastic/internal/logging"
	"tranfastic/internal/popup"
	"tranfastic/internal/session"
	"tranfastic/internal/translate"
	"tranfastic/internal/tray"
	"tranfastic/internal/worker"
)

// События цикла. Только loop меняет сессию, окно и буфер обмена.
type (
	triggerEvent struct {
		source string
		target focus.Handle
	}
	submitEvent struct {
		id   uint64
		text string
	}
	cancelEvent    struct{ id uint64 }
	pasteBackEvent struct{ id uint64 }
	configEvent    struct{ change config.Change }
	settingsEvent  struct{}
	historyEvent   struct{}
	quitEvent      struct{}

	// callEvent выполняет функцию в горутине цикла.
	callEvent func()
)

func (a *App) loop() {
	defer close(a.loopDone)
	for {
		select {
		case <-a.ctx.Done():
			return
		case ev := <-a.events:
			a.handle(ev)
		}
	}
}

func (a *App) handle(ev any) {
	switch e := ev.(type) {
	case triggerEvent:
		a.onTrigger(e)
	case submitEvent:
		a.onSubmit(e)
	case cancelEvent:
		a.onCancel(e)
	case worker.Event:
		a.onWorker(e)
	case pasteBackEvent:
		a.onPasteBack(e)
	case configEvent:
		a.onConfigChange(e.change)
	case settingsEvent:
		a.openSettings()
	case historyEvent:
		if a.history != nil {
			if err := a.history.Open(); err != nil {
				logrus.WithError(err).Warn("Не удалось открыть папку истории")
			}
		}
	case quitEvent:
		logrus.Info("Выход по запросу из трея")
		a.cancel()
		a.tray.Quit()
	case callEvent:
		e()
	default:
		logrus.WithField("event", fmt.Sprintf("%T", ev)).Warn("Неизвестное событие")
	}
}

// live возвращает текущую сессию, если id совпадает и она активна.
func (a *App) live(id uint64) *session.Session {
	if a.current == nil || a.current.ID != id || !a.current.Active() {
		return nil
	}
	return a.current
}

func (a *App) onTrigger(e triggerEvent) {
	target := e.target
	if a.current != nil && a.current.Active() {
		// Повторный вызов при открытом окне: фокус был у нашего окна,
		// целью остаётся окно предыдущей сессии
		if target.Title == popup.WindowTitle {
			target = a.current.Focus
		}
		a.teardown("superseded")
	}

	a.nextID++
	s := session.New(a.nextID, target, a.config.SourceLanguage(), a.config.TargetLanguage())
	if err := s.Show(); err != nil {
		logrus.WithError(err).Error("Не удалось открыть сессию")
		return
	}
	a.current = s
	a.visibleID.Store(s.ID)

	a.view.Show(popup.ShowOptions{
		Header:   a.header(),
		Size:     a.config.PopupSize(),
		Position: a.config.PopupPosition(),
	})
	a.tray.SetState(tray.StateIdle)

	logrus.WithFields(logrus.Fields{
		"session": s.ID,
		"source":  e.source,
		"target":  target.Title,
	}).Info("Окно перевода открыто")
}

// teardown отменяет активную сессию: воркер, таймер вставки, отложенное
// восстановление буфера и окно.
func (a *App) teardown(reason string) {
	s := a.current
	if s == nil {
		return
	}
	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}
	a.stopPasteTimer()
	a.arbiter.Cancel()
	if err := s.Cancel(); err != nil {
		logrus.WithError(err).WithField("session", s.ID).Debug("Сессия уже завершена")
	}
	a.visibleID.Store(0)
	a.view.Hide()
	a.current = nil
	logrus.WithFields(logrus.Fields{"session": s.ID, "reason": reason}).Info("Сессия отменена")
}

func (a *App) onSubmit(e submitEvent) {
	s := a.live(e.id)
	if s == nil {
		logrus.WithField("session", e.id).Debug("Ввод для неактивной сессии отброшен")
		return
	}
	started, err := s.Submit(e.text)
	if err != nil {
		logrus.WithError(err).WithField("session", s.ID).Debug("Ввод проигнорирован")
		return
	}
	if !started {
		return
	}

	log := logrus.WithFields(logrus.Fields{"session": s.ID, "text": logging.Preview(s.Input())})
	log.Info("Перевод запущен")

	a.view.SetStatus(session.StatusTranslating, i18n.T("status_translating"))
	a.tray.SetState(tray.StateBusy)
	a.task = a.pool.Start(s.ID, translate.Request{
		Text:       s.Input(),
		SourceLang: s.SourceLang,
		TargetLang: s.TargetLang,
	})
}

func (a *App) onCancel(e cancelEvent) {
	s := a.live(e.id)
	if s == nil {
		return
	}
	if s.State() == session.PastingBack {
		return
	}
	a.teardown("cancelled")
	a.tray.SetState(tray.StateIdle)
}

func (a *App) onWorker(e worker.Event) {
	s := a.live(e.SessionID)
	if s == nil || s.State() != session.Translating {
		logrus.WithField("session", e.SessionID).Debug("Результат устаревшей сессии отброшен")
		return
	}
	a.task = nil
	a.tray.SetState(tray.StateIdle)
	log := logrus.WithField("session", s.ID)

	if !e.OK() {
		if !errors.Is(e.Err, context.Canceled) {
			a.setConnected(false)
		}
		if err := s.Fail(e.Err.Error()); err != nil {
			log.WithError(err).Error("Недопустимый переход")
			return
		}
		a.view.SetStatus(session.StatusFailed, i18n.T("status_failed"))
		return
	}

	a.setConnected(true)
	if err := s.Complete(e.Result.Text, e.Result.DetectedLang); err != nil {
		log.WithError(err).Error("Недопустимый переход")
		return
	}
	a.view.SetStatus(session.StatusDone, i18n.T("status_done"))

	if a.config.SaveHistory() && a.history != nil {
		src := s.SourceLang
		if src == translate.Auto && s.DetectedLang() != "" {
			src = s.DetectedLang()
		}
		a.history.Record(history.Entry{
			Time:       time.Now(),
			SourceLang: src,
			TargetLang: s.TargetLang,
			Text:       s.Input(),
			Translated: s.Translated(),
		})
	}

	// Пауза со статусом "готово" не блокирует цикл
	id := s.ID
	a.stopPasteTimer()
	a.pasteTimer = time.AfterFunc(a.pasteBackDelay, func() {
		a.Post(pasteBackEvent{id: id})
	})
}

func (a *App) onPasteBack(e pasteBackEvent) {
	s := a.live(e.id)
	if s == nil || s.State() != session.Completed {
		return
	}
	a.pasteTimer = nil
	if err := s.BeginPasteBack(); err != nil {
		logrus.WithError(err).WithField("session", s.ID).Error("Недопустимый переход")
		return
	}

	a.visibleID.Store(0)
	a.view.Hide()

	var restoreAfter time.Duration
	if a.config.RestoreClipboard() {
		restoreAfter = a.config.RestoreDelay()
	}
	target := s.Focus
	err := a.arbiter.Paste(s.Translated(), clipboard.PasteOptions{
		RestoreAfter: restoreAfter,
		BeforePaste:  func() error { return a.focus.Restore(target) },
	})

	log := logrus.WithField("session", s.ID)
	a.reportPasteError(log, err)

	if cerr := s.Close(); cerr != nil {
		log.WithError(cerr).Error("Недопустимый переход")
	}
	a.current = nil
}

// reportPasteError классифицирует ошибку вставки. Ни одна из них не фатальна.
func (a *App) reportPasteError(log *logrus.Entry, err error) {
	if err == nil {
		log.Info("Перевод вставлен")
		a.tray.SetState(tray.StateIdle)
		return
	}

	var (
		restoreErr *focus.RestoreError
		pasteErr   *clipboard.PasteError
		accessErr  *clipboard.AccessError
	)
	switch {
	case errors.As(err, &restoreErr), errors.As(err, &pasteErr):
		// Текст остался в буфере обмена
		log.WithError(err).Warn("Автоматическая вставка не удалась")
		a.notifier.PasteManually()
	case errors.As(err, &accessErr):
		log.WithError(err).Error("Буфер обмена недоступен")
		a.notifier.Error(i18n.T("notify_clipboard"))
	default:
		log.WithError(err).Error("Ошибка вставки")
		a.notifier.Error(err.Error())
	}
	a.tray.SetState(tray.StateError)
}

func (a *App) stopPasteTimer() {
	if a.pasteTimer != nil {
		a.pasteTimer.Stop()
		a.pasteTimer = nil
	}
}

func (a *App) header() popup.Header {
	src, tgt := a.config.SourceLanguage(), a.config.TargetLanguage()
	if a.current != nil {
		src, tgt = a.current.SourceLang, a.current.TargetLang
	}
	return popup.Header{Connected: a.connected, SourceLang: src, TargetLang: tgt}
}

func (a *App) setConnected(ok bool) {
	if a.connected == ok {
		return
	}
	a.connected = ok
	if a.current != nil && a.current.Active() {
		a.view.SetHeader(a.header())
	}
}

// onConfigChange применяет изменение настроек к работающим сервисам.
func (a *App) onConfigChange(ch config.Change) {
	log := logrus.WithField("key", ch.Key)
	log.Debug("Настройка изменена")

	switch ch.Key {
	case config.KeyHotkey:
		hk, ok := ch.Value.(config.HotkeyConfig)
		if !ok {
			return
		}
		if _, err := a.hotkey.Rebind(hk); err != nil {
			log.WithError(err).Error("Ошибка регистрации горячей клавиши")
			msg := fmt.Sprintf(i18n.T("notify_hotkey"), hk.String())
			if errors.Is(err, hotkey.ErrInvalidBinding) {
				msg += ": " + err.Error()
			}
			a.notifier.Error(msg)
			return
		}
		a.notifier.Info(fmt.Sprintf(i18n.T("notify_hotkey_changed"), hk.String()))

	case config.KeyPopupSize:
		if size, ok := ch.Value.(config.PopupSize); ok {
			a.view.SetSize(size)
		}

	case config.KeyPopupPosition:
		if p, ok := ch.Value.(config.PopupPosition); ok {
			a.view.SetPosition(p)
		}

	case config.KeySourceLanguage, config.KeyTargetLanguage:
		// Действует со следующей сессии; заголовок обновляется сразу
		if a.current != nil && a.current.Active() && a.current.State() == session.Shown {
			if ch.Key == config.KeySourceLanguage {
				a.current.SourceLang = a.config.SourceLanguage()
			} else {
				a.current.TargetLang = a.config.TargetLanguage()
			}
			a.view.SetHeader(a.header())
		}

	case config.KeyUILanguage:
		if lang, ok := ch.Value.(string); ok {
			i18n.SetLanguage(i18n.Language(lang))
			a.tray.RefreshUI()
		}

	case config.KeyNotifications:
		if enabled, ok := ch.Value.(bool); ok {
			a.notifier.SetEnabled(enabled)
			a.tray.SetNotifications(enabled)
		}

	case config.KeyProvider, config.KeyProviderURL, config.KeyProviderModel:
		a.pool.SetTranslator(a.buildTranslator())
		go a.checkConnection()

	case config.KeyStartOnBoot:
		enabled, ok := ch.Value.(bool)
		if !ok || a.autostart == nil {
			return
		}
		go func() {
			if err := a.autostart(enabled); err != nil {
				logrus.WithError(err).Error("Ошибка настройки автозапуска")
				a.notifier.Error(err.Error())
			}
		}()
	}
}
