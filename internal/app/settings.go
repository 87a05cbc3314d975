package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"tranfastic/internal/config"
	"tranfastic/internal/dialog"
	"tranfastic/internal/i18n"
	"tranfastic/internal/logging"
	"tranfastic/internal/translate"
)

// openSettings запускает диалог настроек, если он ещё не открыт.
func (a *App) openSettings() {
	if !a.settingsOpen.CompareAndSwap(false, true) {
		logrus.Debug("Настройки уже открыты")
		return
	}
	go func() {
		defer a.settingsOpen.Store(false)
		a.runSettings()
	}()
}

// runSettings показывает меню настроек, пока пользователь его не закроет.
// Изменения сохраняются через config и доходят до цикла как configEvent.
func (a *App) runSettings() {
	for {
		key, err := dialog.ChooseSetting(a.summary())
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				logrus.WithError(err).Warn("Ошибка диалога настроек")
			}
			return
		}
		if err := a.editSetting(key); err != nil {
			if errors.Is(err, dialog.ErrCancelled) {
				continue
			}
			logrus.WithError(err).WithField("key", key).Warn("Настройка не сохранена")
			dialog.ShowError(i18n.T("settings_title"), err.Error())
		}
	}
}

func (a *App) summary() dialog.Summary {
	c := a.config
	return dialog.Summary{
		Hotkey:           c.Hotkey().String(),
		SourceLanguage:   c.SourceLanguage(),
		TargetLanguage:   c.TargetLanguage(),
		Provider:         c.Provider(),
		ProviderModel:    c.ProviderModel(),
		RestoreClipboard: c.RestoreClipboard(),
		SaveHistory:      c.SaveHistory(),
		StartOnBoot:      c.StartOnBoot(),
		PopupSize:        c.PopupSize(),
		PopupPosition:    c.PopupPosition(),
		UILanguage:       string(i18n.GetLanguage()),
	}
}

func (a *App) editSetting(key string) error {
	c := a.config
	switch key {
	case config.KeyHotkey:
		hk, err := dialog.SelectHotkey(c.Hotkey())
		if err != nil {
			return err
		}
		if hk.Equal(c.Hotkey()) {
			return nil
		}
		return c.SetHotkey(hk)

	case config.KeySourceLanguage:
		lang, err := dialog.SelectSourceLanguage(c.SourceLanguage())
		if err != nil {
			return err
		}
		return c.SetSourceLanguage(lang)

	case config.KeyTargetLanguage:
		lang, err := dialog.SelectTargetLanguage(c.TargetLanguage())
		if err != nil {
			return err
		}
		return c.SetTargetLanguage(lang)

	case config.KeyProvider:
		p, err := dialog.SelectProvider(c.Provider())
		if err != nil {
			return err
		}
		return c.SetProvider(p)

	case dialog.SettingAPIKey:
		return a.editAPIKey()

	case config.KeyProviderModel:
		return a.editModel()

	case config.KeyRestoreClipboard:
		return c.SetRestoreClipboard(!c.RestoreClipboard())

	case config.KeySaveHistory:
		return c.SetSaveHistory(!c.SaveHistory())

	case config.KeyStartOnBoot:
		return c.SetStartOnBoot(!c.StartOnBoot())

	case config.KeyPopupSize:
		sizes := config.AvailablePopupSizes()
		values := make([]string, len(sizes))
		for i, s := range sizes {
			values[i] = string(s)
		}
		v, err := dialog.SelectValue(values, string(c.PopupSize()))
		if err != nil {
			return err
		}
		return c.SetPopupSize(config.PopupSize(v))

	case config.KeyPopupPosition:
		positions := config.AvailablePopupPositions()
		values := make([]string, len(positions))
		for i, p := range positions {
			values[i] = string(p)
		}
		v, err := dialog.SelectValue(values, string(c.PopupPosition()))
		if err != nil {
			return err
		}
		return c.SetPopupPosition(config.PopupPosition(v))

	case config.KeyUILanguage:
		lang, err := dialog.SelectUILanguage(string(i18n.GetLanguage()))
		if err != nil {
			return err
		}
		return c.SetUILanguage(lang)
	}

	logrus.WithField("key", key).Warn("Неизвестный пункт настроек")
	return nil
}

// editAPIKey сохраняет ключ в хранилище ОС. Пустой ввод удаляет ключ.
func (a *App) editAPIKey() error {
	if a.keys == nil {
		return errors.New("key store unavailable")
	}
	provider := a.config.Provider()
	key, err := dialog.EnterAPIKey(provider)
	if err != nil {
		return err
	}
	if key != "" {
		logging.AddSecret(key)
	}
	if err := a.keys.Set(provider, key); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"provider": provider, "cleared": key == ""}).Info("Ключ API обновлён")
	// Переводчик пересоздаётся с новым ключом
	a.Post(configEvent{change: config.Change{Key: config.KeyProvider, Value: provider}})
	dialog.ShowInfo(i18n.T("settings_title"), i18n.T("dialog_saved"))
	return nil
}

// editModel предлагает модели, установленные в локальном сервисе.
func (a *App) editModel() error {
	o, ok := a.pool.Translator().(*translate.Ollama)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()

	models, err := o.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return errors.New(i18n.T("dialog_no_models"))
	}
	model, err := dialog.SelectValue(models, o.Model())
	if err != nil {
		return err
	}
	return a.config.SetProviderModel(model)
}
