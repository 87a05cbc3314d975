package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Редакторы пишут файл в несколько приёмов, ждём пока запись утихнет.
const watchDebounce = 150 * time.Millisecond

// Watch следит за файлом конфигурации и перечитывает его при внешнем
// изменении. Для изменившихся ключей вызываются обработчики OnChange.
// Останавливается при отмене ctx.
func (c *Config) Watch(ctx context.Context) error {
	if c.configPath == "" {
		return nil
	}

	dir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Следим за каталогом: редакторы часто заменяют файл через rename
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go c.watchLoop(ctx, w)
	return nil
}

func (c *Config) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()

	target := filepath.Clean(c.configPath)
	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}
		case <-reload:
			if _, err := c.reload(); err != nil {
				logrus.WithError(err).Warn("Не удалось перечитать конфигурацию")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("Ошибка наблюдения за конфигурацией")
		}
	}
}

// reload перечитывает файл и оповещает об изменившихся ключах.
// Собственные сохранения ничего не меняют и поэтому не порождают событий.
// Недопустимая комбинация не применяется: остаётся прежняя, а ошибка
// передаётся обработчикам OnInvalid.
func (c *Config) reload() ([]Change, error) {
	data, hotkeyErr, err := c.readFile()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	c.mu.Lock()
	if hotkeyErr != nil {
		data.Hotkey = c.data.Hotkey
	}
	changes := diff(c.data, *data)
	c.data = *data
	c.loadErr = hotkeyErr
	invalid := append([]func(error){}, c.invalid...)
	c.mu.Unlock()

	if hotkeyErr != nil {
		logrus.WithError(hotkeyErr).Warn("Недопустимая горячая клавиша в файле, оставлена прежняя")
		for _, fn := range invalid {
			fn(hotkeyErr)
		}
	}
	if len(changes) > 0 {
		logrus.WithField("changes", len(changes)).Info("Конфигурация изменена извне")
	}
	c.notify(changes...)
	return changes, nil
}

func diff(old, cur configData) []Change {
	var changes []Change
	if !old.Hotkey.Equal(cur.Hotkey) {
		changes = append(changes, Change{Key: KeyHotkey, Value: cur.Hotkey})
	}
	if old.SourceLanguage != cur.SourceLanguage {
		changes = append(changes, Change{Key: KeySourceLanguage, Value: cur.SourceLanguage})
	}
	if old.TargetLanguage != cur.TargetLanguage {
		changes = append(changes, Change{Key: KeyTargetLanguage, Value: cur.TargetLanguage})
	}
	if old.RestoreClipboard != cur.RestoreClipboard {
		changes = append(changes, Change{Key: KeyRestoreClipboard, Value: cur.RestoreClipboard})
	}
	if old.RestoreDelayMs != cur.RestoreDelayMs {
		changes = append(changes, Change{Key: KeyRestoreDelay, Value: time.Duration(cur.RestoreDelayMs) * time.Millisecond})
	}
	if old.PopupPosition != cur.PopupPosition {
		changes = append(changes, Change{Key: KeyPopupPosition, Value: cur.PopupPosition})
	}
	if old.PopupSize != cur.PopupSize {
		changes = append(changes, Change{Key: KeyPopupSize, Value: cur.PopupSize})
	}
	if old.SaveHistory != cur.SaveHistory {
		changes = append(changes, Change{Key: KeySaveHistory, Value: cur.SaveHistory})
	}
	if old.Notifications != cur.Notifications {
		changes = append(changes, Change{Key: KeyNotifications, Value: cur.Notifications})
	}
	if old.UILanguage != cur.UILanguage {
		changes = append(changes, Change{Key: KeyUILanguage, Value: cur.UILanguage})
	}
	if old.Provider != cur.Provider {
		changes = append(changes, Change{Key: KeyProvider, Value: cur.Provider})
	}
	if old.ProviderURL != cur.ProviderURL {
		changes = append(changes, Change{Key: KeyProviderURL, Value: cur.ProviderURL})
	}
	if old.ProviderModel != cur.ProviderModel {
		changes = append(changes, Change{Key: KeyProviderModel, Value: cur.ProviderModel})
	}
	if old.StartOnBoot != cur.StartOnBoot {
		changes = append(changes, Change{Key: KeyStartOnBoot, Value: cur.StartOnBoot})
	}
	return changes
}
