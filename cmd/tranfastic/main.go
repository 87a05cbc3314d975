// Tranfastic - переводчик в системном трее.
//
// По горячей клавише (по умолчанию Shift+Alt+D) открывает окно ввода,
// переводит текст и вставляет результат в окно, которое было активно.
package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"

	"tranfastic/internal/app"
	"tranfastic/internal/config"
	"tranfastic/internal/hotkey"
	"tranfastic/internal/logging"
	"tranfastic/internal/singleinstance"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	closer, err := logging.Setup(config.Dir())
	if err != nil {
		logrus.WithError(err).Warn("Лог пишется только в stderr")
	}
	defer closer.Close()

	logrus.WithField("version", Version).Info("Tranfastic запускается")

	lock, err := singleinstance.TryLock(singleinstance.DefaultName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		logrus.Info("Tranfastic уже запущен")
		return
	}
	if err != nil {
		logrus.WithError(err).Warn("Проверка единственного экземпляра недоступна")
	} else {
		defer lock.Release()
	}

	// Запускаем в главном потоке (требование для macOS и некоторых GUI)
	hotkey.RunOnMainThread(run)
}

func run() {
	application, err := app.New()
	if err != nil {
		logrus.WithError(err).Error("Ошибка инициализации")
		os.Exit(1)
	}
	application.Run()
}
