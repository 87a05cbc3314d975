package clipboard

import (
	"errors"
	"sync"

	sysclip "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

type systemBackend struct{}

// NewSystemBackend возвращает системный буфер обмена.
// На Linux нужен X11 (libx11-dev при сборке).
func NewSystemBackend() (Backend, error) {
	initOnce.Do(func() {
		initErr = sysclip.Init()
	})
	if initErr != nil {
		return nil, &AccessError{Op: "init", Err: initErr}
	}
	return systemBackend{}, nil
}

func (systemBackend) ReadText() (string, error) {
	// Пустой буфер и нетекстовое содержимое неотличимы: оба дают nil
	return string(sysclip.Read(sysclip.FmtText)), nil
}

func (systemBackend) WriteText(s string) error {
	if sysclip.Write(sysclip.FmtText, []byte(s)) == nil {
		return errors.New("clipboard write rejected")
	}
	return nil
}
