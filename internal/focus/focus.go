// Package focus запоминает окно, активное до показа окна перевода,
// и возвращает ему фокус перед вставкой.
package focus

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowGone - окно было закрыто, пока пользователь вводил текст.
	ErrWindowGone = errors.New("window no longer exists")
	// ErrNoWindow - при захвате активного окна не было.
	ErrNoWindow = errors.New("no window captured")
)

// Handle - непрозрачная ссылка на чужое окно.
// Трекер никогда не закрывает и не изменяет это окно.
type Handle struct {
	ID    uintptr
	Title string
}

// IsZero возвращает true, если окно не было захвачено.
func (h Handle) IsZero() bool {
	return h.ID == 0
}

// RestoreError - не удалось вернуть фокус окну.
type RestoreError struct {
	Handle Handle
	Err    error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore focus to %q (%#x): %v", e.Handle.Title, e.Handle.ID, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// Tracker захватывает и восстанавливает фокус.
type Tracker interface {
	// Capture возвращает окно, которое сейчас в фокусе.
	Capture() Handle
	// Restore возвращает фокус окну. Ошибки имеют тип *RestoreError.
	Restore(Handle) error
}

// New создаёт платформо-специфичный Tracker.
func New() Tracker {
	return newTracker()
}
