// Package clipboard вставляет перевод через буфер обмена и при
// необходимости возвращает прежнее содержимое буфера.
package clipboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tranfastic/internal/input"
)

// SettleDelay - пауза между возвратом фокуса и нажатием вставки.
const SettleDelay = 100 * time.Millisecond

// Backend читает и пишет текст в системный буфер обмена.
type Backend interface {
	ReadText() (string, error)
	WriteText(string) error
}

// AccessError - буфер обмена недоступен (занят другим процессом и т.п.).
type AccessError struct {
	Op  string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("clipboard %s: %v", e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// PasteError - не удалось отправить сочетание вставки.
// Текст при этом остаётся в буфере для ручной вставки.
type PasteError struct {
	Err error
}

func (e *PasteError) Error() string {
	return fmt.Sprintf("send paste keystroke: %v", e.Err)
}

func (e *PasteError) Unwrap() error { return e.Err }

// PasteOptions настраивает одну вставку.
type PasteOptions struct {
	// RestoreAfter > 0 включает восстановление прежнего содержимого
	// через указанное время после вставки.
	RestoreAfter time.Duration
	// BeforePaste вызывается после записи текста и до нажатия вставки,
	// обычно возвращает фокус целевому окну. Ошибка прерывает вставку.
	BeforePaste func() error
}

type snapshot struct {
	content    string
	capturedAt time.Time
	gen        uint64
}

// Arbiter владеет буфером обмена на время вставки.
// Одновременно живёт не более одного снимка; каждый восстанавливается
// не более одного раза, а отменённый не восстанавливается никогда.
type Arbiter struct {
	mu      sync.Mutex
	backend Backend
	paster  input.Paster
	gen     uint64
	pending *snapshot
	timer   *time.Timer

	settleDelay time.Duration
	sleep       func(time.Duration)
}

// NewArbiter создаёт арбитра поверх backend и paster.
func NewArbiter(backend Backend, paster input.Paster) *Arbiter {
	return &Arbiter{
		backend:     backend,
		paster:      paster,
		settleDelay: SettleDelay,
		sleep:       time.Sleep,
	}
}

// Paste пишет text в буфер и вставляет его в активное окно.
//
// Ранее запланированное восстановление отменяется: его снимок теряется.
// Ошибки: *AccessError при работе с буфером, ошибка BeforePaste как есть,
// *PasteError при отправке сочетания. В случае ошибки восстановление
// не планируется.
func (a *Arbiter) Paste(text string, opts PasteOptions) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelLocked()
	a.gen++
	gen := a.gen
	log := logrus.WithField("gen", gen)

	var snap *snapshot
	if opts.RestoreAfter > 0 {
		prev, err := a.backend.ReadText()
		if err != nil {
			return &AccessError{Op: "read", Err: err}
		}
		// Пустой буфер восстанавливать незачем
		if prev != "" {
			snap = &snapshot{content: prev, capturedAt: time.Now(), gen: gen}
		}
	}

	if err := a.backend.WriteText(text); err != nil {
		return &AccessError{Op: "write", Err: err}
	}

	if opts.BeforePaste != nil {
		if err := opts.BeforePaste(); err != nil {
			log.WithError(err).Warn("Вставка прервана, текст оставлен в буфере")
			return err
		}
	}

	a.sleep(a.settleDelay)

	if err := a.paster.Paste(); err != nil {
		return &PasteError{Err: err}
	}

	if snap != nil {
		a.pending = snap
		a.timer = time.AfterFunc(opts.RestoreAfter, func() { a.restore(gen) })
		log.WithField("after", opts.RestoreAfter).Debug("Запланировано восстановление буфера")
	}
	return nil
}

// restore возвращает снимок поколения gen, если его не заменили и не отменили.
func (a *Arbiter) restore(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil || a.pending.gen != gen {
		return
	}
	snap := a.pending
	a.pending = nil
	a.timer = nil

	if err := a.backend.WriteText(snap.content); err != nil {
		logrus.WithError(err).Warn("Не удалось восстановить буфер обмена")
		return
	}
	logrus.WithFields(logrus.Fields{
		"gen": gen,
		"age": time.Since(snap.capturedAt).Round(time.Millisecond),
	}).Debug("Буфер обмена восстановлен")
}

// Cancel отменяет запланированное восстановление. Снимок отбрасывается.
func (a *Arbiter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
}

func (a *Arbiter) cancelLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

// Pending возвращает true, если восстановление запланировано.
func (a *Arbiter) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Close отменяет восстановление при завершении приложения.
func (a *Arbiter) Close() error {
	a.Cancel()
	return nil
}
