// Package worker runs translations off the dispatch goroutine.
//
// Each task runs once and reports exactly one Event, unless it was
// cancelled first. Workers never touch UI state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tranfastic/internal/translate"
)

// ErrPanic wraps a panic recovered from a translator.
var ErrPanic = errors.New("translator panicked")

// Event is the terminal outcome of a task.
type Event struct {
	SessionID uint64
	Request   translate.Request
	Result    translate.Result
	Err       error
}

// OK reports whether the translation succeeded.
func (e Event) OK() bool { return e.Err == nil }

// Pool starts translation tasks and delivers their events through emit.
// emit must not block; it is called while the task holds its lock so that
// Cancel and delivery never interleave.
type Pool struct {
	mu         sync.RWMutex
	translator translate.Translator
	emit       func(Event)
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewPool creates a pool. timeout <= 0 selects translate.DefaultTimeout.
func NewPool(tr translate.Translator, emit func(Event), timeout time.Duration) *Pool {
	if timeout <= 0 {
		timeout = translate.DefaultTimeout
	}
	return &Pool{translator: tr, emit: emit, timeout: timeout}
}

// SetTranslator swaps the translator used by tasks started afterwards.
func (p *Pool) SetTranslator(tr translate.Translator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.translator = tr
}

// Translator returns the current translator.
func (p *Pool) Translator() translate.Translator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.translator
}

// Task is a running translation.
type Task struct {
	SessionID uint64

	mu        sync.Mutex
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Cancel stops the task. No event is delivered after Cancel returns.
// Safe to call more than once.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.cancel()
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done is closed when the task goroutine exits.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Start launches a translation for the session.
func (p *Pool) Start(sessionID uint64, req translate.Request) *Task {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	t := &Task{SessionID: sessionID, cancel: cancel, done: make(chan struct{})}
	tr := p.Translator()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(t.done)
		defer cancel()

		log := logrus.WithField("session", sessionID)
		start := time.Now()
		res, err := run(ctx, tr, req)

		t.mu.Lock()
		defer t.mu.Unlock()
		if t.cancelled {
			log.Debug("translation cancelled, result dropped")
			return
		}
		if err != nil {
			log.WithError(err).Warn("translation failed")
		} else {
			log.WithField("took", time.Since(start).Round(time.Millisecond)).Info("translation done")
		}
		p.emit(Event{SessionID: sessionID, Request: req, Result: res, Err: err})
	}()
	return t
}

// Wait blocks until all started tasks exit.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func run(ctx context.Context, tr translate.Translator, req translate.Request) (res translate.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("translator recovered from panic")
			res, err = translate.Result{}, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if tr == nil {
		return translate.Result{}, errors.New("no translator configured")
	}
	return tr.Translate(ctx, req)
}
