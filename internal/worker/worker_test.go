package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tranfastic/internal/translate"
)

type stubTranslator struct {
	fn func(ctx context.Context, req translate.Request) (translate.Result, error)
}

func (s stubTranslator) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	return s.fn(ctx, req)
}
func (s stubTranslator) Ping(context.Context) bool { return true }
func (s stubTranslator) Name() string              { return "stub" }

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestTaskEmitsExactlyOneEvent(t *testing.T) {
	var c collector
	p := NewPool(stubTranslator{fn: func(_ context.Context, req translate.Request) (translate.Result, error) {
		return translate.Result{Text: "merhaba", DetectedLang: "en"}, nil
	}}, c.emit, time.Second)

	req := translate.Request{Text: "hello", SourceLang: "auto", TargetLang: "tr"}
	task := p.Start(7, req)
	<-task.Done()

	events := c.all()
	require.Len(t, events, 1)
	assert.True(t, events[0].OK())
	assert.Equal(t, uint64(7), events[0].SessionID)
	assert.Equal(t, "merhaba", events[0].Result.Text)
	assert.Equal(t, req, events[0].Request)
}

func TestTaskReportsFailure(t *testing.T) {
	var c collector
	boom := errors.New("service down")
	p := NewPool(stubTranslator{fn: func(context.Context, translate.Request) (translate.Result, error) {
		return translate.Result{}, boom
	}}, c.emit, time.Second)

	<-p.Start(1, translate.Request{Text: "hello"}).Done()

	events := c.all()
	require.Len(t, events, 1)
	assert.False(t, events[0].OK())
	assert.ErrorIs(t, events[0].Err, boom)
}

func TestCancelledTaskEmitsNothing(t *testing.T) {
	var c collector
	started := make(chan struct{})
	release := make(chan struct{})
	p := NewPool(stubTranslator{fn: func(ctx context.Context, _ translate.Request) (translate.Result, error) {
		close(started)
		<-release // завершается успешно, несмотря на отмену
		return translate.Result{Text: "late"}, nil
	}}, c.emit, time.Second)

	task := p.Start(3, translate.Request{Text: "hello"})
	<-started
	task.Cancel()
	close(release)
	<-task.Done()

	assert.True(t, task.Cancelled())
	assert.Empty(t, c.all())
}

func TestCancelPropagatesToTranslator(t *testing.T) {
	var c collector
	gotCancel := make(chan error, 1)
	p := NewPool(stubTranslator{fn: func(ctx context.Context, _ translate.Request) (translate.Result, error) {
		<-ctx.Done()
		gotCancel <- ctx.Err()
		return translate.Result{}, ctx.Err()
	}}, c.emit, time.Second)

	task := p.Start(4, translate.Request{Text: "hello"})
	task.Cancel()
	task.Cancel()
	<-task.Done()

	assert.ErrorIs(t, <-gotCancel, context.Canceled)
	assert.Empty(t, c.all())
}

func TestTimeoutIsReportedAsFailure(t *testing.T) {
	var c collector
	p := NewPool(stubTranslator{fn: func(ctx context.Context, _ translate.Request) (translate.Result, error) {
		<-ctx.Done()
		return translate.Result{}, ctx.Err()
	}}, c.emit, 20*time.Millisecond)

	<-p.Start(5, translate.Request{Text: "hello"}).Done()

	events := c.all()
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, context.DeadlineExceeded)
}

func TestPanicIsRecovered(t *testing.T) {
	var c collector
	p := NewPool(stubTranslator{fn: func(context.Context, translate.Request) (translate.Result, error) {
		panic("nil map")
	}}, c.emit, time.Second)

	<-p.Start(6, translate.Request{Text: "hello"}).Done()
	p.Wait()

	events := c.all()
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, ErrPanic)
}

func TestSetTranslatorAffectsNewTasks(t *testing.T) {
	var c collector
	mk := func(text string) translate.Translator {
		return stubTranslator{fn: func(context.Context, translate.Request) (translate.Result, error) {
			return translate.Result{Text: text}, nil
		}}
	}
	p := NewPool(mk("first"), c.emit, time.Second)
	<-p.Start(1, translate.Request{}).Done()
	p.SetTranslator(mk("second"))
	<-p.Start(2, translate.Request{}).Done()

	events := c.all()
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Result.Text)
	assert.Equal(t, "second", events[1].Result.Text)
}
