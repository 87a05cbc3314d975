package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tranfastic/internal/clipboard"
	"tranfastic/internal/config"
	"tranfastic/internal/focus"
	"tranfastic/internal/history"
	"tranfastic/internal/hotkey"
	"tranfastic/internal/logging"
	"tranfastic/internal/popup"
	"tranfastic/internal/session"
	"tranfastic/internal/translate"
	"tranfastic/internal/tray"
)

const waitFor = 2 * time.Second

type fakeHotkey struct {
	mu     sync.Mutex
	press  func()
	bound  []string
	failOn string
	closed int
}

func (h *fakeHotkey) SetCallback(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.press = fn
}

func (h *fakeHotkey) Register(cfg config.HotkeyConfig) (*hotkey.Registration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cfg.String() == h.failOn {
		return nil, &hotkey.RegistrationError{Binding: cfg.String(), Err: hotkey.ErrUnavailable}
	}
	h.bound = append(h.bound, cfg.String())
	return &hotkey.Registration{ID: uint64(len(h.bound)), Binding: cfg}, nil
}

func (h *fakeHotkey) Rebind(cfg config.HotkeyConfig) (*hotkey.Registration, error) {
	return h.Register(cfg)
}

func (h *fakeHotkey) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *fakeHotkey) fire() {
	h.mu.Lock()
	fn := h.press
	h.mu.Unlock()
	fn()
}

func (h *fakeHotkey) bindings() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.bound...)
}

type fakeFocus struct {
	mu       sync.Mutex
	active   focus.Handle
	gone     map[uintptr]bool
	restored []focus.Handle
}

func (f *fakeFocus) Capture() focus.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeFocus) Restore(h focus.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gone[h.ID] {
		return &focus.RestoreError{Handle: h, Err: focus.ErrWindowGone}
	}
	f.restored = append(f.restored, h)
	f.active = h
	return nil
}

func (f *fakeFocus) setActive(h focus.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = h
}

func (f *fakeFocus) close(h focus.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gone[h.ID] = true
}

func (f *fakeFocus) restoredTo() []focus.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]focus.Handle(nil), f.restored...)
}

type memClipboard struct {
	mu     sync.Mutex
	text   string
	writes int
	pasted []string
}

func (m *memClipboard) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *memClipboard) WriteText(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = s
	m.writes++
	return nil
}

// Paste имитирует Ctrl+V: в окно попадает текущее содержимое буфера.
func (m *memClipboard) Paste() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pasted = append(m.pasted, m.text)
	return nil
}

func (m *memClipboard) state() (text string, writes int, pasted []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.writes, append([]string(nil), m.pasted...)
}

type fakeView struct {
	mu       sync.Mutex
	submit   func(string)
	cancel   func()
	visible  bool
	shows    int
	statuses []session.Status
	header   popup.Header
	size     config.PopupSize
}

func (v *fakeView) Show(opts popup.ShowOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = true
	v.shows++
	v.header = opts.Header
	v.size = opts.Size
	v.statuses = nil
}

func (v *fakeView) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = false
}

func (v *fakeView) SetStatus(status session.Status, _ string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, status)
}

func (v *fakeView) SetHeader(h popup.Header) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.header = h
}

func (v *fakeView) SetSize(size config.PopupSize) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
}

func (v *fakeView) SetPosition(config.PopupPosition) {}
func (v *fakeView) OnSubmit(fn func(text string))    { v.submit = fn }
func (v *fakeView) OnCancel(fn func())               { v.cancel = fn }

func (v *fakeView) isVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func (v *fakeView) showCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shows
}

func (v *fakeView) lastStatus() (session.Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return session.StatusIdle, false
	}
	return v.statuses[len(v.statuses)-1], true
}

func (v *fakeView) currentSize() config.PopupSize {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

type fakeNotifier struct {
	mu       sync.Mutex
	manual   int
	errors   []string
	infos    []string
	started  []string
	disabled bool
}

func (n *fakeNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disabled = !enabled
}

func (n *fakeNotifier) Started(hk string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, hk)
}

func (n *fakeNotifier) PasteManually() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.manual++
}

func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *fakeNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *fakeNotifier) manualCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.manual
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (h *fakeHistory) Record(e history.Entry) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return true
}

func (h *fakeHistory) Open() error { return nil }
func (h *fakeHistory) Close()      {}

func (h *fakeHistory) recorded() []history.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]history.Entry(nil), h.entries...)
}

type fakeTray struct {
	mu    sync.Mutex
	state tray.State
	quit  int
}

func (t *fakeTray) Run(onReady func()) { onReady() }

func (t *fakeTray) SetState(s tray.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

func (t *fakeTray) SetNotifications(bool) {}
func (t *fakeTray) RefreshUI()            {}

func (t *fakeTray) Quit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quit++
}

func (t *fakeTray) quitCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quit
}

func (t *fakeTray) current() tray.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// dictTranslator переводит по словарю. block задерживает ответ до
// отмены контекста или закрытия канала.
type dictTranslator struct {
	mu    sync.Mutex
	words map[string]string
	fail  error
	block chan struct{}
	calls int
}

func (d *dictTranslator) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	d.mu.Lock()
	d.calls++
	block, fail := d.block, d.fail
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return translate.Result{}, ctx.Err()
		}
	}
	if fail != nil {
		return translate.Result{}, fail
	}
	detected := ""
	if req.SourceLang == translate.Auto {
		detected = "en"
	}
	return translate.Result{Text: d.words[req.Text], DetectedLang: detected}, nil
}

func (d *dictTranslator) Ping(context.Context) bool { return true }
func (d *dictTranslator) Name() string              { return "dict" }

func (d *dictTranslator) setFail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
}

type harness struct {
	app     *App
	cfg     *config.Config
	hotkey  *fakeHotkey
	focus   *fakeFocus
	clip    *memClipboard
	arbiter *clipboard.Arbiter
	view    *fakeView
	notify  *fakeNotifier
	history *fakeHistory
	tray    *fakeTray
	tr      *dictTranslator
}

var editor = focus.Handle{ID: 0x42, Title: "notes.txt - Editor"}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithFile(t, `{"target_language":"tr"}`)
}

// newHarnessWithFile запускает приложение поверх заданного config.json.
func newHarnessWithFile(t *testing.T, raw string) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))
	cfg := config.NewAt(path)

	clip := &memClipboard{text: "S0"}
	h := &harness{
		cfg:     cfg,
		hotkey:  &fakeHotkey{},
		focus:   &fakeFocus{active: editor, gone: map[uintptr]bool{}},
		clip:    clip,
		arbiter: clipboard.NewArbiter(clip, clip),
		view:    &fakeView{},
		notify:  &fakeNotifier{},
		history: &fakeHistory{},
		tray:    &fakeTray{},
		tr:      &dictTranslator{words: map[string]string{"hello": "merhaba", "world": "dünya"}},
	}

	a, err := NewWithDeps(Deps{
		Config:     cfg,
		Hotkey:     h.hotkey,
		Focus:      h.focus,
		Arbiter:    h.arbiter,
		View:       h.view,
		Notifier:   h.notify,
		History:    h.history,
		Tray:       h.tray,
		Translator: h.tr,
	})
	require.NoError(t, err)
	a.pasteBackDelay = 10 * time.Millisecond
	h.app = a

	require.NoError(t, a.Start())
	t.Cleanup(a.Close)
	return h
}

// open нажимает горячую клавишу и ждёт окно.
func (h *harness) open(t *testing.T) {
	t.Helper()
	before := h.view.showCount()
	h.hotkey.fire()
	require.Eventually(t, func() bool { return h.view.showCount() > before }, waitFor, 5*time.Millisecond)
}

// sync дожидается обработки всех событий, поставленных ранее.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	require.True(t, h.app.Post(callEvent(func() { close(done) })))
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("event loop is stuck")
	}
}

func TestTranslateAndPasteBack(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"shift+alt+d"}, h.hotkey.bindings())

	h.open(t)
	h.view.submit("hello")

	require.Eventually(t, func() bool {
		_, _, pasted := h.clip.state()
		return len(pasted) == 1
	}, waitFor, 5*time.Millisecond)

	text, _, pasted := h.clip.state()
	assert.Equal(t, []string{"merhaba"}, pasted)
	assert.Equal(t, "merhaba", text, "restore is off by default")
	assert.Equal(t, []focus.Handle{editor}, h.focus.restoredTo())
	assert.False(t, h.view.isVisible())
	assert.Equal(t, tray.StateIdle, h.tray.current())
	assert.Empty(t, h.history.recorded(), "history is off by default")
}

func TestPasteBackRestoresClipboard(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.cfg.SetRestoreClipboard(true))
	require.NoError(t, h.cfg.SetRestoreDelay(30*time.Millisecond))
	h.sync(t)

	h.open(t)
	h.view.submit("hello")

	require.Eventually(t, func() bool {
		text, _, pasted := h.clip.state()
		return len(pasted) == 1 && text == "S0"
	}, waitFor, 5*time.Millisecond)
}

func TestHistoryRecordsDetectedLanguage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.cfg.SetSaveHistory(true))
	h.sync(t)

	h.open(t)
	h.view.submit("world")

	require.Eventually(t, func() bool { return len(h.history.recorded()) == 1 }, waitFor, 5*time.Millisecond)
	e := h.history.recorded()[0]
	assert.Equal(t, "en", e.SourceLang)
	assert.Equal(t, "tr", e.TargetLang)
	assert.Equal(t, "world", e.Text)
	assert.Equal(t, "dünya", e.Translated)
}

func TestSecondTriggerSupersedesFirst(t *testing.T) {
	h := newHarness(t)
	h.tr.block = make(chan struct{})

	h.open(t)
	firstSubmit := h.view.submit
	firstSubmit("hello")
	h.sync(t)
	s1 := h.app.current
	require.NotNil(t, s1)

	// Повторное нажатие, пока фокус у окна перевода
	h.focus.setActive(focus.Handle{ID: 0x99, Title: popup.WindowTitle})
	h.open(t)
	h.sync(t)

	s2 := h.app.current
	require.NotNil(t, s2)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, session.Cancelled, s1.State())
	assert.Equal(t, session.Shown, s2.State())
	assert.Equal(t, editor, s2.Focus, "focus target carries over from the superseded session")

	// Отменённый перевод не трогает буфер обмена
	close(h.tr.block)
	time.Sleep(50 * time.Millisecond)
	h.sync(t)
	_, writes, pasted := h.clip.state()
	assert.Zero(t, writes)
	assert.Empty(t, pasted)
	assert.True(t, h.view.isVisible())
}

func TestCancelDuringTranslationLeavesClipboardAlone(t *testing.T) {
	h := newHarness(t)
	h.tr.block = make(chan struct{})

	h.open(t)
	h.view.submit("hello")
	h.sync(t)
	h.view.cancel()
	h.sync(t)

	assert.Nil(t, h.app.current)
	assert.False(t, h.view.isVisible())

	close(h.tr.block)
	time.Sleep(50 * time.Millisecond)
	h.sync(t)
	text, writes, _ := h.clip.state()
	assert.Equal(t, "S0", text)
	assert.Zero(t, writes)
}

func TestFailureKeepsInputForRetry(t *testing.T) {
	h := newHarness(t)
	h.tr.setFail(&translate.Error{Provider: "dict", Status: 503, Err: errors.New("unavailable")})

	h.open(t)
	h.view.submit("hello")

	require.Eventually(t, func() bool {
		st, ok := h.view.lastStatus()
		return ok && st == session.StatusFailed
	}, waitFor, 5*time.Millisecond)
	h.sync(t)

	s := h.app.current
	require.NotNil(t, s)
	assert.Equal(t, session.Shown, s.State())
	assert.Equal(t, "hello", s.Input())
	assert.True(t, h.view.isVisible())

	h.tr.setFail(nil)
	h.view.submit("hello")
	require.Eventually(t, func() bool {
		_, _, pasted := h.clip.state()
		return len(pasted) == 1
	}, waitFor, 5*time.Millisecond)
}

func TestClosedTargetWindowLeavesTranslationInClipboard(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.cfg.SetRestoreClipboard(true))
	h.sync(t)

	h.open(t)
	h.focus.close(editor)
	h.view.submit("hello")

	require.Eventually(t, func() bool { return h.notify.manualCount() == 1 }, waitFor, 5*time.Millisecond)
	h.sync(t)

	text, _, pasted := h.clip.state()
	assert.Equal(t, "merhaba", text)
	assert.Empty(t, pasted)
	assert.False(t, h.arbiter.Pending())
	assert.Nil(t, h.app.current)
	assert.Equal(t, tray.StateError, h.tray.current())
}

func TestStaleWorkerEventIsDiscarded(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	h.sync(t)
	id := h.app.current.ID

	require.True(t, h.app.Post(pasteBackEvent{id: id + 100}))
	require.True(t, h.app.Post(submitEvent{id: id + 100, text: "hello"}))
	h.sync(t)

	assert.Equal(t, session.Shown, h.app.current.State())
	h.tr.mu.Lock()
	defer h.tr.mu.Unlock()
	assert.Zero(t, h.tr.calls)
}

func TestBlankSubmitIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	h.view.submit("   ")
	h.sync(t)

	assert.Equal(t, session.Shown, h.app.current.State())
	_, ok := h.view.lastStatus()
	assert.False(t, ok)
}

func TestConfigChangesReachServices(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.cfg.SetHotkey(config.MustParseHotkey("ctrl+alt+t")))
	require.NoError(t, h.cfg.SetPopupSize(config.SizeLarge))
	h.sync(t)

	assert.Equal(t, []string{"shift+alt+d", "ctrl+alt+t"}, h.hotkey.bindings())
	assert.Equal(t, config.SizeLarge, h.view.currentSize())
}

func TestHotkeyRebindFailureNotifies(t *testing.T) {
	h := newHarness(t)
	h.hotkey.failOn = "ctrl+alt+q"

	require.NoError(t, h.cfg.SetHotkey(config.MustParseHotkey("ctrl+alt+q")))
	h.sync(t)

	h.notify.mu.Lock()
	defer h.notify.mu.Unlock()
	require.Len(t, h.notify.errors, 1)
	assert.Contains(t, h.notify.errors[0], "ctrl+alt+q")
}

func TestQuitAndCloseAreIdempotent(t *testing.T) {
	h := newHarness(t)
	h.open(t)

	require.True(t, h.app.Post(quitEvent{}))
	require.Eventually(t, func() bool { return h.tray.quitCount() == 1 }, waitFor, 5*time.Millisecond)

	h.app.Close()
	h.app.Close()
	assert.Equal(t, 1, h.hotkey.closed)
	assert.False(t, h.view.isVisible())
}

func TestInvalidHotkeyInFileIsReported(t *testing.T) {
	h := newHarnessWithFile(t, `{"hotkey":"shift+alt+ä","target_language":"tr","save_history":true}`)

	assert.Equal(t, []string{"shift+alt+d"}, h.hotkey.bindings())
	assert.Equal(t, "tr", h.cfg.TargetLanguage())
	assert.True(t, h.cfg.SaveHistory())

	h.notify.mu.Lock()
	defer h.notify.mu.Unlock()
	require.Len(t, h.notify.errors, 1)
	assert.Contains(t, h.notify.errors[0], "shift+alt+ä")
	assert.Equal(t, []string{"shift+alt+d"}, h.notify.started)
}

func TestWorkerResultSurvivesFullQueue(t *testing.T) {
	h := newHarness(t)
	h.tr.block = make(chan struct{})

	h.open(t)
	h.view.submit("hello")
	h.sync(t)

	// Цикл занят, очередь заполнена до отказа
	entered, hold := make(chan struct{}), make(chan struct{})
	require.True(t, h.app.Post(callEvent(func() {
		close(entered)
		<-hold
	})))
	<-entered
	for h.app.Post(callEvent(func() {})) {
	}

	close(h.tr.block)
	time.Sleep(50 * time.Millisecond)
	close(hold)

	require.Eventually(t, func() bool {
		_, _, pasted := h.clip.state()
		return len(pasted) == 1
	}, waitFor, 5*time.Millisecond)
	_, _, pasted := h.clip.state()
	assert.Equal(t, []string{"merhaba"}, pasted)
}

type memKeys map[string]string

func (m memKeys) Get(p string) (string, error) { return m[p], nil }
func (m memKeys) Set(p, k string) error        { m[p] = k; return nil }
func (m memKeys) Delete(p string) error        { delete(m, p); return nil }

func TestStoredKeysAreRedacted(t *testing.T) {
	dir := t.TempDir()
	defer logrus.SetOutput(os.Stderr)
	closer, err := logging.Setup(dir)
	require.NoError(t, err)

	keys := redactingKeys{memKeys{translate.ProviderLibre: "lt-stored-key"}}
	key, err := keys.Get(translate.ProviderLibre)
	require.NoError(t, err)
	assert.Equal(t, "lt-stored-key", key)

	logrus.WithField("key", key).Info("libre configured")
	require.NoError(t, closer.Close())
	logrus.SetOutput(os.Stderr)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "tranfastic.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "key=[REDACTED]")
	assert.NotContains(t, string(data), "lt-stored-key")
}
