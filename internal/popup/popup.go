// Package popup provides the floating translation window.
package popup

import (
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"

	"tranfastic/internal/config"
	"tranfastic/internal/session"
)

// WindowTitle is the popup window title, also used to find it for positioning.
const WindowTitle = "Tranfastic"

// Header is the title row content.
type Header struct {
	Connected  bool
	SourceLang string
	TargetLang string
}

// ShowOptions configures a popup opening.
type ShowOptions struct {
	Header   Header
	Size     config.PopupSize
	Position config.PopupPosition
}

// Config holds window colors and timing.
type Config struct {
	RefreshRate  time.Duration // Redraw interval while visible
	BGColor      color.NRGBA
	TextColor    color.NRGBA
	TextDimColor color.NRGBA
	AccentColor  color.NRGBA
	PanelColor   color.NRGBA
	SuccessColor color.NRGBA
	ErrorColor   color.NRGBA
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		RefreshRate:  50 * time.Millisecond,
		BGColor:      color.NRGBA{R: 30, G: 30, B: 34, A: 245},
		TextColor:    color.NRGBA{R: 240, G: 240, B: 245, A: 255},
		TextDimColor: color.NRGBA{R: 140, G: 140, B: 150, A: 255},
		AccentColor:  color.NRGBA{R: 88, G: 166, B: 255, A: 255},
		PanelColor:   color.NRGBA{R: 45, G: 45, B: 50, A: 255},
		SuccessColor: color.NRGBA{R: 80, G: 200, B: 120, A: 255},
		ErrorColor:   color.NRGBA{R: 230, G: 80, B: 80, A: 255},
	}
}

// Window is the translation popup. All setters are safe to call from any
// goroutine; user actions are reported through OnSubmit and OnCancel.
type Window struct {
	mu     sync.Mutex
	config Config

	header     Header
	size       config.PopupSize
	position   config.PopupPosition
	status     session.Status
	statusText string
	busySince  time.Time

	// Applied by the UI goroutine on the next frame
	resetEditor bool
	focusEditor bool
	needPlace   bool

	editor   widget.Editor
	closeBtn widget.Clickable
	onSubmit func(text string)
	onCancel func()

	window  *app.Window
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a popup window. Nothing is shown until Show.
func New(cfg Config) *Window {
	return &Window{
		config: cfg,
		editor: widget.Editor{SingleLine: true, Submit: true},
		size:   config.SizeDefault,
	}
}

// Show opens the popup with an empty input. If it is already visible the
// content is reset and the window is placed again.
func (w *Window) Show(opts ShowOptions) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.header = opts.Header
	w.position = opts.Position
	w.status = session.StatusIdle
	w.statusText = ""
	w.resetEditor = true
	w.focusEditor = true
	w.needPlace = true

	sizeChanged := w.size != opts.Size
	w.size = opts.Size

	if w.running {
		if w.window != nil {
			if sizeChanged {
				width, height := Dimensions(w.size)
				w.window.Option(app.Size(unit.Dp(width), unit.Dp(height)))
			}
			w.window.Invalidate()
		}
		return
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.runEventLoop(w.stopCh, w.doneCh)
}

// Hide closes the popup window.
func (w *Window) Hide() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	// Wait for window to close
	if doneCh != nil {
		select {
		case <-doneCh:
		case <-time.After(time.Second):
		}
	}
}

// SetStatus updates the status line.
func (w *Window) SetStatus(status session.Status, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if status == session.StatusTranslating && w.status != session.StatusTranslating {
		w.busySince = time.Now()
	}
	w.status = status
	w.statusText = text
	w.invalidateLocked()
}

// SetHeader updates the title row.
func (w *Window) SetHeader(h Header) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.header = h
	w.invalidateLocked()
}

// SetSize applies a size preset to the popup, visible or not.
func (w *Window) SetSize(size config.PopupSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size == size {
		return
	}
	w.size = size
	if w.window != nil {
		width, height := Dimensions(size)
		w.window.Option(app.Size(unit.Dp(width), unit.Dp(height)))
		w.needPlace = true
		w.invalidateLocked()
	}
}

// SetPosition changes the placement policy used by the next Show.
func (w *Window) SetPosition(p config.PopupPosition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = p
}

// OnSubmit sets the callback for Enter in the input field.
func (w *Window) OnSubmit(fn func(text string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onSubmit = fn
}

// OnCancel sets the callback for Escape, the close button and the window
// being closed by the window manager.
func (w *Window) OnCancel(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onCancel = fn
}

// IsVisible returns true if window is currently shown.
func (w *Window) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Window) invalidateLocked() {
	if w.window != nil {
		w.window.Invalidate()
	}
}

func (w *Window) runEventLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	win := new(app.Window)
	w.mu.Lock()
	w.window = win
	width, height := Dimensions(w.size)
	w.mu.Unlock()

	win.Option(
		app.Title(WindowTitle),
		app.Size(unit.Dp(width), unit.Dp(height)),
		app.Decorated(false), // Borderless
	)

	ticker := time.NewTicker(w.config.RefreshRate)
	defer ticker.Stop()

	// Invalidation and close goroutine
	go func() {
		for {
			select {
			case <-stopCh:
				win.Perform(system.ActionClose)
				return
			case <-ticker.C:
				win.Invalidate()
			}
		}
	}()

	var ops op.Ops
	for {
		switch e := win.Event().(type) {
		case app.DestroyEvent:
			w.mu.Lock()
			if w.window == win {
				w.window = nil
			}
			closedByUser := w.running && w.stopCh == stopCh
			if closedByUser {
				w.running = false
				w.stopCh = nil
			}
			cancelFn := w.onCancel
			w.mu.Unlock()

			// Closed by the window manager rather than Hide
			if closedByUser {
				close(stopCh)
				if cancelFn != nil {
					go cancelFn()
				}
			}
			return
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			w.frame(gtx, e.Size)
			e.Frame(gtx.Ops)
		}
	}
}

// frame applies pending state and draws one frame.
func (w *Window) frame(gtx layout.Context, windowSize image.Point) {
	w.mu.Lock()
	if w.resetEditor {
		w.editor.SetText("")
		w.resetEditor = false
	}
	focus := w.focusEditor
	w.focusEditor = false
	place := w.needPlace
	w.needPlace = false
	position := w.position
	st := viewState{
		header:     w.header,
		status:     w.status,
		statusText: w.statusText,
		elapsed:    time.Since(w.busySince),
	}
	submitFn := w.onSubmit
	cancelFn := w.onCancel
	w.mu.Unlock()

	if place {
		go positionWindow(WindowTitle, Place(position, windowSize, CurrentScreen()))
	}
	if focus {
		gtx.Execute(key.FocusCmd{Tag: &w.editor})
	}

	// Input is frozen while a request is in flight
	w.editor.ReadOnly = st.status == session.StatusTranslating

	// Escape cancels the session
	for {
		event, ok := gtx.Event(key.Filter{Name: key.NameEscape})
		if !ok {
			break
		}
		if e, ok := event.(key.Event); ok && e.State == key.Press && cancelFn != nil {
			go cancelFn()
		}
	}

	for {
		event, ok := w.editor.Update(gtx)
		if !ok {
			break
		}
		if e, ok := event.(widget.SubmitEvent); ok && submitFn != nil {
			text := e.Text
			if strings.TrimSpace(text) != "" {
				go submitFn(text)
			}
		}
	}

	if w.closeBtn.Clicked(gtx) && cancelFn != nil {
		go cancelFn()
	}

	drawPopup(gtx, w.config, st, &w.editor, &w.closeBtn)
}
