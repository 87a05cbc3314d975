// Package hotkey предоставляет глобальные горячие клавиши.
package hotkey

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"tranfastic/internal/config"
)

const (
	debounceInterval  = 300 * time.Millisecond // Защита от key repeat
	unregisterTimeout = 500 * time.Millisecond
)

var (
	// ErrInvalidBinding - комбинация не прошла проверку.
	ErrInvalidBinding = errors.New("invalid hotkey binding")
	// ErrUnavailable - ОС отказала в регистрации (например, клавиша занята).
	ErrUnavailable = errors.New("hotkey unavailable")
	// ErrNotRegistered - регистрация уже снята или заменена.
	ErrNotRegistered = errors.New("hotkey not registered")
)

// RegistrationError описывает неудачную регистрацию.
type RegistrationError struct {
	Binding string
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register hotkey %s: %v", e.Binding, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Registration - действующая регистрация горячей клавиши.
type Registration struct {
	ID      uint64
	Binding config.HotkeyConfig
}

// osHotkey - то, что нужно от golang.design/x/hotkey.
type osHotkey interface {
	Register() error
	Unregister() error
	Keydown() <-chan hotkey.Event
}

// Handler обрабатывает события горячих клавиш.
// Одновременно держит не более одной регистрации в ОС.
type Handler struct {
	regMu     sync.Mutex // сериализует Register/Unregister/Close целиком
	mu        sync.Mutex
	newHotkey func(config.HotkeyConfig) (osHotkey, error)
	hk        osHotkey
	reg       *Registration
	onPress   func()
	stopCh    chan struct{}
	doneCh    chan struct{}
	nextID    uint64
}

// New создаёт обработчик горячей клавиши.
func New() *Handler {
	return &Handler{newHotkey: newOSHotkey}
}

// SetCallback задаёт обработчик нажатия. Вызывается из горутины
// слушателя, поэтому не должен блокироваться.
func (h *Handler) SetCallback(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPress = fn
}

// Register регистрирует горячую клавишу. Предыдущая регистрация снимается.
// При ошибке активной горячей клавиши не остаётся.
func (h *Handler) Register(cfg config.HotkeyConfig) (*Registration, error) {
	h.regMu.Lock()
	defer h.regMu.Unlock()

	log := logrus.WithField("hotkey", cfg.String())
	log.Info("Регистрация горячей клавиши")

	h.release()

	if err := cfg.Validate(); err != nil {
		return nil, &RegistrationError{Binding: cfg.String(), Err: fmt.Errorf("%w: %w", ErrInvalidBinding, err)}
	}

	hk, err := h.newHotkey(cfg)
	if err != nil {
		return nil, &RegistrationError{Binding: cfg.String(), Err: fmt.Errorf("%w: %w", ErrInvalidBinding, err)}
	}
	if err := hk.Register(); err != nil {
		log.WithError(err).Warn("ОС отказала в регистрации горячей клавиши")
		return nil, &RegistrationError{Binding: cfg.String(), Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}

	h.mu.Lock()
	h.nextID++
	reg := &Registration{ID: h.nextID, Binding: cfg}
	h.hk = hk
	h.reg = reg
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	go h.listen(hk, h.stopCh, h.doneCh)
	h.mu.Unlock()

	log.WithField("id", reg.ID).Info("Горячая клавиша успешно зарегистрирована")
	return reg, nil
}

// Rebind меняет комбинацию. Если новая не регистрируется, обработчик
// продолжает работать без активной горячей клавиши.
func (h *Handler) Rebind(cfg config.HotkeyConfig) (*Registration, error) {
	return h.Register(cfg)
}

// Unregister снимает указанную регистрацию.
func (h *Handler) Unregister(reg *Registration) error {
	h.regMu.Lock()
	defer h.regMu.Unlock()

	h.mu.Lock()
	current := h.reg
	h.mu.Unlock()

	if reg == nil || current == nil || current.ID != reg.ID {
		return ErrNotRegistered
	}
	return h.release()
}

// Close снимает текущую регистрацию, если она есть.
func (h *Handler) Close() error {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	return h.release()
}

// Current возвращает текущую зарегистрированную горячую клавишу.
func (h *Handler) Current() (config.HotkeyConfig, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reg == nil {
		return config.HotkeyConfig{}, false
	}
	return h.reg.Binding, true
}

// release останавливает слушателя и снимает регистрацию в ОС.
// Вызывается под regMu.
func (h *Handler) release() error {
	h.mu.Lock()
	hk := h.hk
	stopCh, doneCh := h.stopCh, h.doneCh
	h.hk = nil
	h.reg = nil
	h.stopCh = nil
	h.doneCh = nil
	h.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}
	if hk == nil {
		return nil
	}

	// Unregister может зависнуть, если цикл сообщений ОС занят
	errCh := make(chan error, 1)
	go func() {
		errCh <- hk.Unregister()
	}()
	select {
	case err := <-errCh:
		return err
	case <-time.After(unregisterTimeout):
		logrus.Warn("Hotkey unregister timeout")
		return nil
	}
}

func (h *Handler) listen(hk osHotkey, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	var lastKeydown time.Time
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			// Debounce: игнорируем повторные keydown от key repeat
			now := time.Now()
			if now.Sub(lastKeydown) < debounceInterval {
				continue
			}
			lastKeydown = now

			h.mu.Lock()
			fn := h.onPress
			h.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

func newOSHotkey(cfg config.HotkeyConfig) (osHotkey, error) {
	// Конвертируем модификаторы
	mods := make([]hotkey.Modifier, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		mod, ok := modifierMap[m]
		if !ok {
			return nil, fmt.Errorf("unsupported modifier %q", m)
		}
		mods = append(mods, mod)
	}

	// Конвертируем клавишу
	key, ok := keyMap[cfg.Key]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", cfg.Key)
	}

	return hotkey.New(mods, key), nil
}

// modifierMap определён в platform-specific файлах:
// - modifiers_linux.go
// - modifiers_darwin.go
// - modifiers_windows.go

// keyMap маппинг config.Key -> hotkey.Key
var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace:  hotkey.KeySpace,
	config.KeyReturn: hotkey.KeyReturn,
	config.KeyTab:    hotkey.KeyTab,
	config.KeyA:      hotkey.KeyA,
	config.KeyB:      hotkey.KeyB,
	config.KeyC:      hotkey.KeyC,
	config.KeyD:      hotkey.KeyD,
	config.KeyE:      hotkey.KeyE,
	config.KeyF:      hotkey.KeyF,
	config.KeyG:      hotkey.KeyG,
	config.KeyH:      hotkey.KeyH,
	config.KeyI:      hotkey.KeyI,
	config.KeyJ:      hotkey.KeyJ,
	config.KeyK:      hotkey.KeyK,
	config.KeyL:      hotkey.KeyL,
	config.KeyM:      hotkey.KeyM,
	config.KeyN:      hotkey.KeyN,
	config.KeyO:      hotkey.KeyO,
	config.KeyP:      hotkey.KeyP,
	config.KeyQ:      hotkey.KeyQ,
	config.KeyR:      hotkey.KeyR,
	config.KeyS:      hotkey.KeyS,
	config.KeyT:      hotkey.KeyT,
	config.KeyU:      hotkey.KeyU,
	config.KeyV:      hotkey.KeyV,
	config.KeyW:      hotkey.KeyW,
	config.KeyX:      hotkey.KeyX,
	config.KeyY:      hotkey.KeyY,
	config.KeyZ:      hotkey.KeyZ,
	config.Key0:      hotkey.Key0,
	config.Key1:      hotkey.Key1,
	config.Key2:      hotkey.Key2,
	config.Key3:      hotkey.Key3,
	config.Key4:      hotkey.Key4,
	config.Key5:      hotkey.Key5,
	config.Key6:      hotkey.Key6,
	config.Key7:      hotkey.Key7,
	config.Key8:      hotkey.Key8,
	config.Key9:      hotkey.Key9,
	config.KeyF1:     hotkey.KeyF1,
	config.KeyF2:     hotkey.KeyF2,
	config.KeyF3:     hotkey.KeyF3,
	config.KeyF4:     hotkey.KeyF4,
	config.KeyF5:     hotkey.KeyF5,
	config.KeyF6:     hotkey.KeyF6,
	config.KeyF7:     hotkey.KeyF7,
	config.KeyF8:     hotkey.KeyF8,
	config.KeyF9:     hotkey.KeyF9,
	config.KeyF10:    hotkey.KeyF10,
	config.KeyF11:    hotkey.KeyF11,
	config.KeyF12:    hotkey.KeyF12,
}
