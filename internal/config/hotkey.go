package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHotkey возвращается для некорректной комбинации клавиш.
var ErrInvalidHotkey = errors.New("invalid hotkey")

// InvalidHotkeyError - в файле настроек записана недопустимая комбинация.
// Вместо неё действует комбинация по умолчанию или прежняя.
type InvalidHotkeyError struct {
	Binding string // как записано в файле
	Err     error
}

func (e *InvalidHotkeyError) Error() string {
	return fmt.Sprintf("config hotkey %s: %v", e.Binding, e.Err)
}

func (e *InvalidHotkeyError) Unwrap() error { return e.Err }

// decodeHotkey разбирает значение ключа hotkey из файла.
func decodeHotkey(raw json.RawMessage) (HotkeyConfig, error) {
	var hk HotkeyConfig
	if err := json.Unmarshal(raw, &hk); err != nil {
		binding := string(raw)
		var s string
		if json.Unmarshal(raw, &s) == nil {
			binding = s
		}
		return HotkeyConfig{}, &InvalidHotkeyError{Binding: binding, Err: err}
	}
	return hk, nil
}

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyA      Key = "a"
	KeyB      Key = "b"
	KeyC      Key = "c"
	KeyD      Key = "d"
	KeyE      Key = "e"
	KeyF      Key = "f"
	KeyG      Key = "g"
	KeyH      Key = "h"
	KeyI      Key = "i"
	KeyJ      Key = "j"
	KeyK      Key = "k"
	KeyL      Key = "l"
	KeyM      Key = "m"
	KeyN      Key = "n"
	KeyO      Key = "o"
	KeyP      Key = "p"
	KeyQ      Key = "q"
	KeyR      Key = "r"
	KeyS      Key = "s"
	KeyT      Key = "t"
	KeyU      Key = "u"
	KeyV      Key = "v"
	KeyW      Key = "w"
	KeyX      Key = "x"
	KeyY      Key = "y"
	KeyZ      Key = "z"
	Key0      Key = "0"
	Key1      Key = "1"
	Key2      Key = "2"
	Key3      Key = "3"
	Key4      Key = "4"
	Key5      Key = "5"
	Key6      Key = "6"
	Key7      Key = "7"
	Key8      Key = "8"
	Key9      Key = "9"
	KeyF1     Key = "f1"
	KeyF2     Key = "f2"
	KeyF3     Key = "f3"
	KeyF4     Key = "f4"
	KeyF5     Key = "f5"
	KeyF6     Key = "f6"
	KeyF7     Key = "f7"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// Синонимы, которые встречаются в старых конфигах и в ручном вводе.
var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"super":   ModSuper,
	"win":     ModSuper,
	"cmd":     ModSuper,
	"meta":    ModSuper,
}

var keyAliases = map[string]Key{
	"enter": KeyReturn,
}

// HotkeyConfig хранит настройки горячей клавиши.
// В файле хранится строкой вида "shift+alt+d".
type HotkeyConfig struct {
	Modifiers []Modifier
	Key       Key
}

// ParseHotkey разбирает строку вида "shift+alt+d".
// Последний элемент считается клавишей, остальные - модификаторами.
func ParseHotkey(s string) (HotkeyConfig, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return HotkeyConfig{}, fmt.Errorf("%w: %q: key is required", ErrInvalidHotkey, s)
	}

	var hk HotkeyConfig
	seen := make(map[Modifier]bool)
	for _, p := range parts[:len(parts)-1] {
		p = strings.TrimSpace(p)
		mod, ok := modifierAliases[p]
		if !ok {
			return HotkeyConfig{}, fmt.Errorf("%w: %q: unsupported modifier %q", ErrInvalidHotkey, s, p)
		}
		if seen[mod] {
			continue
		}
		seen[mod] = true
		hk.Modifiers = append(hk.Modifiers, mod)
	}

	keyName := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := keyAliases[keyName]; ok {
		hk.Key = alias
	} else {
		hk.Key = Key(keyName)
	}

	if err := hk.Validate(); err != nil {
		return HotkeyConfig{}, err
	}
	return hk, nil
}

// MustParseHotkey как ParseHotkey, но паникует при ошибке. Только для констант.
func MustParseHotkey(s string) HotkeyConfig {
	hk, err := ParseHotkey(s)
	if err != nil {
		panic(err)
	}
	return hk
}

// Validate проверяет, что комбинацию можно зарегистрировать.
func (h HotkeyConfig) Validate() error {
	if h.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidHotkey)
	}
	if !isAvailableKey(h.Key) {
		return fmt.Errorf("%w: unsupported key %q", ErrInvalidHotkey, h.Key)
	}
	if len(h.Modifiers) == 0 {
		return fmt.Errorf("%w: %s: at least one modifier is required", ErrInvalidHotkey, h)
	}
	for _, m := range h.Modifiers {
		if !isAvailableModifier(m) {
			return fmt.Errorf("%w: unsupported modifier %q", ErrInvalidHotkey, m)
		}
	}
	return nil
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	result := ""
	for _, m := range h.Modifiers {
		if result != "" {
			result += "+"
		}
		result += string(m)
	}
	if result != "" {
		result += "+"
	}
	result += string(h.Key)
	return result
}

// Equal сравнивает комбинации без учёта порядка модификаторов.
func (h HotkeyConfig) Equal(other HotkeyConfig) bool {
	if h.Key != other.Key || len(h.Modifiers) != len(other.Modifiers) {
		return false
	}
	for _, m := range h.Modifiers {
		found := false
		for _, o := range other.Modifiers {
			if m == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MarshalJSON сохраняет комбинацию строкой.
func (h HotkeyConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON принимает строку "shift+alt+d" и старый формат
// {"modifiers": [...], "key": "..."}.
func (h *HotkeyConfig) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseHotkey(s)
		if err != nil {
			return err
		}
		*h = parsed
		return nil
	}

	var legacy struct {
		Modifiers []Modifier `json:"modifiers"`
		Key       Key        `json:"key"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidHotkey, string(data))
	}
	hk := HotkeyConfig{Modifiers: legacy.Modifiers, Key: legacy.Key}
	if err := hk.Validate(); err != nil {
		return err
	}
	*h = hk
	return nil
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	return []Key{
		KeySpace, KeyReturn, KeyTab,
		KeyA, KeyB, KeyC, KeyD, KeyE, KeyF, KeyG, KeyH, KeyI, KeyJ, KeyK, KeyL, KeyM,
		KeyN, KeyO, KeyP, KeyQ, KeyR, KeyS, KeyT, KeyU, KeyV, KeyW, KeyX, KeyY, KeyZ,
		Key0, Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8, Key9,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
}

func isAvailableKey(k Key) bool {
	for _, key := range AvailableKeys() {
		if key == k {
			return true
		}
	}
	return false
}

func isAvailableModifier(m Modifier) bool {
	for _, mod := range AvailableModifiers() {
		if mod == m {
			return true
		}
	}
	return false
}
