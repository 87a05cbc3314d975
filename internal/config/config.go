// Package config предоставляет конфигурацию приложения с сохранением в файл.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownKey возвращается Get/Set для неизвестного ключа.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue возвращается, если значение не подходит ключу.
	ErrInvalidValue = errors.New("invalid config value")
)

// Ключи конфигурации. Совпадают с именами полей в config.json.
const (
	KeyHotkey           = "hotkey"
	KeySourceLanguage   = "source_language"
	KeyTargetLanguage   = "target_language"
	KeyRestoreClipboard = "restore_clipboard"
	KeyRestoreDelay     = "restore_delay_ms"
	KeyPopupPosition    = "popup_position"
	KeyPopupSize        = "popup_size"
	KeySaveHistory      = "save_history"
	KeyNotifications    = "notifications"
	KeyUILanguage       = "ui_language"
	KeyProvider         = "provider"
	KeyProviderURL      = "provider_url"
	KeyProviderModel    = "provider_model"
	KeyStartOnBoot      = "start_on_boot"
)

// PopupPosition определяет, где открывается окно перевода.
type PopupPosition string

const (
	PositionCursorCentered PopupPosition = "cursor_centered" // центр монитора под курсором
	PositionCursorBelow    PopupPosition = "cursor_below"    // под курсором
	PositionPrimary        PopupPosition = "primary_monitor" // центр основного монитора
)

// PopupSize - пресет размера окна перевода.
type PopupSize string

const (
	SizeSmall   PopupSize = "small"
	SizeDefault PopupSize = "default"
	SizeLarge   PopupSize = "large"
)

const (
	DefaultHotkey       = "shift+alt+d"
	DefaultRestoreDelay = 3 * time.Second
	DefaultProvider     = "google"
)

// Change описывает изменение одного ключа.
type Change struct {
	Key   string
	Value any
}

// configData структура для сериализации.
type configData struct {
	Hotkey           HotkeyConfig  `json:"hotkey"`
	SourceLanguage   string        `json:"source_language"`
	TargetLanguage   string        `json:"target_language"`
	RestoreClipboard bool          `json:"restore_clipboard"`
	RestoreDelayMs   int           `json:"restore_delay_ms"`
	PopupPosition    PopupPosition `json:"popup_position"`
	PopupSize        PopupSize     `json:"popup_size"`
	SaveHistory      bool          `json:"save_history"`
	Notifications    bool          `json:"notifications"`
	UILanguage       string        `json:"ui_language,omitempty"`
	Provider         string        `json:"provider"`
	ProviderURL      string        `json:"provider_url,omitempty"`
	ProviderModel    string        `json:"provider_model,omitempty"`
	StartOnBoot      bool          `json:"start_on_boot"`

	// Старые ключи, читаются только при загрузке
	PopupOpeningLocation string `json:"popup_opening_location,omitempty"`
	MonitorBehavior      string `json:"monitor_behavior,omitempty"`
	WindowSize           string `json:"window_size,omitempty"`
}

// fileData - форма файла на диске. Комбинация разбирается отдельно,
// чтобы ошибка в ней не сбрасывала остальные настройки.
type fileData struct {
	configData
	Hotkey json.RawMessage `json:"hotkey,omitempty"`
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	data       configData
	configPath string
	listeners  []func(Change)
	invalid    []func(error)
	loadErr    error
}

func defaults() configData {
	return configData{
		Hotkey:           MustParseHotkey(DefaultHotkey),
		SourceLanguage:   "auto",
		TargetLanguage:   "en",
		RestoreClipboard: false,
		RestoreDelayMs:   int(DefaultRestoreDelay / time.Millisecond),
		PopupPosition:    PositionCursorCentered,
		PopupSize:        SizeDefault,
		SaveHistory:      false,
		Notifications:    true,
		UILanguage:       "en",
		Provider:         DefaultProvider,
	}
}

// Dir возвращает каталог данных приложения (~/.tranfastic).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tranfastic"
	}
	return filepath.Join(home, ".tranfastic")
}

// New создаёт конфигурацию, загружая из ~/.tranfastic/config.json
// или с настройками по умолчанию.
func New() *Config {
	return NewAt(filepath.Join(Dir(), "config.json"))
}

// NewAt создаёт конфигурацию с произвольным путём к файлу.
// Пустой путь отключает сохранение.
func NewAt(path string) *Config {
	c := &Config{
		data:       defaults(),
		configPath: path,
	}

	if err := c.load(); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Конфигурация повреждена, используются значения по умолчанию")
		c.data = defaults()
	}
	return c
}

// LoadError возвращает проблему, найденную при загрузке файла, которая
// не помешала прочитать остальные настройки (сейчас только
// *InvalidHotkeyError). nil, если файл прочитан полностью.
func (c *Config) LoadError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// OnInvalid задаёт обработчик ошибок в файле, изменённом извне.
func (c *Config) OnInvalid(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid = append(c.invalid, fn)
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	return c.configPath
}

// load загружает конфигурацию из файла.
func (c *Config) load() error {
	data, hkErr, err := c.readFile()
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if hkErr != nil {
		logrus.WithError(hkErr).Warn("Недопустимая горячая клавиша в файле, используется комбинация по умолчанию")
		data.Hotkey = MustParseHotkey(DefaultHotkey)
	}
	c.data = *data
	c.loadErr = hkErr
	return nil
}

// readFile читает и нормализует файл. nil без ошибки - файла нет.
// Недопустимая комбинация возвращается отдельно как *InvalidHotkeyError,
// остальные поля при этом прочитаны; Hotkey в таком случае пустой.
func (c *Config) readFile() (cfg *configData, hotkeyErr error, err error) {
	if c.configPath == "" {
		return nil, nil, nil
	}

	raw, err := os.ReadFile(c.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil // Файл не существует, используем defaults
		}
		return nil, nil, err
	}

	file := fileData{configData: defaults()}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, err
	}
	data := file.configData
	if len(file.Hotkey) > 0 && string(file.Hotkey) != "null" {
		data.Hotkey, hotkeyErr = decodeHotkey(file.Hotkey)
	}
	normalize(&data)
	if hotkeyErr != nil {
		data.Hotkey = HotkeyConfig{}
	}
	return &data, hotkeyErr, nil
}

// normalize переносит старые ключи и исправляет недопустимые значения.
func normalize(cfg *configData) {
	def := defaults()

	switch cfg.PopupOpeningLocation {
	case "cursor":
		cfg.PopupPosition = PositionCursorCentered
	case "primary":
		cfg.PopupPosition = PositionPrimary
	}
	if cfg.PopupOpeningLocation == "" {
		switch cfg.MonitorBehavior {
		case "cursor":
			cfg.PopupPosition = PositionCursorCentered
		case "primary":
			cfg.PopupPosition = PositionPrimary
		}
	}
	if cfg.WindowSize != "" && validPopupSize(PopupSize(cfg.WindowSize)) {
		cfg.PopupSize = PopupSize(cfg.WindowSize)
	}
	cfg.PopupOpeningLocation = ""
	cfg.MonitorBehavior = ""
	cfg.WindowSize = ""

	if !validPopupPosition(cfg.PopupPosition) {
		cfg.PopupPosition = def.PopupPosition
	}
	if !validPopupSize(cfg.PopupSize) {
		cfg.PopupSize = def.PopupSize
	}
	if cfg.RestoreDelayMs <= 0 {
		cfg.RestoreDelayMs = def.RestoreDelayMs
	}
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = def.SourceLanguage
	}
	if cfg.TargetLanguage == "" || cfg.TargetLanguage == "auto" {
		cfg.TargetLanguage = def.TargetLanguage
	}
	if cfg.Provider == "" {
		cfg.Provider = def.Provider
	}
	if cfg.Hotkey.Key == "" {
		cfg.Hotkey = def.Hotkey
	}
}

// save сохраняет конфигурацию в файл. Вызывается под c.mu.
func (c *Config) save() error {
	if c.configPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// OnChange добавляет обработчик изменений. Вызывается после сохранения,
// вне блокировки.
func (c *Config) OnChange(fn func(Change)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Config) notify(changes ...Change) {
	c.mu.RLock()
	listeners := append([]func(Change){}, c.listeners...)
	c.mu.RUnlock()

	for _, ch := range changes {
		for _, fn := range listeners {
			fn(ch)
		}
	}
}

// update применяет изменение, сохраняет файл и оповещает слушателей.
func (c *Config) update(key string, apply func(d *configData), value any) error {
	c.mu.Lock()
	prev := c.data
	apply(&c.data)
	if err := c.save(); err != nil {
		c.data = prev
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.notify(Change{Key: key, Value: value})
	return nil
}

// Hotkey возвращает текущую горячую клавишу.
func (c *Config) Hotkey() HotkeyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Hotkey
}

// SetHotkey устанавливает горячую клавишу.
func (c *Config) SetHotkey(hk HotkeyConfig) error {
	if err := hk.Validate(); err != nil {
		return err
	}
	return c.update(KeyHotkey, func(d *configData) { d.Hotkey = hk }, hk)
}

// SourceLanguage возвращает язык исходного текста ("auto" - автоопределение).
func (c *Config) SourceLanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.SourceLanguage
}

// SetSourceLanguage устанавливает язык исходного текста.
func (c *Config) SetSourceLanguage(lang string) error {
	if lang == "" {
		return fmt.Errorf("%w: empty source language", ErrInvalidValue)
	}
	return c.update(KeySourceLanguage, func(d *configData) { d.SourceLanguage = lang }, lang)
}

// TargetLanguage возвращает язык перевода.
func (c *Config) TargetLanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.TargetLanguage
}

// SetTargetLanguage устанавливает язык перевода. "auto" недопустим.
func (c *Config) SetTargetLanguage(lang string) error {
	if lang == "" || lang == "auto" {
		return fmt.Errorf("%w: target language %q", ErrInvalidValue, lang)
	}
	return c.update(KeyTargetLanguage, func(d *configData) { d.TargetLanguage = lang }, lang)
}

// RestoreClipboard возвращает true если буфер обмена нужно восстанавливать после вставки.
func (c *Config) RestoreClipboard() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.RestoreClipboard
}

// SetRestoreClipboard включает/выключает восстановление буфера обмена.
func (c *Config) SetRestoreClipboard(enabled bool) error {
	return c.update(KeyRestoreClipboard, func(d *configData) { d.RestoreClipboard = enabled }, enabled)
}

// RestoreDelay возвращает задержку восстановления буфера обмена.
func (c *Config) RestoreDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.data.RestoreDelayMs) * time.Millisecond
}

// SetRestoreDelay устанавливает задержку восстановления буфера обмена.
func (c *Config) SetRestoreDelay(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: restore delay %v", ErrInvalidValue, d)
	}
	ms := int(d / time.Millisecond)
	return c.update(KeyRestoreDelay, func(cd *configData) { cd.RestoreDelayMs = ms }, d)
}

// PopupPosition возвращает политику размещения окна.
func (c *Config) PopupPosition() PopupPosition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.PopupPosition
}

// SetPopupPosition устанавливает политику размещения окна.
func (c *Config) SetPopupPosition(p PopupPosition) error {
	if !validPopupPosition(p) {
		return fmt.Errorf("%w: popup position %q", ErrInvalidValue, p)
	}
	return c.update(KeyPopupPosition, func(d *configData) { d.PopupPosition = p }, p)
}

// PopupSize возвращает пресет размера окна.
func (c *Config) PopupSize() PopupSize {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.PopupSize
}

// SetPopupSize устанавливает пресет размера окна.
func (c *Config) SetPopupSize(s PopupSize) error {
	if !validPopupSize(s) {
		return fmt.Errorf("%w: popup size %q", ErrInvalidValue, s)
	}
	return c.update(KeyPopupSize, func(d *configData) { d.PopupSize = s }, s)
}

// SaveHistory возвращает true если переводы пишутся в историю.
func (c *Config) SaveHistory() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.SaveHistory
}

// SetSaveHistory включает/выключает историю переводов.
func (c *Config) SetSaveHistory(enabled bool) error {
	return c.update(KeySaveHistory, func(d *configData) { d.SaveHistory = enabled }, enabled)
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// SetNotifications включает/выключает уведомления.
func (c *Config) SetNotifications(enabled bool) error {
	return c.update(KeyNotifications, func(d *configData) { d.Notifications = enabled }, enabled)
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() (bool, error) {
	enabled := !c.NotificationsEnabled()
	return enabled, c.SetNotifications(enabled)
}

// StartOnBoot возвращает true если приложение запускается при входе в систему.
func (c *Config) StartOnBoot() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.StartOnBoot
}

// SetStartOnBoot включает/выключает автозапуск.
func (c *Config) SetStartOnBoot(enabled bool) error {
	return c.update(KeyStartOnBoot, func(d *configData) { d.StartOnBoot = enabled }, enabled)
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.UILanguage
}

// SetUILanguage устанавливает язык интерфейса.
func (c *Config) SetUILanguage(lang string) error {
	return c.update(KeyUILanguage, func(d *configData) { d.UILanguage = lang }, lang)
}

// Provider возвращает имя сервиса перевода.
func (c *Config) Provider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Provider
}

// SetProvider устанавливает сервис перевода.
func (c *Config) SetProvider(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty provider", ErrInvalidValue)
	}
	return c.update(KeyProvider, func(d *configData) { d.Provider = name }, name)
}

// ProviderURL возвращает адрес сервиса перевода (пусто - по умолчанию).
func (c *Config) ProviderURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ProviderURL
}

// SetProviderURL устанавливает адрес сервиса перевода.
func (c *Config) SetProviderURL(url string) error {
	return c.update(KeyProviderURL, func(d *configData) { d.ProviderURL = url }, url)
}

// ProviderModel возвращает модель локального сервиса (пусто - по умолчанию).
func (c *Config) ProviderModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.ProviderModel
}

// SetProviderModel устанавливает модель локального сервиса перевода.
func (c *Config) SetProviderModel(model string) error {
	return c.update(KeyProviderModel, func(d *configData) { d.ProviderModel = model }, model)
}

// Get возвращает значение по ключу или def, если ключ неизвестен.
func (c *Config) Get(key string, def any) any {
	switch key {
	case KeyHotkey:
		return c.Hotkey().String()
	case KeySourceLanguage:
		return c.SourceLanguage()
	case KeyTargetLanguage:
		return c.TargetLanguage()
	case KeyRestoreClipboard:
		return c.RestoreClipboard()
	case KeyRestoreDelay:
		return int(c.RestoreDelay() / time.Millisecond)
	case KeyPopupPosition:
		return string(c.PopupPosition())
	case KeyPopupSize:
		return string(c.PopupSize())
	case KeySaveHistory:
		return c.SaveHistory()
	case KeyNotifications:
		return c.NotificationsEnabled()
	case KeyUILanguage:
		return c.UILanguage()
	case KeyProvider:
		return c.Provider()
	case KeyProviderURL:
		return c.ProviderURL()
	case KeyProviderModel:
		return c.ProviderModel()
	case KeyStartOnBoot:
		return c.StartOnBoot()
	}
	return def
}

// Set устанавливает значение по ключу с синхронным сохранением.
func (c *Config) Set(key string, value any) error {
	switch key {
	case KeyHotkey:
		s, err := asString(key, value)
		if err != nil {
			return err
		}
		hk, err := ParseHotkey(s)
		if err != nil {
			return err
		}
		return c.SetHotkey(hk)
	case KeySourceLanguage, KeyTargetLanguage, KeyPopupPosition, KeyPopupSize,
		KeyUILanguage, KeyProvider, KeyProviderURL, KeyProviderModel:
		s, err := asString(key, value)
		if err != nil {
			return err
		}
		return c.setString(key, s)
	case KeyRestoreClipboard, KeySaveHistory, KeyNotifications, KeyStartOnBoot:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s must be bool, got %T", ErrInvalidValue, key, value)
		}
		switch key {
		case KeyRestoreClipboard:
			return c.SetRestoreClipboard(b)
		case KeySaveHistory:
			return c.SetSaveHistory(b)
		case KeyStartOnBoot:
			return c.SetStartOnBoot(b)
		default:
			return c.SetNotifications(b)
		}
	case KeyRestoreDelay:
		switch v := value.(type) {
		case time.Duration:
			return c.SetRestoreDelay(v)
		case int:
			return c.SetRestoreDelay(time.Duration(v) * time.Millisecond)
		case float64:
			return c.SetRestoreDelay(time.Duration(v) * time.Millisecond)
		}
		return fmt.Errorf("%w: %s must be a number of milliseconds, got %T", ErrInvalidValue, key, value)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func (c *Config) setString(key, s string) error {
	switch key {
	case KeySourceLanguage:
		return c.SetSourceLanguage(s)
	case KeyTargetLanguage:
		return c.SetTargetLanguage(s)
	case KeyPopupPosition:
		return c.SetPopupPosition(PopupPosition(s))
	case KeyPopupSize:
		return c.SetPopupSize(PopupSize(s))
	case KeyUILanguage:
		return c.SetUILanguage(s)
	case KeyProvider:
		return c.SetProvider(s)
	case KeyProviderModel:
		return c.SetProviderModel(s)
	default:
		return c.SetProviderURL(s)
	}
}

func asString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be string, got %T", ErrInvalidValue, key, value)
	}
	return s, nil
}

// AvailablePopupPositions возвращает допустимые политики размещения.
func AvailablePopupPositions() []PopupPosition {
	return []PopupPosition{PositionCursorCentered, PositionCursorBelow, PositionPrimary}
}

// AvailablePopupSizes возвращает допустимые пресеты размера.
func AvailablePopupSizes() []PopupSize {
	return []PopupSize{SizeSmall, SizeDefault, SizeLarge}
}

func validPopupPosition(p PopupPosition) bool {
	for _, v := range AvailablePopupPositions() {
		if v == p {
			return true
		}
	}
	return false
}

func validPopupSize(s PopupSize) bool {
	for _, v := range AvailablePopupSizes() {
		if v == s {
			return true
		}
	}
	return false
}
