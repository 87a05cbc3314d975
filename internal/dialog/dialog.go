// Package dialog предоставляет GUI диалоги для настройки приложения.
package dialog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"

	"tranfastic/internal/config"
	"tranfastic/internal/i18n"
	"tranfastic/internal/translate"
)

// ErrCancelled - пользователь закрыл диалог.
var ErrCancelled = errors.New("dialog cancelled")

// SettingAPIKey - пункт меню настроек, которого нет в config.json.
const SettingAPIKey = "api_key"

// Item - строка списка с отображаемым текстом и значением.
type Item struct {
	Label string
	Value string
}

// Choose показывает список и возвращает значение выбранной строки.
func Choose(text, title string, items []Item, current string) (string, error) {
	labels := make([]string, len(items))
	var defaults []string
	for i, it := range items {
		labels[i] = it.Label
		if it.Value == current {
			defaults = append(defaults, it.Label)
		}
	}

	selected, err := zenity.List(text, labels,
		zenity.Title(title),
		zenity.DefaultItems(defaults...),
		zenity.DisallowEmpty(),
	)
	if err != nil {
		return "", wrapCancel(err)
	}
	return valueOf(items, selected)
}

// valueOf находит значение по отображаемому тексту.
func valueOf(items []Item, label string) (string, error) {
	for _, it := range items {
		if it.Label == label {
			return it.Value, nil
		}
	}
	return "", fmt.Errorf("unknown choice %q", label)
}

func wrapCancel(err error) error {
	if errors.Is(err, zenity.ErrCanceled) {
		return ErrCancelled
	}
	return err
}

// Summary - текущие значения, показываемые в меню настроек.
type Summary struct {
	Hotkey           string
	SourceLanguage   string
	TargetLanguage   string
	Provider         string
	ProviderModel    string
	RestoreClipboard bool
	SaveHistory      bool
	StartOnBoot      bool
	PopupSize        config.PopupSize
	PopupPosition    config.PopupPosition
	UILanguage       string
}

// SettingsItems строит пункты меню настроек. Значения - ключи config.json
// или SettingAPIKey.
func SettingsItems(s Summary) []Item {
	onOff := func(b bool) string {
		if b {
			return i18n.T("settings_on")
		}
		return i18n.T("settings_off")
	}
	row := func(key, value string) string {
		return i18n.T(key) + ": " + value
	}

	items := []Item{
		{row("settings_hotkey", s.Hotkey), config.KeyHotkey},
		{row("settings_source", translate.LanguageName(s.SourceLanguage)), config.KeySourceLanguage},
		{row("settings_target", translate.LanguageName(s.TargetLanguage)), config.KeyTargetLanguage},
		{row("settings_provider", s.Provider), config.KeyProvider},
	}
	// Локальной модели ключ не нужен, зато нужна модель
	if s.Provider == translate.ProviderOllama {
		model := s.ProviderModel
		if model == "" {
			model = translate.DefaultOllamaModel
		}
		items = append(items, Item{row("settings_model", model), config.KeyProviderModel})
	} else {
		items = append(items, Item{i18n.T("settings_api_key"), SettingAPIKey})
	}
	return append(items, []Item{
		{row("settings_restore", onOff(s.RestoreClipboard)), config.KeyRestoreClipboard},
		{row("settings_history", onOff(s.SaveHistory)), config.KeySaveHistory},
		{row("settings_autostart", onOff(s.StartOnBoot)), config.KeyStartOnBoot},
		{row("settings_popup_size", string(s.PopupSize)), config.KeyPopupSize},
		{row("settings_popup_pos", string(s.PopupPosition)), config.KeyPopupPosition},
		{row("settings_ui_language", i18n.LanguageName(i18n.Language(s.UILanguage))), config.KeyUILanguage},
	}...)
}

// ChooseSetting показывает меню настроек и возвращает выбранный ключ.
func ChooseSetting(s Summary) (string, error) {
	return Choose(i18n.T("settings_prompt"), i18n.T("settings_title"), SettingsItems(s), "")
}

// SelectHotkey открывает диалог выбора горячей клавиши.
// Возвращает выбранную конфигурацию или ErrCancelled.
func SelectHotkey(current config.HotkeyConfig) (config.HotkeyConfig, error) {
	// Шаг 1: Выбор модификаторов
	modItems := []Item{
		{"Ctrl", string(config.ModCtrl)},
		{"Shift", string(config.ModShift)},
		{"Alt", string(config.ModAlt)},
		{"Super (Win/Cmd)", string(config.ModSuper)},
	}

	var currentMods []string
	for _, m := range current.Modifiers {
		for _, it := range modItems {
			if it.Value == string(m) {
				currentMods = append(currentMods, it.Label)
			}
		}
	}

	labels := make([]string, len(modItems))
	for i, it := range modItems {
		labels[i] = it.Label
	}
	selectedMods, err := zenity.ListMultiple(
		i18n.T("dialog_modifiers"),
		labels,
		zenity.Title(i18n.T("dialog_modifiers_title")),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, wrapCancel(err)
	}
	if len(selectedMods) == 0 {
		return current, errors.New(i18n.T("dialog_no_modifier"))
	}

	newMods := make([]config.Modifier, 0, len(selectedMods))
	for _, s := range selectedMods {
		v, err := valueOf(modItems, s)
		if err != nil {
			return current, err
		}
		newMods = append(newMods, config.Modifier(v))
	}

	// Шаг 2: Выбор клавиши
	key, err := Choose(i18n.T("dialog_key"), i18n.T("dialog_key_title"), KeyItems(), string(current.Key))
	if err != nil {
		return current, err
	}

	hk := config.HotkeyConfig{Modifiers: newMods, Key: config.Key(key)}
	if err := hk.Validate(); err != nil {
		return current, err
	}
	return hk, nil
}

// KeyItems возвращает клавиши для диалога выбора.
func KeyItems() []Item {
	keys := config.AvailableKeys()
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, Item{Label: keyLabel(k), Value: string(k)})
	}
	return items
}

func keyLabel(k config.Key) string {
	s := string(k)
	if len(s) == 1 {
		return strings.ToUpper(s)
	}
	if s[0] == 'f' {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// LanguageItems строит список языков для выбора.
func LanguageItems(langs []translate.Language) []Item {
	items := make([]Item, len(langs))
	for i, l := range langs {
		items[i] = Item{Label: l.Name + " (" + l.Code + ")", Value: l.Code}
	}
	return items
}

// SelectSourceLanguage выбирает исходный язык (включая автоопределение).
func SelectSourceLanguage(current string) (string, error) {
	return Choose(i18n.T("dialog_source"), i18n.T("settings_title"), LanguageItems(translate.SourceLanguages()), current)
}

// SelectTargetLanguage выбирает язык перевода.
func SelectTargetLanguage(current string) (string, error) {
	return Choose(i18n.T("dialog_target"), i18n.T("settings_title"), LanguageItems(translate.TargetLanguages()), current)
}

// SelectProvider выбирает сервис перевода.
func SelectProvider(current string) (string, error) {
	var items []Item
	for _, p := range translate.Providers() {
		items = append(items, Item{Label: p, Value: p})
	}
	return Choose(i18n.T("dialog_provider"), i18n.T("settings_title"), items, current)
}

// SelectValue выбирает одно из строковых значений.
func SelectValue(values []string, current string) (string, error) {
	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Item{Label: v, Value: v}
	}
	return Choose(i18n.T("dialog_choose"), i18n.T("settings_title"), items, current)
}

// SelectUILanguage выбирает язык интерфейса.
func SelectUILanguage(current string) (string, error) {
	var items []Item
	for _, l := range i18n.AvailableLanguages() {
		items = append(items, Item{Label: i18n.LanguageName(l), Value: string(l)})
	}
	return Choose(i18n.T("dialog_choose"), i18n.T("settings_ui_language"), items, current)
}

// EnterAPIKey запрашивает ключ API сервиса перевода. Пустая строка
// означает удаление ключа.
func EnterAPIKey(provider string) (string, error) {
	key, err := zenity.Entry(i18n.T("dialog_api_key"),
		zenity.Title(i18n.T("settings_api_key")+" - "+provider),
		zenity.HideText(),
	)
	if err != nil {
		return "", wrapCancel(err)
	}
	return strings.TrimSpace(key), nil
}

// ShowInfo показывает информационное сообщение.
func ShowInfo(title, message string) {
	zenity.Info(message, zenity.Title(title))
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title))
}
