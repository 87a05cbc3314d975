// Package i18n provides internationalization support.
package i18n

import "sync"

// Language represents a UI language.
type Language string

const (
	EN Language = "en"
	TR Language = "tr"
)

var (
	mu      sync.RWMutex
	current = EN // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	EN: {
		// App
		"app_name":    "Tranfastic",
		"app_tooltip": "Tranfastic - instant translation",

		// Tray menu
		"tray_ready":              "Ready",
		"tray_translating":        "Translating...",
		"tray_error":              "Last paste failed",
		"tray_translate":          "Translate",
		"tray_translate_hint":     "Open the translation window",
		"tray_settings":           "Settings",
		"tray_settings_hint":      "Change hotkey, languages and provider",
		"tray_history":            "History",
		"tray_history_hint":       "Open the translation history folder",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show desktop notifications",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Exit the application",

		// Popup
		"popup_placeholder":  "Type text and press Enter",
		"status_translating": "Translating...",
		"status_done":        "Done",
		"status_failed":      "Translation failed",

		// Notifications
		"notify_started":        "Running in the background",
		"notify_started_hint":   "Press %s to translate",
		"notify_paste_manually": "Could not paste automatically",
		"notify_paste_hint":     "The translation is in the clipboard, paste it manually",
		"notify_error":          "Error",
		"notify_clipboard":      "Clipboard is not available",
		"notify_hotkey":         "Hotkey %s is not available",
		"notify_hotkey_changed": "Hotkey changed to %s",
		"notify_hotkey_invalid": "Hotkey %s in the settings file is invalid, using %s",

		// Settings dialogs
		"settings_title":         "Tranfastic settings",
		"settings_prompt":        "Choose what to change:",
		"settings_hotkey":        "Hotkey",
		"settings_source":        "Source language",
		"settings_target":        "Target language",
		"settings_provider":      "Translation provider",
		"settings_model":         "Model",
		"settings_api_key":       "Provider API key",
		"settings_restore":       "Restore clipboard after paste",
		"settings_history":       "Save history",
		"settings_autostart":     "Start on login",
		"settings_popup_size":    "Popup size",
		"settings_popup_pos":     "Popup position",
		"settings_ui_language":   "Interface language",
		"settings_on":            "on",
		"settings_off":           "off",
		"dialog_modifiers":       "Choose modifiers:",
		"dialog_modifiers_title": "Hotkey - modifiers",
		"dialog_key":             "Choose a key:",
		"dialog_key_title":       "Hotkey - key",
		"dialog_no_modifier":     "at least one modifier is required",
		"dialog_source":          "Translate from:",
		"dialog_target":          "Translate to:",
		"dialog_provider":        "Translation service:",
		"dialog_api_key":         "API key (leave empty to remove):",
		"dialog_choose":          "Choose a value:",
		"dialog_saved":           "Settings saved",
		"dialog_no_models":       "No models installed in Ollama",
	},

	TR: {
		// App
		"app_name":    "Tranfastic",
		"app_tooltip": "Tranfastic - anında çeviri",

		// Tray menu
		"tray_ready":              "Hazır",
		"tray_translating":        "Çevriliyor...",
		"tray_error":              "Son yapıştırma başarısız",
		"tray_translate":          "Çevir",
		"tray_translate_hint":     "Çeviri penceresini aç",
		"tray_settings":           "Ayarlar",
		"tray_settings_hint":      "Kısayol, dil ve sağlayıcıyı değiştir",
		"tray_history":            "Geçmiş",
		"tray_history_hint":       "Çeviri geçmişi klasörünü aç",
		"tray_notifications":      "Bildirimler",
		"tray_notifications_hint": "Masaüstü bildirimlerini göster",
		"tray_quit":               "Çıkış",
		"tray_quit_hint":          "Uygulamayı kapat",

		// Popup
		"popup_placeholder":  "Metni yazın ve Enter'a basın",
		"status_translating": "Çevriliyor...",
		"status_done":        "Tamamlandı",
		"status_failed":      "Çeviri başarısız",

		// Notifications
		"notify_started":        "Arka planda çalışıyor",
		"notify_started_hint":   "Çevirmek için %s tuşlarına basın",
		"notify_paste_manually": "Otomatik yapıştırılamadı",
		"notify_paste_hint":     "Çeviri panoda, elle yapıştırın",
		"notify_error":          "Hata",
		"notify_clipboard":      "Pano kullanılamıyor",
		"notify_hotkey":         "%s kısayolu kullanılamıyor",
		"notify_hotkey_changed": "Kısayol %s olarak değiştirildi",
		"notify_hotkey_invalid": "Ayarlardaki %s kısayolu geçersiz, %s kullanılıyor",

		// Settings dialogs
		"settings_title":         "Tranfastic ayarları",
		"settings_prompt":        "Neyi değiştirmek istiyorsunuz:",
		"settings_hotkey":        "Kısayol",
		"settings_source":        "Kaynak dil",
		"settings_target":        "Hedef dil",
		"settings_provider":      "Çeviri sağlayıcısı",
		"settings_model":         "Model",
		"settings_api_key":       "Sağlayıcı API anahtarı",
		"settings_restore":       "Yapıştırmadan sonra panoyu geri yükle",
		"settings_history":       "Geçmişi kaydet",
		"settings_autostart":     "Oturum açılışında başlat",
		"settings_popup_size":    "Pencere boyutu",
		"settings_popup_pos":     "Pencere konumu",
		"settings_ui_language":   "Arayüz dili",
		"settings_on":            "açık",
		"settings_off":           "kapalı",
		"dialog_modifiers":       "Değiştirici tuşları seçin:",
		"dialog_modifiers_title": "Kısayol - değiştiriciler",
		"dialog_key":             "Bir tuş seçin:",
		"dialog_key_title":       "Kısayol - tuş",
		"dialog_no_modifier":     "en az bir değiştirici tuş gerekli",
		"dialog_source":          "Kaynak dil:",
		"dialog_target":          "Hedef dil:",
		"dialog_provider":        "Çeviri servisi:",
		"dialog_api_key":         "API anahtarı (silmek için boş bırakın):",
		"dialog_choose":          "Bir değer seçin:",
		"dialog_saved":           "Ayarlar kaydedildi",
		"dialog_no_models":       "Ollama'da yüklü model yok",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to English, then to the key itself
	if s, ok := translations[EN][key]; ok {
		return s
	}
	return key
}

// SetLanguage sets the current UI language. Unknown languages fall back
// to English.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := translations[lang]; !ok {
		lang = EN
	}
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{EN, TR}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case EN:
		return "English"
	case TR:
		return "Türkçe"
	default:
		return string(lang)
	}
}
