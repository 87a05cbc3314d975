package translate

// Language is a language the UI offers.
type Language struct {
	Code string
	Name string
}

// Auto means "detect the source language".
const Auto = "auto"

var languages = []Language{
	{Code: Auto, Name: "Auto-detect"},
	{Code: "en", Name: "English"},
	{Code: "tr", Name: "Turkish"},
	{Code: "de", Name: "German"},
	{Code: "es", Name: "Spanish"},
	{Code: "ja", Name: "Japanese"},
	{Code: "fr", Name: "French"},
	{Code: "it", Name: "Italian"},
	{Code: "ru", Name: "Russian"},
}

// SourceLanguages returns languages valid as a source, including Auto.
func SourceLanguages() []Language {
	return append([]Language(nil), languages...)
}

// TargetLanguages returns languages valid as a target.
func TargetLanguages() []Language {
	return append([]Language(nil), languages[1:]...)
}

// LanguageName returns the display name for code, or code itself.
func LanguageName(code string) string {
	for _, l := range languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// IsSupported reports whether code is a known language. Auto is only
// accepted when asSource is true.
func IsSupported(code string, asSource bool) bool {
	if code == Auto {
		return asSource
	}
	for _, l := range languages[1:] {
		if l.Code == code {
			return true
		}
	}
	return false
}
