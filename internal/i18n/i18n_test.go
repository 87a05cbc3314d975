package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTablesHaveSameKeys(t *testing.T) {
	for key := range translations[EN] {
		_, ok := translations[TR][key]
		assert.True(t, ok, "tr is missing %q", key)
	}
	for key := range translations[TR] {
		_, ok := translations[EN][key]
		assert.True(t, ok, "en is missing %q", key)
	}
}

func TestTFallbacks(t *testing.T) {
	defer SetLanguage(EN)

	SetLanguage(TR)
	assert.Equal(t, TR, GetLanguage())
	assert.Equal(t, "Hazır", T("tray_ready"))
	assert.Equal(t, "no_such_key", T("no_such_key"))

	SetLanguage("de")
	assert.Equal(t, EN, GetLanguage())
	assert.Equal(t, "Ready", T("tray_ready"))
}
