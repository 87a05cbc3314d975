//go:build linux

package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTogglesDesktopEntry(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	on, err := Enabled()
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, Apply(true))
	on, err = Enabled()
	require.NoError(t, err)
	assert.True(t, on)

	data, err := os.ReadFile(filepath.Join(home, "autostart", "tranfastic.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Desktop Entry]")
	assert.Contains(t, string(data), "Name=Tranfastic")
	assert.Contains(t, string(data), "Exec=\"")

	require.NoError(t, Apply(false))
	require.NoError(t, Apply(false))
	on, err = Enabled()
	require.NoError(t, err)
	assert.False(t, on)
}
