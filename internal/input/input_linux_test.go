//go:build linux

package input

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(methods []method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.name
	}
	return out
}

func TestDetectMethods(t *testing.T) {
	noUinput := func() (func() error, error) { return nil, errors.New("permission denied") }
	withUinput := func() (func() error, error) { return func() error { return nil }, nil }
	found := func(string) (string, error) { return "/usr/bin/tool", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }
	x11 := func(string) string { return "" }
	wayland := func(k string) string {
		if k == "WAYLAND_DISPLAY" {
			return "wayland-0"
		}
		return ""
	}

	tests := []struct {
		name   string
		getenv func(string) string
		look   func(string) (string, error)
		uinput func() (func() error, error)
		want   []string
	}{
		{"x11 without uinput access", x11, found, noUinput, []string{"xdotool", "robotgo"}},
		{"x11 with uinput", x11, found, withUinput, []string{"xdotool", "uinput", "robotgo"}},
		{"wayland", wayland, found, noUinput, []string{"wtype", "robotgo"}},
		{"no tools", x11, missing, withUinput, []string{"uinput", "robotgo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(detectMethods(tt.getenv, tt.look, tt.uinput)))
		})
	}
}

func TestPasteFallsThroughToNextMethod(t *testing.T) {
	var calls []string
	p := &linuxPaster{methods: []method{
		{"xdotool", func() error { calls = append(calls, "xdotool"); return errors.New("exit status 1") }},
		{"uinput", func() error { calls = append(calls, "uinput"); return nil }},
		{"robotgo", func() error { calls = append(calls, "robotgo"); return nil }},
	}}

	require.NoError(t, p.Paste())
	assert.Equal(t, []string{"xdotool", "uinput"}, calls)
}

func TestPasteReportsEveryFailure(t *testing.T) {
	p := &linuxPaster{methods: []method{
		{"xdotool", func() error { return errors.New("no display") }},
		{"robotgo", func() error { return errors.New("no X server") }},
	}}

	err := p.Paste()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xdotool: no display")
	assert.Contains(t, err.Error(), "robotgo: no X server")
}
