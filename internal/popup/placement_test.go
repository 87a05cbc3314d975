package popup

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"tranfastic/internal/config"
)

var twoMonitors = []image.Rectangle{
	image.Rect(0, 0, 1920, 1080),
	image.Rect(1920, 0, 1920+2560, 1440),
}

func TestPlace(t *testing.T) {
	size := image.Pt(500, 110)

	tests := []struct {
		name    string
		policy  config.PopupPosition
		pointer image.Point
		want    image.Point
	}{
		{
			name:    "centered on pointer monitor",
			policy:  config.PositionCursorCentered,
			pointer: image.Pt(3000, 200),
			want:    image.Pt(1920+(2560-500)/2, (1440-110)/2),
		},
		{
			name:    "primary ignores pointer",
			policy:  config.PositionPrimary,
			pointer: image.Pt(3000, 200),
			want:    image.Pt((1920-500)/2, (1080-110)/2),
		},
		{
			name:    "below pointer",
			policy:  config.PositionCursorBelow,
			pointer: image.Pt(800, 300),
			want:    image.Pt(800-250, 300+cursorGap),
		},
		{
			name:    "below pointer flips above at bottom edge",
			policy:  config.PositionCursorBelow,
			pointer: image.Pt(800, 1050),
			want:    image.Pt(550, 1050-cursorGap-110),
		},
		{
			name:    "below pointer clamped to right edge of its monitor",
			policy:  config.PositionCursorBelow,
			pointer: image.Pt(1900, 100),
			want:    image.Pt(1920-500, 100+cursorGap),
		},
		{
			name:    "pointer off all monitors uses primary",
			policy:  config.PositionCursorCentered,
			pointer: image.Pt(-500, -500),
			want:    image.Pt((1920-500)/2, (1080-110)/2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(tt.policy, size, Screen{Pointer: tt.pointer, Displays: twoMonitors})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceWithoutDisplays(t *testing.T) {
	got := Place(config.PositionCursorCentered, image.Pt(500, 110), Screen{Pointer: image.Pt(10, 20)})
	assert.Equal(t, image.Pt(10, 20), got)
}

func TestPlaceStaysInsideDisplay(t *testing.T) {
	d := image.Rect(0, 0, 800, 600)
	size := image.Pt(640, 132)
	for _, p := range []image.Point{{0, 0}, {799, 599}, {400, 590}, {5, 300}} {
		for _, policy := range config.AvailablePopupPositions() {
			got := Place(policy, size, Screen{Pointer: p, Displays: []image.Rectangle{d}})
			r := image.Rectangle{Min: got, Max: got.Add(size)}
			assert.True(t, r.In(d), "policy %s pointer %v -> %v", policy, p, r)
		}
	}
}

func TestDimensions(t *testing.T) {
	w, h := Dimensions(config.SizeDefault)
	assert.Equal(t, 500, w)
	assert.Equal(t, 110, h)

	sw, _ := Dimensions(config.SizeSmall)
	lw, _ := Dimensions(config.SizeLarge)
	assert.Less(t, sw, w)
	assert.Greater(t, lw, w)
}
