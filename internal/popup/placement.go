package popup

import (
	"image"

	"github.com/go-vgo/robotgo"

	"tranfastic/internal/config"
)

// cursorGap is the distance between the pointer and the popup in
// cursor_below mode.
const cursorGap = 24

// Screen describes the pointer and the connected displays.
// Displays[0] is the primary monitor.
type Screen struct {
	Pointer  image.Point
	Displays []image.Rectangle
}

// CurrentScreen queries the pointer and display geometry.
func CurrentScreen() Screen {
	x, y := robotgo.Location()
	s := Screen{Pointer: image.Pt(x, y)}

	n := robotgo.DisplaysNum()
	for i := 0; i < n; i++ {
		dx, dy, dw, dh := robotgo.GetDisplayBounds(i)
		if dw <= 0 || dh <= 0 {
			continue
		}
		s.Displays = append(s.Displays, image.Rect(dx, dy, dx+dw, dy+dh))
	}
	return s
}

// displayAt returns the display containing p, or the primary one.
func (s Screen) displayAt(p image.Point) (image.Rectangle, bool) {
	for _, d := range s.Displays {
		if p.In(d) {
			return d, true
		}
	}
	if len(s.Displays) > 0 {
		return s.Displays[0], true
	}
	return image.Rectangle{}, false
}

// Place returns the top-left corner for a popup of the given pixel size.
// The result always lies within the chosen display when one is known.
func Place(policy config.PopupPosition, size image.Point, s Screen) image.Point {
	var (
		d  image.Rectangle
		ok bool
	)
	if policy == config.PositionPrimary && len(s.Displays) > 0 {
		d, ok = s.Displays[0], true
	} else {
		d, ok = s.displayAt(s.Pointer)
	}
	if !ok {
		return s.Pointer
	}

	var pt image.Point
	switch policy {
	case config.PositionCursorBelow:
		pt = image.Pt(s.Pointer.X-size.X/2, s.Pointer.Y+cursorGap)
		// Not enough room below: flip above the pointer
		if pt.Y+size.Y > d.Max.Y {
			pt.Y = s.Pointer.Y - cursorGap - size.Y
		}
	default:
		pt = image.Pt(d.Min.X+(d.Dx()-size.X)/2, d.Min.Y+(d.Dy()-size.Y)/2)
	}
	return clamp(pt, size, d)
}

func clamp(pt, size image.Point, d image.Rectangle) image.Point {
	if pt.X+size.X > d.Max.X {
		pt.X = d.Max.X - size.X
	}
	if pt.Y+size.Y > d.Max.Y {
		pt.Y = d.Max.Y - size.Y
	}
	if pt.X < d.Min.X {
		pt.X = d.Min.X
	}
	if pt.Y < d.Min.Y {
		pt.Y = d.Min.Y
	}
	return pt
}

// Dimensions returns the popup size in dp for a preset.
func Dimensions(size config.PopupSize) (width, height int) {
	switch size {
	case config.SizeSmall:
		return 400, 96
	case config.SizeLarge:
		return 640, 132
	default:
		return 500, 110
	}
}
