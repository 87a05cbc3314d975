package popup

import (
	"image"
	"image/color"
	"math"
	"time"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"tranfastic/internal/i18n"
	"tranfastic/internal/session"
	"tranfastic/internal/translate"
)

// viewState is a snapshot of what one frame shows.
type viewState struct {
	header     Header
	status     session.Status
	statusText string
	elapsed    time.Duration
}

// drawPopup draws the header, the input panel and the status line.
func drawPopup(gtx layout.Context, cfg Config, st viewState, editor *widget.Editor, closeBtn *widget.Clickable) {
	drawBackground(gtx, cfg.BGColor)

	layout.UniformInset(unit.Dp(10)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			// Header: name, connection dot, languages, close button
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						lbl := label(cfg.TextColor, unit.Sp(13), i18n.T("app_name"))
						lbl.Font.Weight = font.Medium
						return lbl.Layout(gtx)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						col := cfg.ErrorColor
						if st.header.Connected {
							col = cfg.SuccessColor
						}
						return drawStatusDot(gtx, col)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return label(cfg.TextDimColor, unit.Sp(12), languagePair(st.header)).Layout(gtx)
					}),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						return layout.Dimensions{}
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return drawCloseButton(gtx, closeBtn, cfg.TextDimColor)
					}),
				)
			}),

			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),

			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return drawEditorPanel(gtx, cfg, editor)
			}),

			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),

			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawStatusLine(gtx, cfg, st)
			}),
		)
	})
}

func languagePair(h Header) string {
	src := translate.LanguageName(h.SourceLang)
	tgt := translate.LanguageName(h.TargetLang)
	return src + " → " + tgt
}

func label(col color.NRGBA, size unit.Sp, text string) material.LabelStyle {
	th := material.NewTheme()
	th.Palette.Fg = col
	lbl := material.Label(th, size, text)
	lbl.MaxLines = 1
	return lbl
}

// drawStatusLine draws the icon and text for the current status.
func drawStatusLine(gtx layout.Context, cfg Config, st viewState) layout.Dimensions {
	if st.status == session.StatusIdle && st.statusText == "" {
		return layout.Dimensions{Size: image.Pt(gtx.Constraints.Max.X, gtx.Dp(unit.Dp(14)))}
	}

	textColor := cfg.TextDimColor
	if st.status == session.StatusFailed {
		textColor = cfg.ErrorColor
	}

	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			switch st.status {
			case session.StatusTranslating:
				return drawModernSpinner(gtx, st.elapsed, cfg.AccentColor)
			case session.StatusDone:
				return drawSuccessIcon(gtx, cfg.SuccessColor)
			case session.StatusFailed:
				return drawFailureIcon(gtx, cfg.ErrorColor)
			}
			return layout.Dimensions{}
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return label(textColor, unit.Sp(11), st.statusText).Layout(gtx)
		}),
	)
}

// drawBackground draws a rectangle background.
func drawBackground(gtx layout.Context, col color.NRGBA) {
	rect := clip.Rect{Max: gtx.Constraints.Max}
	paint.FillShape(gtx.Ops, col, rect.Op())
}

// drawStatusDot draws the connection indicator.
func drawStatusDot(gtx layout.Context, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(8))
	circle := clip.Ellipse{Max: image.Pt(size, size)}
	paint.FillShape(gtx.Ops, col, circle.Op(gtx.Ops))
	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawModernSpinner draws a small circular spinner.
func drawModernSpinner(gtx layout.Context, elapsed time.Duration, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(14))
	thickness := gtx.Dp(unit.Dp(2))

	// Rotation based on time
	rotation := float64(elapsed.Milliseconds()) / 800.0 * 2 * math.Pi

	center := image.Pt(size/2, size/2)
	radius := size/2 - thickness

	numDots := 8
	for i := 0; i < numDots; i++ {
		angle := rotation + float64(i)*2*math.Pi/float64(numDots)
		x := center.X + int(float64(radius)*math.Cos(angle))
		y := center.Y + int(float64(radius)*math.Sin(angle))

		// Fade based on position
		alpha := uint8(255 - i*28)
		if alpha < 40 {
			alpha = 40
		}
		dotColor := color.NRGBA{R: col.R, G: col.G, B: col.B, A: alpha}

		dotRadius := thickness / 2
		if dotRadius < 1 {
			dotRadius = 1
		}
		dot := clip.Ellipse{
			Min: image.Pt(x-dotRadius, y-dotRadius),
			Max: image.Pt(x+dotRadius, y+dotRadius),
		}
		paint.FillShape(gtx.Ops, dotColor, dot.Op(gtx.Ops))
	}

	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawSuccessIcon draws a checkmark icon.
func drawSuccessIcon(gtx layout.Context, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(14))

	circle := clip.Ellipse{Max: image.Pt(size, size)}
	paint.FillShape(gtx.Ops, col, circle.Op(gtx.Ops))

	var path clip.Path
	path.Begin(gtx.Ops)
	s := float32(size)
	path.MoveTo(f32.Pt(s*0.25, s*0.5))
	path.LineTo(f32.Pt(s*0.4, s*0.7))
	path.LineTo(f32.Pt(s*0.75, s*0.3))

	paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, clip.Stroke{
		Path:  path.End(),
		Width: float32(gtx.Dp(unit.Dp(1.5))),
	}.Op())

	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawFailureIcon draws an exclamation mark in a circle.
func drawFailureIcon(gtx layout.Context, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(14))

	circle := clip.Ellipse{Max: image.Pt(size, size)}
	paint.FillShape(gtx.Ops, col, circle.Op(gtx.Ops))

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	s := float32(size)

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(s*0.5, s*0.22))
	path.LineTo(f32.Pt(s*0.5, s*0.58))
	paint.FillShape(gtx.Ops, white, clip.Stroke{
		Path:  path.End(),
		Width: float32(gtx.Dp(unit.Dp(1.5))),
	}.Op())

	dot := int(s * 0.1)
	c := image.Pt(size/2, int(s*0.76))
	paint.FillShape(gtx.Ops, white, clip.Ellipse{
		Min: c.Sub(image.Pt(dot, dot)),
		Max: c.Add(image.Pt(dot, dot)),
	}.Op(gtx.Ops))

	return layout.Dimensions{Size: image.Pt(size, size)}
}

// drawCloseButton draws an X button.
func drawCloseButton(gtx layout.Context, btn *widget.Clickable, col color.NRGBA) layout.Dimensions {
	return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		size := gtx.Dp(unit.Dp(18))

		// Hover effect
		if btn.Hovered() {
			col = color.NRGBA{R: 255, G: 100, B: 100, A: 255}
		}

		s := float32(size)
		margin := s * 0.25
		width := float32(gtx.Dp(unit.Dp(2)))

		var path clip.Path
		path.Begin(gtx.Ops)
		path.MoveTo(f32.Pt(margin, margin))
		path.LineTo(f32.Pt(s-margin, s-margin))
		paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path.End(), Width: width}.Op())

		var path2 clip.Path
		path2.Begin(gtx.Ops)
		path2.MoveTo(f32.Pt(s-margin, margin))
		path2.LineTo(f32.Pt(margin, s-margin))
		paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path2.End(), Width: width}.Op())

		return layout.Dimensions{Size: image.Pt(size, size)}
	})
}

// drawEditorPanel draws the panel with the input field.
func drawEditorPanel(gtx layout.Context, cfg Config, editor *widget.Editor) layout.Dimensions {
	rr := gtx.Dp(unit.Dp(8))
	rect := clip.RRect{
		Rect: image.Rectangle{Max: image.Pt(gtx.Constraints.Max.X, gtx.Constraints.Max.Y)},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}
	paint.FillShape(gtx.Ops, cfg.PanelColor, rect.Op(gtx.Ops))

	return layout.Inset{
		Left: unit.Dp(10), Right: unit.Dp(10),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.W.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			th := material.NewTheme()
			th.Palette.Fg = cfg.TextColor

			ed := material.Editor(th, editor, i18n.T("popup_placeholder"))
			ed.TextSize = unit.Sp(15)
			ed.Color = cfg.TextColor
			ed.HintColor = cfg.TextDimColor
			return ed.Layout(gtx)
		})
	})
}
