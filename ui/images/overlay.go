package images

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	ColorAlert = color.RGBA{R: 0xff, A: 0xff}
	ColorOK    = color.RGBA{G: 0xff, A: 0xff}
	ColorInfo  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	shade      = color.RGBA{A: 0x99}
)

// Overlay is the text block drawn over a preview frame.
type Overlay struct {
	Headline string
	Alert    bool // headline in the alert colour
	Lines    []string
}

const (
	lineHeight = 16
	marginX    = 8
	marginY    = 4
)

// Annotate draws o onto dst in the top-left corner over a translucent band.
func Annotate(dst *image.RGBA, o Overlay) {
	if dst == nil {
		return
	}
	rows := len(o.Lines)
	if o.Headline != "" {
		rows++
	}
	if rows == 0 {
		return
	}
	band := image.Rect(0, 0, dst.Rect.Dx(), marginY*2+rows*lineHeight).Add(dst.Rect.Min)
	draw.Draw(dst, band.Intersect(dst.Rect), image.NewUniform(shade), image.Point{}, draw.Over)

	y := dst.Rect.Min.Y + marginY + basicfont.Face7x13.Ascent
	if o.Headline != "" {
		c := ColorOK
		if o.Alert {
			c = ColorAlert
		}
		drawText(dst, o.Headline, dst.Rect.Min.X+marginX, y, c)
		y += lineHeight
	}
	for _, l := range o.Lines {
		drawText(dst, l, dst.Rect.Min.X+marginX, y, ColorInfo)
		y += lineHeight
	}
}

func drawText(dst *image.RGBA, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// MaskToRGBA renders a binary mask white on black.
func MaskToRGBA(m *image.Gray) *image.RGBA {
	if m == nil {
		return nil
	}
	return Clone(m)
}
