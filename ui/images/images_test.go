package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestFitSize(t *testing.T) {
	cases := []struct{ w, h, mw, mh, ww, wh int }{
		{640, 480, 400, 225, 300, 225},
		{320, 240, 400, 225, 300, 225},
		{200, 100, 400, 225, 200, 100},
		{0, 10, 400, 225, 0, 0},
	}
	for _, c := range cases {
		gw, gh := FitSize(c.w, c.h, c.mw, c.mh)
		if gw != c.ww || gh != c.wh {
			t.Fatalf("FitSize(%d,%d,%d,%d) = %d,%d want %d,%d", c.w, c.h, c.mw, c.mh, gw, gh, c.ww, c.wh)
		}
	}
}

func TestScaleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 640, 480))
	out := ScaleToFit(src, 400, 225)
	if b := out.Bounds(); b.Dx() != 300 || b.Dy() != 225 {
		t.Fatalf("unexpected scaled size %v", b)
	}
	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if ScaleToFit(small, 400, 225) != image.Image(small) {
		t.Fatalf("image that fits should be returned unchanged")
	}
}

func TestEncodePNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 255})
	data := EncodePNG(img)
	dec, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, _, _ := dec.At(1, 1).RGBA(); r>>8 != 255 {
		t.Fatalf("pixel lost in round trip")
	}
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image should encode to nil")
	}
}

func countColor(img *image.RGBA, c color.RGBA) int {
	n := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] == c.R && img.Pix[i+1] == c.G && img.Pix[i+2] == c.B {
			n++
		}
	}
	return n
}

func TestAnnotate_HeadlineColour(t *testing.T) {
	alert := image.NewRGBA(image.Rect(0, 0, 320, 240))
	Annotate(alert, Overlay{Headline: "OIL SPILL DETECTED", Alert: true, Lines: []string{"Frame: 1"}})
	if countColor(alert, ColorAlert) == 0 {
		t.Fatalf("alert headline should draw red pixels")
	}
	if countColor(alert, ColorInfo) == 0 {
		t.Fatalf("info lines should draw white pixels")
	}

	ok := image.NewRGBA(image.Rect(0, 0, 320, 240))
	Annotate(ok, Overlay{Headline: "Monitoring..."})
	if countColor(ok, ColorOK) == 0 || countColor(ok, ColorAlert) != 0 {
		t.Fatalf("monitoring headline should be green only")
	}

	// Bottom rows stay untouched.
	if alert.RGBAAt(10, 230) != (color.RGBA{}) {
		t.Fatalf("overlay leaked below the text band")
	}
}

func TestMaskToRGBA(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 3, 3))
	m.SetGray(2, 2, color.Gray{Y: 255})
	out := MaskToRGBA(m)
	if out.RGBAAt(2, 2) != (color.RGBA{255, 255, 255, 255}) || out.RGBAAt(0, 0) != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("unexpected mask rendering")
	}
	if MaskToRGBA(nil) != nil {
		t.Fatalf("nil mask should give nil")
	}
}
