// Package codec shrinks frames into compact JPEG buffers for the serial
// relay.
package codec

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

const (
	DefaultWidth   = 320
	DefaultHeight  = 240
	DefaultQuality = 70
)

// JPEG resizes to a fixed resolution and encodes with a fixed quality.
type JPEG struct {
	Width   int
	Height  int
	Quality int
	Filter  imaging.ResampleFilter
}

// NewJPEG returns a codec producing width x height JPEGs at quality.
func NewJPEG(width, height, quality int) *JPEG {
	return &JPEG{Width: width, Height: height, Quality: quality, Filter: imaging.Linear}
}

// Default returns the 320x240 quality 70 codec the companion board expects.
func Default() *JPEG { return NewJPEG(DefaultWidth, DefaultHeight, DefaultQuality) }

// Encode returns the compressed bytes for img.
func (c *JPEG) Encode(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errs.New(errs.KindCodec, "jpeg.encode", "empty image")
	}
	resized := imaging.Resize(img, c.Width, c.Height, c.Filter)
	var buf bytes.Buffer
	buf.Grow(c.Width * c.Height / 4)
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(c.Quality)); err != nil {
		return nil, errs.Wrap(errs.KindCodec, "jpeg.encode", "encode", err)
	}
	return buf.Bytes(), nil
}
