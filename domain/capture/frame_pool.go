package capture

import (
	"image"
	"sync"
)

// Frame buffers are pooled so that a steady 30 fps capture does not retain a
// fresh 1.2 MB backing slice per frame while the loop is still encoding the
// previous one. Sources fill pooled buffers; the control loop returns them
// with RecycleFrame once the iteration that owns the frame is done.

var framePool sync.Pool // stores *image.RGBA

// acquireFrame returns a reusable RGBA image sized to rect. The returned Pix
// length exactly matches rect area * 4, and Stride is width*4.
func acquireFrame(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := framePool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		img = &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	} else {
		img.Stride = w * 4
		img.Rect = rect
		img.Pix = img.Pix[:needed]
	}
	return img
}

// AcquireFrame exposes the pool to sources living in sub-packages.
func AcquireFrame(w, h int) *image.RGBA { return acquireFrame(image.Rect(0, 0, w, h)) }

// RecycleFrame returns the frame buffer to the pool. The image must no longer
// be accessed by the caller afterwards.
func RecycleFrame(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	framePool.Put(img)
}

// copyOpaque copies src into dst forcing alpha to 0xFF. Both images must
// share dimensions.
func copyOpaque(dst, src *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+w*4]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < len(d); i += 4 {
			d[i+0] = s[i+0]
			d[i+1] = s[i+1]
			d[i+2] = s[i+2]
			d[i+3] = 0xFF
		}
	}
}
