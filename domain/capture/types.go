package capture

import (
	"image"
	"time"
)

// Frame is one captured colour image. Pixels are RGBA with opaque alpha, so
// only the R, G and B channels carry data. A Frame is read-only once a
// Source returns it; the caller owns it until it hands the buffer back with
// RecycleFrame.
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dx()
}

func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dy()
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool { return f.Width() == 0 || f.Height() == 0 }

// Source acquires frames from a capture device. Read blocks for at most one
// device frame interval. Close releases the device; it is safe to call more
// than once.
type Source interface {
	Read() (Frame, error)
	Close() error
}

// CaptureStats summarises capture behaviour for instrumentation.
type CaptureStats struct {
	Captures         uint64
	Failures         uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
	Sequence         uint64
}
