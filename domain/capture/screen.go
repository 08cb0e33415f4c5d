package capture

import (
	"image"
	"time"

	"github.com/vova616/screenshot"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Screen captures a fixed rectangle of the desktop. It stands in for the
// camera on a bench: point the rectangle at a video player showing recorded
// footage and the loop sees the same frames the unit would.
type Screen struct {
	rect image.Rectangle
}

// NewScreen returns a source grabbing a w x h region with its top-left corner
// at (x, y), clipped to the screen.
func NewScreen(x, y, w, h int) (*Screen, error) {
	bounds, err := screenshot.ScreenRect()
	if err != nil {
		return nil, errs.Wrap(errs.KindCapture, "screen.open", "query screen bounds", err)
	}
	r := image.Rect(x, y, x+w, y+h).Intersect(bounds)
	if r.Empty() {
		return nil, errs.New(errs.KindCapture, "screen.open", "capture region lies outside the screen")
	}
	return &Screen{rect: r}, nil
}

func (s *Screen) Read() (Frame, error) {
	shot, err := screenshot.CaptureRect(s.rect)
	if err != nil {
		return Frame{}, errs.Wrap(errs.KindCapture, "screen.read", "grab region", err)
	}
	b := shot.Bounds()
	img := acquireFrame(image.Rect(0, 0, b.Dx(), b.Dy()))
	copyOpaque(img, shot)
	return Frame{Image: img, CapturedAt: time.Now()}, nil
}

func (s *Screen) Close() error { return nil }
