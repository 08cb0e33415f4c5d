// Package camera reads frames from a V4L2/OpenCV capture device.
package camera

import (
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/soocke/sputnik-relay/domain/capture"
	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Camera is a capture.Source backed by an OpenCV VideoCapture device.
type Camera struct {
	dev    *gocv.VideoCapture
	mat    gocv.Mat
	logger *slog.Logger
}

// Open opens the device by index and requests width x height. It fails fast
// when the device cannot be opened; the driver may still deliver a different
// resolution, which is logged.
func Open(device, width, height int, logger *slog.Logger) (*Camera, error) {
	dev, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errs.Wrap(errs.KindCapture, "camera.open", fmt.Sprintf("open device %d", device), err)
	}
	if !dev.IsOpened() {
		_ = dev.Close()
		return nil, errs.New(errs.KindCapture, "camera.open", fmt.Sprintf("device %d did not open", device))
	}
	dev.Set(gocv.VideoCaptureFrameWidth, float64(width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(height))
	dev.Set(gocv.VideoCaptureBufferSize, 1)
	gotW := int(dev.Get(gocv.VideoCaptureFrameWidth))
	gotH := int(dev.Get(gocv.VideoCaptureFrameHeight))
	if logger != nil {
		logger.Info("camera opened", "device", device, "width", gotW, "height", gotH)
		if gotW != width || gotH != height {
			logger.Warn("camera resolution differs from request", "want_w", width, "want_h", height, "got_w", gotW, "got_h", gotH)
		}
	}
	return &Camera{dev: dev, mat: gocv.NewMat(), logger: logger}, nil
}

// Read grabs the next frame and converts it from BGR into a pooled RGBA
// buffer.
func (c *Camera) Read() (capture.Frame, error) {
	if ok := c.dev.Read(&c.mat); !ok || c.mat.Empty() {
		return capture.Frame{}, errs.New(errs.KindCapture, "camera.read", "device returned no frame")
	}
	if c.mat.Channels() != 3 {
		return capture.Frame{}, errs.New(errs.KindCapture, "camera.read", fmt.Sprintf("expected 3 channels, got %d", c.mat.Channels()))
	}
	w, h := c.mat.Cols(), c.mat.Rows()
	data, err := c.mat.DataPtrUint8()
	if err != nil {
		return capture.Frame{}, errs.Wrap(errs.KindCapture, "camera.read", "access frame data", err)
	}
	img := capture.AcquireFrame(w, h)
	step := c.mat.Step()
	for y := 0; y < h; y++ {
		src := data[y*step : y*step+w*3]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x, i := 0, 0; x < w; x, i = x+1, i+3 {
			j := x * 4
			dst[j+0] = src[i+2]
			dst[j+1] = src[i+1]
			dst[j+2] = src[i+0]
			dst[j+3] = 0xFF
		}
	}
	return capture.Frame{Image: img, CapturedAt: time.Now()}, nil
}

// Close releases the device and the scratch matrix.
func (c *Camera) Close() error {
	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	_ = c.mat.Close()
	c.dev = nil
	return err
}
