// Package spill detects oil-sheen colour signatures in camera frames.
package spill

import (
	"image"

	"github.com/disintegration/gift"

	"github.com/soocke/sputnik-relay/domain/capture"
)

// Result is the outcome of evaluating one frame.
type Result struct {
	Detected  bool
	Mask      *image.Gray // 255 where the pixel matches the signature, else 0
	AreaRatio float64
}

// Detector evaluates frames. Implementations must not retain the frame.
type Detector interface {
	Detect(frame capture.Frame) Result
}

// Thresholds parameterise the colour-signature pipeline.
type Thresholds struct {
	MinAreaRatio float64 // exclusive
	MaxAreaRatio float64 // exclusive
	SatMin       uint8
	SatMax       uint8
	ValMin       uint8
	ValMax       uint8
	RBMin        float32
	RBMax        float32
	BlurKernel   int
	MorphKernel  int
}

// DefaultThresholds: low saturation, mid brightness, near-neutral red/blue
// balance, covering between 1% and 60% of the frame.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAreaRatio: 0.01,
		MaxAreaRatio: 0.6,
		SatMin:       0,
		SatMax:       60,
		ValMin:       40,
		ValMax:       180,
		RBMin:        -0.2,
		RBMax:        0.2,
		BlurKernel:   5,
		MorphKernel:  5,
	}
}

// Evaluate applies the exclusive area bounds.
func (t Thresholds) Evaluate(ratio float64) bool {
	return ratio > t.MinAreaRatio && ratio < t.MaxAreaRatio
}

// ThresholdDetector is the baseline colour-threshold detector:
// blur, HSV + red/blue masks, open then close, coverage ratio.
// Not safe for concurrent use; it reuses scratch buffers between frames.
type ThresholdDetector struct {
	th      Thresholds
	blur    *gift.GIFT
	morph   *gift.GIFT
	blurred *image.RGBA
	raw     *image.Gray
}

func NewThresholdDetector(th Thresholds) *ThresholdDetector {
	if th.BlurKernel < 1 {
		th.BlurKernel = 5
	}
	if th.MorphKernel < 1 {
		th.MorphKernel = 5
	}
	k := th.MorphKernel
	return &ThresholdDetector{
		th:   th,
		blur: gift.New(gift.Convolution(gaussianKernel(th.BlurKernel), false, false, false, 0)),
		// Opening (erode, dilate) followed by closing (dilate, erode).
		morph: gift.New(
			gift.Minimum(k, false),
			gift.Maximum(k, false),
			gift.Maximum(k, false),
			gift.Minimum(k, false),
		),
	}
}

// Thresholds returns the detector configuration.
func (d *ThresholdDetector) Thresholds() Thresholds { return d.th }

func (d *ThresholdDetector) Detect(frame capture.Frame) Result {
	if frame.Empty() {
		return Result{Mask: image.NewGray(image.Rect(0, 0, 0, 0))}
	}
	src := frame.Image
	bounds := image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy())
	if d.blurred == nil || d.blurred.Rect != bounds {
		d.blurred = image.NewRGBA(bounds)
		d.raw = image.NewGray(bounds)
	}
	d.blur.Draw(d.blurred, src)
	if err := signatureMask(d.raw, d.blurred, d.th); err != nil {
		clear(d.raw.Pix)
	}

	mask := image.NewGray(bounds)
	d.morph.Draw(mask, d.raw)

	ratio := float64(countNonZero(mask)) / float64(bounds.Dx()*bounds.Dy())
	return Result{Detected: d.th.Evaluate(ratio), Mask: mask, AreaRatio: ratio}
}

func countNonZero(m *image.Gray) int {
	n := 0
	w, h := m.Rect.Dx(), m.Rect.Dy()
	for y := 0; y < h; y++ {
		for _, v := range m.Pix[y*m.Stride : y*m.Stride+w] {
			if v != 0 {
				n++
			}
		}
	}
	return n
}
