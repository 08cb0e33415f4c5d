package view

import (
	"image"

	"github.com/soocke/sputnik-relay/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the annotated satellite view next to the detection mask.
type CapturePreview interface {
	UpdateCapture(img image.Image)
	UpdateDetection(img image.Image)
	Reset()
}

type capturePreview struct {
	captureLabel       *LabelWidget
	detectionLabel     *LabelWidget
	prevCapturePhoto   *Img // last Tk photo image instance for capture
	prevDetectionPhoto *Img // last Tk photo image instance for detection
}

const (
	placeholderW = 400
	placeholderH = 300
)

// NewCapturePreview creates captioned preview labels at the given row and
// returns the view. Satellite view spans columns 0-1, the mask columns 2-3.
func NewCapturePreview(row int) CapturePreview {
	pngBytes := placeholder()
	capPhoto := NewPhoto(Data(pngBytes))
	detPhoto := NewPhoto(Data(pngBytes))

	Grid(Label(Txt("Satellite View")), Row(row), Column(0), Columnspan(2), Sticky("w"), Padx("0.4m"))
	Grid(Label(Txt("Detection Mask")), Row(row), Column(2), Columnspan(2), Sticky("w"), Padx("0.4m"))
	capture := Label(Image(capPhoto), Borderwidth(1), Relief("sunken"))
	detection := Label(Image(detPhoto), Borderwidth(1), Relief("sunken"))
	Grid(capture, Row(row+1), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	Grid(detection, Row(row+1), Column(2), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return &capturePreview{captureLabel: capture, detectionLabel: detection, prevCapturePhoto: capPhoto, prevDetectionPhoto: detPhoto}
}

func placeholder() []byte {
	return images.EncodePNG(image.NewRGBA(image.Rect(0, 0, placeholderW, placeholderH)))
}

// swap replaces a label's photo, deleting the previous one so obsolete pixel
// buffers are not retained by Tk.
func swap(label *LabelWidget, prev **Img, pngBytes []byte) {
	if label == nil || len(pngBytes) == 0 {
		return
	}
	if *prev != nil {
		(*prev).Delete()
	}
	*prev = NewPhoto(Data(pngBytes))
	label.Configure(Image(*prev))
}

func (v *capturePreview) UpdateCapture(img image.Image) {
	if img == nil {
		return
	}
	swap(v.captureLabel, &v.prevCapturePhoto, images.EncodePNG(img))
}

func (v *capturePreview) UpdateDetection(img image.Image) {
	if img == nil {
		return
	}
	swap(v.detectionLabel, &v.prevDetectionPhoto, images.EncodePNG(img))
}

func (v *capturePreview) Reset() {
	pngBytes := placeholder()
	swap(v.captureLabel, &v.prevCapturePhoto, pngBytes)
	swap(v.detectionLabel, &v.prevDetectionPhoto, pngBytes)
}
