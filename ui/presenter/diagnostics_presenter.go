package presenter

import (
	"image"

	"github.com/soocke/sputnik-relay/domain/control"
	"github.com/soocke/sputnik-relay/ui/images"
	"github.com/soocke/sputnik-relay/ui/model"
)

// DiagnosticsView shows the per-frame diagnostics.
type DiagnosticsView interface {
	UpdateCapture(img image.Image)
	UpdateDetection(img image.Image)
	SetStatus(text string)
	SetHeadline(text string, alert bool)
}

// EnabledModel reports whether previews are rendered.
type EnabledModel interface{ Enabled() bool }

const (
	defaultPreviewW = 400
	defaultPreviewH = 300
)

// DiagnosticsPresenter receives controller diagnostics on the loop
// goroutine and renders them. Previews are annotated copies; the frame and
// mask are never retained.
type DiagnosticsPresenter struct {
	model   *model.DiagnosticsModel
	preview EnabledModel
	view    DiagnosticsView
	// Every renders previews on every Nth frame; 0 and 1 render all.
	Every      uint64
	MaxW, MaxH int
}

var _ control.DiagnosticsSink = (*DiagnosticsPresenter)(nil)

func NewDiagnosticsPresenter(m *model.DiagnosticsModel, preview EnabledModel, view DiagnosticsView) *DiagnosticsPresenter {
	return &DiagnosticsPresenter{model: m, preview: preview, view: view, MaxW: defaultPreviewW, MaxH: defaultPreviewH}
}

func (p *DiagnosticsPresenter) Diagnostics(d control.Diagnostics) {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	p.model.Record(d.FrameIndex, d.AreaRatio, d.Detected, d.Alerted, d.Status, d.Headline)
	p.view.SetStatus(p.model.StatusText())
	p.view.SetHeadline(d.Headline, d.Alerted)

	if p.preview == nil || !p.preview.Enabled() {
		return
	}
	if p.Every > 1 && d.FrameIndex%p.Every != 0 {
		return
	}
	if d.Frame != nil {
		shot := images.Clone(images.ScaleToFit(d.Frame, p.MaxW, p.MaxH))
		images.Annotate(shot, images.Overlay{Headline: d.Headline, Alert: d.Alerted, Lines: p.model.Lines()})
		p.view.UpdateCapture(shot)
	}
	if d.Mask != nil {
		p.view.UpdateDetection(images.ScaleToFit(d.Mask, p.MaxW, p.MaxH))
	}
}
