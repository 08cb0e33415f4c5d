package presenter

// PreviewModel provides enabled state access.
type PreviewModel interface {
	Enabled() bool
	SetEnabled(bool)
}

// PreviewView updates UI elements affected by preview toggling.
type PreviewView interface {
	PreviewReset()
}

// PreviewPresenter owns presentation logic for toggling live previews.
// Disabling previews leaves the mission loop running; only PNG rendering
// stops.
type PreviewPresenter struct {
	model PreviewModel
	view  PreviewView
}

func NewPreviewPresenter(model PreviewModel, view PreviewView) *PreviewPresenter {
	return &PreviewPresenter{model: model, view: view}
}

// Enable turns previews on. Idempotent.
func (p *PreviewPresenter) Enable() {
	if p == nil || p.model == nil {
		return
	}
	p.model.SetEnabled(true)
}

// Disable turns previews off and resets the preview canvases. Idempotent.
func (p *PreviewPresenter) Disable() {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	if !p.model.Enabled() {
		return
	}
	p.model.SetEnabled(false)
	p.view.PreviewReset()
}

// Toggle switches between enabled and disabled.
func (p *PreviewPresenter) Toggle() {
	if p == nil || p.model == nil {
		return
	}
	if p.model.Enabled() {
		p.Disable()
		return
	}
	p.Enable()
}
