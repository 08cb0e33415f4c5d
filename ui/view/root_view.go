package view

import (
	"image"
	"log/slog"
	"time"

	"github.com/soocke/sputnik-relay/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the diagnostics window layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	logger *slog.Logger

	// Subviews
	Session     SessionStats
	CapturePrev CapturePreview

	// Widgets
	StatusLabel   *LabelWidget
	HeadlineLabel *LabelWidget
}

// UI abstracts the subset of view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	SetStatus(text string)
	SetHeadline(text string, alert bool)
	UpdateCapture(img image.Image)
	UpdateDetection(img image.Image)
	SetSession(session, total time.Duration)
	SetSightings(n int)
	PreviewReset()
}

var _ UI = (*RootView)(nil)

func NewRootView(logger *slog.Logger) *RootView {
	return &RootView{logger: logger}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(onTogglePreview func(), onExit func()) {
	if rv == nil {
		return
	}
	pal := theme.CurrentPalette()

	// Row 0: spill durations, status, buttons
	rv.Session = NewSessionStats(nil, 0, 0)
	rv.StatusLabel = Label(Txt("Frame 0"), Borderwidth(1), Relief("ridge"), Width(44))
	Grid(rv.StatusLabel, Row(0), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(3), Rowspan(2), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	previewBtn := TButton(Txt("Toggle Preview"), Style(theme.StylePrimaryButton), Command(onTogglePreview))
	Grid(previewBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	exitBtn := TButton(Txt("End Mission [Esc]"), Style(theme.StyleDangerButton), Command(onExit))
	Grid(exitBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	// Row 1: sightings (from the session stats), headline
	rv.HeadlineLabel = Label(Txt(""), Foreground(pal.Accent))
	Grid(rv.HeadlineLabel, Row(1), Column(1), Columnspan(2), Sticky("w"), Padx("0.4m"), Pady("0.3m"))

	// Row 2: satellite view and detection mask
	rv.CapturePrev = NewCapturePreview(2)
}

// SetStatus updates the status label text.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}

// SetHeadline shows the alert headline in red, or the monitoring headline in green.
func (rv *RootView) SetHeadline(text string, alert bool) {
	if rv == nil || rv.HeadlineLabel == nil {
		return
	}
	pal := theme.CurrentPalette()
	fg := pal.Accent
	if alert {
		fg = pal.Danger
	}
	rv.HeadlineLabel.Configure(Txt(text), Foreground(fg))
}

// UpdateCapture proxies to underlying capture preview view.
func (rv *RootView) UpdateCapture(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateCapture(img)
	}
}

// UpdateDetection proxies to underlying capture preview view.
func (rv *RootView) UpdateDetection(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateDetection(img)
	}
}

// SetSession updates both spill episode and total durations.
func (rv *RootView) SetSession(session, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(session)
	rv.Session.SetTotal(total)
}

// SetSightings updates the spill sightings counter.
func (rv *RootView) SetSightings(n int) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetSightings(n)
	}
}

// PreviewReset clears the preview canvases.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.Reset()
	}
}
