package presenter

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/soocke/sputnik-relay/domain/control"
	"github.com/soocke/sputnik-relay/ui/model"
)

type mockModel struct{ enabled bool }

func (m *mockModel) Enabled() bool     { return m.enabled }
func (m *mockModel) SetEnabled(b bool) { m.enabled = b }

type mockView struct {
	reset      int
	captures   []image.Image
	detections []image.Image
	status     string
	headline   string
	alert      bool
	session    time.Duration
	total      time.Duration
	sightings  []int
}

func (v *mockView) PreviewReset()                       { v.reset++ }
func (v *mockView) UpdateCapture(img image.Image)       { v.captures = append(v.captures, img) }
func (v *mockView) UpdateDetection(img image.Image)     { v.detections = append(v.detections, img) }
func (v *mockView) SetStatus(text string)               { v.status = text }
func (v *mockView) SetHeadline(text string, alert bool) { v.headline, v.alert = text, alert }
func (v *mockView) SetSession(s, t time.Duration)       { v.session, v.total = s, t }
func (v *mockView) SetSightings(n int)                  { v.sightings = append(v.sightings, n) }

func TestPreviewPresenter_EnableDisable_Idempotent(t *testing.T) {
	m := &mockModel{}
	view := &mockView{}
	p := NewPreviewPresenter(m, view)

	p.Enable()
	p.Enable()
	if !m.Enabled() || view.reset != 0 {
		t.Fatalf("enable failed: enabled=%v reset=%d", m.Enabled(), view.reset)
	}
	p.Disable()
	p.Disable()
	if m.Enabled() || view.reset != 1 {
		t.Fatalf("disable not idempotent: enabled=%v reset=%d", m.Enabled(), view.reset)
	}
}

func TestPreviewPresenter_Toggle(t *testing.T) {
	m := &mockModel{}
	view := &mockView{}
	p := NewPreviewPresenter(m, view)
	p.Toggle()
	if !m.Enabled() {
		t.Fatalf("toggle enable failed")
	}
	p.Toggle()
	if m.Enabled() || view.reset != 1 {
		t.Fatalf("toggle disable failed")
	}
}

func diag(frame uint64, detected, alerted bool) control.Diagnostics {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for i := range img.Pix {
		img.Pix[i] = 0x40
	}
	d := control.Diagnostics{
		FrameIndex: frame,
		AreaRatio:  0.05,
		Detected:   detected,
		Alerted:    alerted,
		Status:     control.StatusClear,
		Frame:      img,
		Mask:       image.NewGray(image.Rect(0, 0, 640, 480)),
	}
	if detected {
		d.Status = control.StatusDetected
	}
	if alerted {
		d.Headline = control.HeadlineAlert
	}
	return d
}

func TestDiagnosticsPresenter_RendersAnnotatedCopy(t *testing.T) {
	dm := &model.DiagnosticsModel{}
	view := &mockView{}
	p := NewDiagnosticsPresenter(dm, &mockModel{enabled: true}, view)

	d := diag(1, true, true)
	p.Diagnostics(d)

	if view.headline != control.HeadlineAlert || !view.alert {
		t.Fatalf("unexpected headline %q alert=%v", view.headline, view.alert)
	}
	if view.status != "Frame 1 | ratio 0.0500 | DETECTED | alerts 1" {
		t.Fatalf("unexpected status %q", view.status)
	}
	if len(view.captures) != 1 || len(view.detections) != 1 {
		t.Fatalf("expected one preview of each kind")
	}
	shot := view.captures[0].(*image.RGBA)
	if b := shot.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("preview not scaled: %v", b)
	}
	if shot == d.Frame {
		t.Fatalf("preview must be a copy of the frame")
	}
	if d.Frame.RGBAAt(10, 5) != (color.RGBA{0x40, 0x40, 0x40, 0x40}) {
		t.Fatalf("source frame was modified by the overlay")
	}
}

func TestDiagnosticsPresenter_PreviewDisabledAndThrottled(t *testing.T) {
	dm := &model.DiagnosticsModel{}
	view := &mockView{}
	preview := &mockModel{}
	p := NewDiagnosticsPresenter(dm, preview, view)

	p.Diagnostics(diag(1, false, false))
	if len(view.captures) != 0 || view.status == "" {
		t.Fatalf("disabled preview should only update status")
	}

	preview.enabled = true
	p.Every = 3
	for f := uint64(2); f <= 7; f++ {
		p.Diagnostics(diag(f, false, false))
	}
	if len(view.captures) != 2 { // frames 3 and 6
		t.Fatalf("expected 2 throttled previews, got %d", len(view.captures))
	}
}

func TestSessionPresenter_TracksSpill(t *testing.T) {
	dm := &model.DiagnosticsModel{}
	view := &mockView{}
	p := NewSessionPresenter(model.NewSessionModel(), dm, view)
	base := time.Unix(100, 0)

	dm.Record(1, 0.1, true, true, control.StatusDetected, control.HeadlineAlert)
	p.Tick(base)
	p.Tick(base.Add(4 * time.Second))
	if view.session != 4*time.Second || view.total != 4*time.Second {
		t.Fatalf("unexpected durations %v %v", view.session, view.total)
	}
	dm.Record(2, 0, false, false, control.StatusClear, control.HeadlineMonitoring)
	p.Tick(base.Add(6 * time.Second))
	if view.total != 6*time.Second {
		t.Fatalf("expected total 6s after clear, got %v", view.total)
	}
}

func TestSessionPresenter_CountsSightingsOnChange(t *testing.T) {
	dm := &model.DiagnosticsModel{}
	view := &mockView{}
	p := NewSessionPresenter(model.NewSessionModel(), dm, view)
	base := time.Unix(200, 0)

	seq := []bool{false, true, true, false, false, true, false}
	for i, detected := range seq {
		status := control.StatusClear
		if detected {
			status = control.StatusDetected
		}
		dm.Record(uint64(i+1), 0.1, detected, false, status, "")
		p.Tick(base.Add(time.Duration(i) * time.Second))
	}
	want := []int{0, 1, 2}
	if len(view.sightings) != len(want) {
		t.Fatalf("expected counter pushes %v, got %v", want, view.sightings)
	}
	for i := range want {
		if view.sightings[i] != want[i] {
			t.Fatalf("expected counter pushes %v, got %v", want, view.sightings)
		}
	}
	if p.Sightings() != 2 {
		t.Fatalf("expected 2 sightings, got %d", p.Sightings())
	}
}

func TestLoop_StepsUntilStopOrError(t *testing.T) {
	steps, scheduled := 0, 0
	var doneErr error
	doneCalls := 0
	stop := false
	l := NewLoop(
		func() error { steps++; return nil },
		func() bool { return stop },
		nil,
		func() { scheduled++ },
		func(err error) { doneCalls++; doneErr = err },
	)
	l.Tick()
	l.Tick()
	stop = true
	l.Tick()
	l.Tick()
	if steps != 2 || scheduled != 2 || doneCalls != 1 || doneErr != nil {
		t.Fatalf("steps=%d scheduled=%d done=%d err=%v", steps, scheduled, doneCalls, doneErr)
	}

	boom := errors.New("capture failed")
	l = NewLoop(func() error { return boom }, nil, nil, func() { scheduled++ }, func(err error) { doneErr = err })
	l.Tick()
	if !errors.Is(doneErr, boom) || scheduled != 2 {
		t.Fatalf("step error should end the loop without rescheduling")
	}

	var nilLoop *Loop
	nilLoop.Tick()
}
