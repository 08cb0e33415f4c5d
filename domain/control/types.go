package control

import (
	"context"
	"image"
	"log/slog"
	"time"
)

// Phase enumerates the controller's loop phases.
type Phase int

const (
	PhaseMonitoring Phase = iota
	PhaseAlerting
	PhaseShuttingDown
)

func (p Phase) String() string {
	switch p {
	case PhaseMonitoring:
		return "monitoring"
	case PhaseAlerting:
		return "alerting"
	case PhaseShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// State is the loop-owned mission state. Only the goroutine driving Step
// may read it.
type State struct {
	FrameIndex uint64
	// LastAlert is zero until the first alert fires.
	LastAlert time.Time
	Phase     Phase
	LinkOpen  bool
}

// Status values shown in diagnostics.
const (
	StatusDetected = "DETECTED"
	StatusClear    = "CLEAR"

	HeadlineAlert      = "OIL SPILL DETECTED"
	HeadlineMonitoring = "Monitoring..."
)

// Diagnostics is the per-iteration local report. Frame and Mask are only
// valid for the duration of the sink call; sinks copy what they keep.
type Diagnostics struct {
	FrameIndex uint64
	AreaRatio  float64
	Detected   bool
	Alerted    bool
	Status     string
	Headline   string
	Frame      *image.RGBA
	Mask       *image.Gray
	At         time.Time
}

// DiagnosticsSink receives diagnostics synchronously on the loop goroutine.
type DiagnosticsSink interface {
	Diagnostics(Diagnostics)
}

// DiagnosticsFunc adapts a function to DiagnosticsSink.
type DiagnosticsFunc func(Diagnostics)

func (f DiagnosticsFunc) Diagnostics(d Diagnostics) { f(d) }

// Actuator applies attitude targets. Actuation hardware is external; the
// default implementation only logs.
type Actuator interface {
	Rotate(ctx context.Context, x, y, z int) error
}

// LogActuator records rotation targets in the log.
type LogActuator struct{ Logger *slog.Logger }

func (a LogActuator) Rotate(_ context.Context, x, y, z int) error {
	if a.Logger != nil {
		a.Logger.Info("rotation target received", "x", x, "y", y, "z", z)
	}
	return nil
}

// Publisher is the event bus surface the controller needs. EventBus.Bus
// satisfies it.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// ImageEncoder turns a frame into the bytes relayed on the link.
type ImageEncoder interface {
	Encode(img image.Image) ([]byte, error)
}
