// Package control runs the onboard mission loop: capture, detect, relay
// alerts and images over the link, and answer inbound commands.
package control

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/sputnik-relay/domain/capture"
	"github.com/soocke/sputnik-relay/domain/link"
	"github.com/soocke/sputnik-relay/domain/protocol"
	"github.com/soocke/sputnik-relay/domain/spill"
	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Deps are the collaborators of a Controller. Port may be nil, in which
// case the controller runs detection-only and every send is a no-op.
type Deps struct {
	Source   capture.Source
	Detector spill.Detector
	Codec    ImageEncoder
	Port     link.Port
	Actuator Actuator
	Bus      Publisher
	Sinks    []DiagnosticsSink
	Logger   *slog.Logger
}

// Options tune loop timing.
type Options struct {
	Cooldown       time.Duration
	HeartbeatEvery uint64 // frames; 0 disables the heartbeat
	ChunkSize      int
	Pacing         protocol.Pacing
	RunID          string
	Now            func() time.Time
	Sleep          func(time.Duration)
}

func DefaultOptions() Options {
	return Options{
		Cooldown:       5 * time.Second,
		HeartbeatEvery: 900,
		ChunkSize:      protocol.DefaultChunkSize,
		Pacing:         protocol.DefaultPacing(),
	}
}

// Stats is a point-in-time copy of the controller counters. It is safe to
// request from any goroutine.
type Stats struct {
	RunID     string    `json:"run_id"`
	Phase     string    `json:"phase"`
	Frames    uint64    `json:"frames"`
	Alerts    uint64    `json:"alerts"`
	Images    uint64    `json:"images"`
	Commands  uint64    `json:"commands"`
	LinkOpen  bool      `json:"link_open"`
	LastRatio float64   `json:"last_ratio"`
	LastAlert time.Time `json:"last_alert"`
}

// Controller owns the frame source and the link for the mission lifetime.
// Step is not safe for concurrent use; Stats, Stop and Close are.
type Controller struct {
	deps   Deps
	opts   Options
	enc    *protocol.Encoder
	logger *slog.Logger
	state  State

	frames    atomic.Uint64
	alerts    atomic.Uint64
	images    atomic.Uint64
	commands  atomic.Uint64
	lastRatio atomic.Uint64 // float64 bits
	lastAlert atomic.Int64  // unix nanos, 0 when unset
	phase     atomic.Int32

	stopped   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New wires a controller. Zero option fields fall back to DefaultOptions.
func New(deps Deps, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Cooldown <= 0 {
		opts.Cooldown = def.Cooldown
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.Pacing == (protocol.Pacing{}) {
		opts.Pacing = def.Pacing
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", opts.RunID)
	if deps.Actuator == nil {
		deps.Actuator = LogActuator{Logger: logger}
	}
	c := &Controller{deps: deps, opts: opts, logger: logger}
	c.state.LinkOpen = deps.Port != nil
	if deps.Port != nil {
		c.enc = protocol.NewEncoder(deps.Port,
			protocol.WithPacing(opts.Pacing),
			protocol.WithChunkSize(opts.ChunkSize),
			protocol.WithSleep(opts.Sleep),
			protocol.WithLogger(logger),
		)
	} else {
		logger.Warn("no serial link, running detection-only")
	}
	return c
}

// AddSink registers a diagnostics sink. Call it before the loop starts.
func (c *Controller) AddSink(s DiagnosticsSink) {
	if s != nil {
		c.deps.Sinks = append(c.deps.Sinks, s)
	}
}

// RunID identifies this mission in logs and the journal.
func (c *Controller) RunID() string { return c.opts.RunID }

// State returns the loop state. Call it from the goroutine driving Step.
func (c *Controller) State() State { return c.state }

// Step runs one loop iteration. The only error it returns is a capture
// failure, which is fatal for the mission.
func (c *Controller) Step(ctx context.Context) error {
	frame, err := c.deps.Source.Read()
	if err != nil {
		return errs.Wrap(errs.KindCapture, "step", "capture frame", err)
	}
	defer capture.RecycleFrame(frame.Image)

	c.state.FrameIndex++
	c.frames.Store(c.state.FrameIndex)

	res := c.deps.Detector.Detect(frame)
	c.lastRatio.Store(math.Float64bits(res.AreaRatio))
	now := c.opts.Now()

	alerted := false
	if res.Detected && (c.state.LastAlert.IsZero() || now.Sub(c.state.LastAlert) > c.opts.Cooldown) {
		c.setPhase(PhaseAlerting)
		c.alert(frame, res.AreaRatio, now)
		alerted = true
	}

	if c.opts.HeartbeatEvery > 0 && c.state.FrameIndex%c.opts.HeartbeatEvery == 0 && c.state.LinkOpen {
		c.logger.Info("heartbeat image", "frame", c.state.FrameIndex)
		c.sendImage(frame, ReasonHeartbeat, now)
	}

	c.pollCommand(ctx, now)
	c.emit(frame, res, alerted, now)
	c.setPhase(PhaseMonitoring)
	return nil
}

func (c *Controller) alert(frame capture.Frame, ratio float64, now time.Time) {
	sent := false
	if c.state.LinkOpen {
		if err := c.enc.SendAlert(ratio, c.state.FrameIndex); err != nil {
			c.logger.Warn("zone alert write failed", "error", err)
		} else {
			sent = true
		}
	}
	c.logger.Info("oil spill detected", "frame", c.state.FrameIndex, "area_ratio", ratio, "sent", sent)
	c.publish(TopicAlert, AlertEvent{RunID: c.opts.RunID, FrameIndex: c.state.FrameIndex, AreaRatio: ratio, Sent: sent, At: now})
	c.sendImage(frame, ReasonAlert, now)

	c.state.LastAlert = now
	c.lastAlert.Store(now.UnixNano())
	c.alerts.Add(1)
}

// sendImage encodes and relays one frame. Failures are logged and
// published; the loop carries on.
func (c *Controller) sendImage(frame capture.Frame, reason string, now time.Time) {
	if !c.state.LinkOpen {
		return
	}
	ev := ImageEvent{RunID: c.opts.RunID, FrameIndex: c.state.FrameIndex, Reason: reason, At: now}
	buf, err := c.deps.Codec.Encode(frame.Image)
	if err != nil {
		c.logger.Warn("image encode failed", "reason", reason, "error", err)
		ev.Err = err.Error()
		c.publish(TopicImage, ev)
		return
	}
	tx, err := c.enc.SendImage(buf)
	ev.Bytes, ev.Chunks = tx.Bytes, tx.Chunks
	if err != nil {
		c.logger.Warn("image relay failed", "reason", reason, "lines", tx.Lines, "error", err)
		ev.Err = err.Error()
	} else {
		c.images.Add(1)
	}
	c.publish(TopicImage, ev)
}

func (c *Controller) pollCommand(ctx context.Context, now time.Time) {
	if !c.state.LinkOpen {
		return
	}
	n, err := c.deps.Port.Available()
	if err != nil {
		c.logger.Warn("link poll failed", "error", err)
		return
	}
	if n <= 0 {
		return
	}
	line, err := c.deps.Port.ReadLine()
	if err != nil {
		c.logger.Warn("link read failed", "error", err)
		return
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	c.logger.Info("command received", "line", line)
	cmd := protocol.Decode(line)
	c.commands.Add(1)
	c.publish(TopicCommand, CommandEvent{RunID: c.opts.RunID, Kind: cmd.Name(), Raw: line, At: now})
	c.dispatch(ctx, cmd, now)
}

func (c *Controller) dispatch(ctx context.Context, cmd protocol.Command, now time.Time) {
	switch cmd := cmd.(type) {
	case protocol.Rotate:
		if err := c.deps.Actuator.Rotate(ctx, cmd.X, cmd.Y, cmd.Z); err != nil {
			c.logger.Warn("rotation failed", "error", err)
		}
	case protocol.TakePhoto:
		photo, err := c.deps.Source.Read()
		if err != nil {
			c.logger.Warn("photo capture failed", "error", err)
			return
		}
		c.sendImage(photo, ReasonPhoto, now)
		capture.RecycleFrame(photo.Image)
	case protocol.SystemReset:
		c.logger.Info("system reset requested")
	case protocol.Unrecognized:
		c.logger.Debug("unrecognized command dropped", "line", cmd.Raw)
	}
}

func (c *Controller) emit(frame capture.Frame, res spill.Result, alerted bool, now time.Time) {
	d := Diagnostics{
		FrameIndex: c.state.FrameIndex,
		AreaRatio:  res.AreaRatio,
		Detected:   res.Detected,
		Alerted:    alerted,
		Status:     StatusClear,
		Frame:      frame.Image,
		Mask:       res.Mask,
		At:         now,
	}
	switch {
	case alerted:
		d.Headline = HeadlineAlert
	case !res.Detected:
		d.Headline = HeadlineMonitoring
	}
	if res.Detected {
		d.Status = StatusDetected
	}
	c.logger.Debug("frame processed", "frame", d.FrameIndex, "area_ratio", d.AreaRatio, "status", d.Status)
	for _, s := range c.deps.Sinks {
		s.Diagnostics(d)
	}
}

func (c *Controller) publish(topic string, ev interface{}) {
	if c.deps.Bus != nil {
		c.deps.Bus.Publish(topic, ev)
	}
}

func (c *Controller) setPhase(p Phase) {
	c.state.Phase = p
	c.phase.Store(int32(p))
}

// Run steps until ctx is cancelled, Stop is called or capture fails, then
// closes the controller. Only a capture failure is returned.
func (c *Controller) Run(ctx context.Context) error {
	defer c.Close()
	c.logger.Info("mission started", "link_open", c.state.LinkOpen, "cooldown", c.opts.Cooldown, "heartbeat_every", c.opts.HeartbeatEvery)
	for {
		if ctx.Err() != nil {
			c.logger.Info("mission interrupted", "frames", c.state.FrameIndex)
			return nil
		}
		if c.stopped.Load() {
			c.logger.Info("mission stopped", "frames", c.state.FrameIndex)
			return nil
		}
		if err := c.Step(ctx); err != nil {
			c.logger.Error("capture failed, ending mission", "frames", c.state.FrameIndex, "error", err)
			return err
		}
	}
}

// Stop asks Run to return after the current iteration.
func (c *Controller) Stop() { c.stopped.Store(true) }

// Stopped reports whether Stop has been called.
func (c *Controller) Stopped() bool { return c.stopped.Load() }

// Close releases the source and the link exactly once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.setPhase(PhaseShuttingDown)
		c.stopped.Store(true)
		var errList []error
		if c.deps.Source != nil {
			if err := c.deps.Source.Close(); err != nil {
				errList = append(errList, errs.Wrap(errs.KindCapture, "close", "release frame source", err))
			}
		}
		if c.deps.Port != nil {
			if err := c.deps.Port.Close(); err != nil {
				errList = append(errList, errs.Wrap(errs.KindLink, "close", "release serial link", err))
			}
		}
		c.closeErr = errors.Join(errList...)
		c.logger.Info("mission resources released")
	})
	return c.closeErr
}

// Stats returns the current counters.
func (c *Controller) Stats() Stats {
	s := Stats{
		RunID:     c.opts.RunID,
		Phase:     Phase(c.phase.Load()).String(),
		Frames:    c.frames.Load(),
		Alerts:    c.alerts.Load(),
		Images:    c.images.Load(),
		Commands:  c.commands.Load(),
		LinkOpen:  c.deps.Port != nil,
		LastRatio: math.Float64frombits(c.lastRatio.Load()),
	}
	if ns := c.lastAlert.Load(); ns != 0 {
		s.LastAlert = time.Unix(0, ns)
	}
	return s
}
