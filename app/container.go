package app

import (
	"errors"
	"log/slog"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"github.com/soocke/sputnik-relay/config"
	"github.com/soocke/sputnik-relay/domain/capture"
	"github.com/soocke/sputnik-relay/domain/capture/camera"
	"github.com/soocke/sputnik-relay/domain/codec"
	"github.com/soocke/sputnik-relay/domain/control"
	"github.com/soocke/sputnik-relay/domain/link"
	"github.com/soocke/sputnik-relay/domain/protocol"
	"github.com/soocke/sputnik-relay/domain/spill"
	"github.com/soocke/sputnik-relay/journal"
	errs "github.com/soocke/sputnik-relay/platform/errors"
	"github.com/soocke/sputnik-relay/server"
)

// Container holds the long-lived services of one mission run.
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	RunID      string
	Bus        evbus.Bus
	Capture    *capture.Service
	Detector   *spill.ThresholdDetector
	Codec      *codec.JPEG
	Port       link.Port // nil when the link could not be opened
	Journal    *journal.Journal
	Controller *control.Controller
	Server     *server.Server
}

// Hooks let callers replace hardware-facing constructors.
type Hooks struct {
	OpenSource func(cfg config.CameraConfig, logger *slog.Logger) (capture.Source, error)
	OpenLink   func(opts link.Options, logger *slog.Logger) (link.Port, error)
}

func (h Hooks) withDefaults() Hooks {
	if h.OpenSource == nil {
		h.OpenSource = OpenSource
	}
	if h.OpenLink == nil {
		h.OpenLink = link.Open
	}
	return h
}

// OpenSource opens the frame source named by cfg.Source.
func OpenSource(cfg config.CameraConfig, logger *slog.Logger) (capture.Source, error) {
	switch cfg.Source {
	case "screen":
		return capture.NewScreen(cfg.ScreenX, cfg.ScreenY, cfg.Width, cfg.Height)
	case "replay":
		return capture.NewReplay(cfg.ReplayDir, cfg.Width, cfg.Height, cfg.Loop)
	case "camera", "":
		return camera.Open(cfg.Device, cfg.Width, cfg.Height, logger)
	default:
		return nil, errs.New(errs.KindConfig, "app.source", "unknown frame source "+cfg.Source)
	}
}

// Thresholds converts the detection section into detector thresholds.
func Thresholds(d config.DetectionConfig) spill.Thresholds {
	return spill.Thresholds{
		MinAreaRatio: d.MinAreaRatio,
		MaxAreaRatio: d.MaxAreaRatio,
		SatMin:       uint8(d.SaturationMin),
		SatMax:       uint8(d.SaturationMax),
		ValMin:       uint8(d.ValueMin),
		ValMax:       uint8(d.ValueMax),
		RBMin:        float32(d.RBMin),
		RBMax:        float32(d.RBMax),
		BlurKernel:   d.BlurKernel,
		MorphKernel:  d.MorphKernel,
	}
}

// LinkOptions converts the serial section into link options.
func LinkOptions(s config.SerialConfig) link.Options {
	return link.Options{
		Path:        s.Port,
		Baud:        s.Baud,
		ReadTimeout: s.ReadTimeout.Std(),
		Settle:      s.Settle.Std(),
	}
}

// ControlOptions converts the relay section into controller options.
func ControlOptions(r config.RelayConfig) control.Options {
	return control.Options{
		Cooldown:       r.Cooldown.Std(),
		HeartbeatEvery: uint64(r.HeartbeatEvery),
		ChunkSize:      r.ChunkSize,
		Pacing: protocol.Pacing{
			AfterStart: r.StartDelay.Std(),
			AfterChunk: r.ChunkDelay.Std(),
			AfterEnd:   r.EndDelay.Std(),
		},
	}
}

// BuildContainer opens the frame source and the link and wires the
// controller. A source that cannot be opened is fatal; a link that cannot be
// opened leaves the controller in detection-only mode. A journal that cannot
// be opened is logged and skipped.
func BuildContainer(cfg *config.Config, logger *slog.Logger, hooks Hooks) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hooks = hooks.withDefaults()
	c := &Container{Config: cfg, RunID: uuid.NewString()}
	c.Logger = logger.With("run_id", c.RunID)

	src, err := hooks.OpenSource(cfg.Camera, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Capture = capture.NewService(src, c.Logger)
	c.Detector = spill.NewThresholdDetector(Thresholds(cfg.Detection))
	c.Codec = codec.NewJPEG(cfg.Relay.ImageWidth, cfg.Relay.ImageHeight, cfg.Relay.JPEGQuality)

	if port, err := hooks.OpenLink(LinkOptions(cfg.Serial), c.Logger); err != nil {
		c.Logger.Warn("serial link unavailable, continuing without relay", "port", cfg.Serial.Port, "error", err)
	} else {
		c.Port = port
	}

	c.Bus = evbus.New()
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, c.Logger)
		if err == nil {
			err = j.Attach(c.Bus)
			if err != nil {
				_ = j.Close()
			}
		}
		if err != nil {
			c.Logger.Warn("journal disabled", "path", cfg.Journal.Path, "error", err)
		} else {
			c.Journal = j
		}
	}

	opts := ControlOptions(cfg.Relay)
	opts.RunID = c.RunID
	c.Controller = control.New(control.Deps{
		Source:   c.Capture,
		Detector: c.Detector,
		Codec:    c.Codec,
		Port:     c.Port,
		Bus:      c.Bus,
		Logger:   logger,
	}, opts)

	if cfg.HTTP.Addr != "" {
		srv := server.Options{
			Addr:         cfg.HTTP.Addr,
			AllowOrigins: cfg.HTTP.AllowOrigins,
			Debug:        cfg.Debug.Enabled,
			Status:       c.Controller,
			Logger:       c.Logger,
		}
		if c.Journal != nil {
			srv.Alerts = c.Journal
		}
		c.Server = server.New(srv)
	}
	return c, nil
}

// Close releases the controller resources, drains pending journal writes
// and closes the database. Safe to call more than once.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var err error
	if c.Controller != nil {
		err = c.Controller.Close()
	}
	if c.Bus != nil {
		c.Bus.WaitAsync()
	}
	if c.Journal != nil {
		c.Journal.Detach(c.Bus)
		err = errors.Join(err, c.Journal.Close())
		c.Journal = nil
	}
	return err
}
