package telemetry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/soocke/sputnik-relay/domain/link"
)

// Reader modes.
const (
	ModeIdle      = "idle"
	ModeSerial    = "serial"
	ModeSimulated = "simulated"
)

// OpenFunc opens the first usable port among paths.
type OpenFunc func(paths []string, opts link.Options, logger *slog.Logger) (link.Port, string, error)

// ReaderOptions configure the background reader.
type ReaderOptions struct {
	Ports            []string
	Link             link.Options
	PollInterval     time.Duration
	SimulateInterval time.Duration
	Open             OpenFunc
	Rand             *rand.Rand
	Now              func() time.Time
}

func DefaultReaderOptions() ReaderOptions {
	lo := link.DefaultOptions()
	lo.Settle = 0
	return ReaderOptions{
		Ports:            []string{"/dev/ttyUSB0", "/dev/ttyACM0", "/dev/tty.usbserial-1410", "COM3"},
		Link:             lo,
		PollInterval:     100 * time.Millisecond,
		SimulateInterval: 5 * time.Second,
	}
}

// Reader feeds a Cell from the first telemetry port that opens, or from
// simulated values when none does or the port fails.
type Reader struct {
	opts   ReaderOptions
	cell   *Cell
	logger *slog.Logger
	mode   atomic.Value // string
	lines  atomic.Uint64
}

func NewReader(cell *Cell, opts ReaderOptions, logger *slog.Logger) *Reader {
	def := DefaultReaderOptions()
	if len(opts.Ports) == 0 {
		opts.Ports = def.Ports
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.SimulateInterval <= 0 {
		opts.SimulateInterval = def.SimulateInterval
	}
	if opts.Open == nil {
		opts.Open = link.OpenFirst
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reader{opts: opts, cell: cell, logger: logger}
	r.mode.Store(ModeIdle)
	return r
}

// Mode reports where snapshots currently come from.
func (r *Reader) Mode() string { return r.mode.Load().(string) }

// Lines is the number of telemetry lines applied from the port.
func (r *Reader) Lines() uint64 { return r.lines.Load() }

// Run blocks until ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	port, path, err := r.opts.Open(r.opts.Ports, r.opts.Link, r.logger)
	if err != nil {
		r.logger.Warn("telemetry port not found, using simulated data", "error", err)
		return r.simulate(ctx)
	}
	r.mode.Store(ModeSerial)
	r.logger.Info("telemetry connected", "port", path)
	err = r.poll(ctx, port)
	port.Close()
	if err == nil {
		return nil
	}
	r.logger.Warn("telemetry link failed, using simulated data", "port", path, "error", err)
	return r.simulate(ctx)
}

// poll returns nil on cancellation and the link error otherwise.
func (r *Reader) poll(ctx context.Context, port link.Port) error {
	t := time.NewTicker(r.opts.PollInterval)
	defer t.Stop()
	for {
		n, err := port.Available()
		if err != nil {
			return err
		}
		if n > 0 {
			line, err := port.ReadLine()
			if err != nil {
				return err
			}
			r.apply(strings.TrimSpace(line))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (r *Reader) apply(line string) {
	if line == "" {
		return
	}
	reading, err := Parse(line, r.opts.Now())
	if err != nil {
		r.logger.Warn("telemetry line dropped", "line", line, "error", err)
		return
	}
	r.cell.Update(func(s Snapshot) Snapshot { return s.Apply(reading) })
	r.lines.Add(1)
}

var statuses = []string{"Active", "Inactive", "Maintenance"}

// Simulate produces one random snapshot in the ranges a healthy satellite
// reports.
func Simulate(rng *rand.Rand, at time.Time) Snapshot {
	return Snapshot{
		Timestamp:      at,
		SatelliteID:    1 + rng.IntN(6),
		Temperature:    uniform(rng, -20, 50),
		Battery:        uniform(rng, 3.0, 4.2),
		SignalStrength: uniform(rng, -80, -30),
		Altitude:       uniform(rng, 480, 600),
		Speed:          uniform(rng, 7.5, 7.8),
		Status:         statuses[rng.IntN(len(statuses))],
		Simulated:      true,
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return math.Round((lo+rng.Float64()*(hi-lo))*100) / 100
}

func (r *Reader) simulate(ctx context.Context) error {
	r.mode.Store(ModeSimulated)
	t := time.NewTicker(r.opts.SimulateInterval)
	defer t.Stop()
	for {
		r.cell.Store(Simulate(r.opts.Rand, r.opts.Now()))
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
