package capture

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// Service wraps a Source with capture instrumentation. It implements Source
// itself so the control loop can use it transparently, and exposes Stats for
// the status endpoint. Stats may be called from any goroutine.
type Service struct {
	src          Source
	logger       *slog.Logger
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	lastCapture  atomic.Int64
	sequence     atomic.Uint64
	lastLog      time.Time
	closeOnce    sync.Once
	closeErr     error
}

// NewService instruments src.
func NewService(src Source, logger *slog.Logger) *Service {
	return &Service{src: src, logger: logger}
}

// Read captures one frame from the wrapped source and stamps it with the
// service sequence number.
func (s *Service) Read() (Frame, error) {
	start := time.Now()
	f, err := s.src.Read()
	if err != nil {
		s.failures.Add(1)
		return Frame{}, err
	}
	elapsed := time.Since(start)
	s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
	s.captures.Add(1)
	f.Sequence = s.sequence.Add(1)
	if f.CapturedAt.IsZero() {
		f.CapturedAt = time.Now()
	}
	s.lastCapture.Store(f.CapturedAt.UnixNano())
	if s.lastLog.IsZero() {
		s.lastLog = start
	} else if start.Sub(s.lastLog) >= captureStatsLogInterval {
		s.lastLog = start
		s.logStats()
	}
	return f, nil
}

// Close closes the wrapped source once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.src.Close() })
	return s.closeErr
}

func (s *Service) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	if ns := s.lastCapture.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Captures:         captures,
		Failures:         s.failures.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      last,
		Sequence:         s.sequence.Load(),
	}
}

func (s *Service) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failures", stats.Failures,
		"avg_capture", stats.AvgCapture,
	)
}
