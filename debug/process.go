package debug

// Process memory/CPU logger. RSS next to Go heap stats separates native
// growth (OpenCV mats, sqlite) from heap growth.

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSample is one reading of the current process.
type ProcessSample struct {
	RSS        uint64
	CPUPercent float64
	Threads    int32
	HeapAlloc  uint64
	HeapInuse  uint64
	NumGC      uint32
}

// SampleProcess reads RSS, CPU and thread count via gopsutil plus Go heap
// statistics. Fields gopsutil cannot read are left zero and the first
// failure is returned alongside the partial sample.
func SampleProcess(p *process.Process) (ProcessSample, error) {
	var s ProcessSample
	var firstErr error
	if mi, err := p.MemoryInfo(); err == nil {
		s.RSS = mi.RSS
	} else {
		firstErr = err
	}
	if cpu, err := p.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	} else if firstErr == nil {
		firstErr = err
	}
	if n, err := p.NumThreads(); err == nil {
		s.Threads = n
	} else if firstErr == nil {
		firstErr = err
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc, s.HeapInuse, s.NumGC = ms.HeapAlloc, ms.HeapInuse, ms.NumGC
	return s, firstErr
}

// RunProcessLogger logs a ProcessSample every interval until ctx is
// cancelled. Sampling errors are logged once.
func RunProcessLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn("memlog: process handle unavailable", slog.String("err", err.Error()))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var errLogged bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s, err := SampleProcess(p)
		if err != nil && !errLogged {
			logger.Warn("memlog: process sample incomplete", slog.String("err", err.Error()))
			errLogged = true
		}
		logger.Info("memstats",
			slog.Int("goroutines", runtime.NumGoroutine()),
			slog.Uint64("rss", s.RSS),
			slog.Float64("cpu_percent", s.CPUPercent),
			slog.Int("threads", int(s.Threads)),
			slog.Uint64("heap_alloc", s.HeapAlloc),
			slog.Uint64("heap_inuse", s.HeapInuse),
			slog.Uint64("num_gc", uint64(s.NumGC)),
		)
	}
}

// Start runs both loggers in the background until ctx is cancelled.
func Start(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	go RunGoroutineLogger(ctx, interval, logger)
	go RunProcessLogger(ctx, interval, logger)
}
