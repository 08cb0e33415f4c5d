package debug

// Goroutine and stack logger, started only when debug is enabled. Useful to
// rule out goroutine growth from bus subscribers or websocket clients.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// RunGoroutineLogger logs goroutine count and stack memory every interval
// until ctx is cancelled.
func RunGoroutineLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		metrics.Read(samples)
		var goroutines uint64
		if samples[0].Value.Kind() == metrics.KindUint64 {
			goroutines = samples[0].Value.Uint64()
		}
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		logger.Info("goroutine-stacks",
			slog.Uint64("goroutines", goroutines),
			slog.Uint64("stack_inuse", ms.StackInuse),
			slog.Uint64("stack_sys", ms.StackSys),
			slog.Uint64("heap_alloc", ms.HeapAlloc),
		)
	}
}
