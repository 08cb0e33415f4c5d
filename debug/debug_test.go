package debug

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSampleProcess_ReportsRSS(t *testing.T) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		t.Skipf("process handle unavailable: %v", err)
	}
	s, err := SampleProcess(p)
	if err != nil {
		t.Skipf("sampling unsupported here: %v", err)
	}
	if s.RSS == 0 || s.HeapAlloc == 0 {
		t.Fatalf("expected non-zero rss and heap, got %+v", s)
	}
}

func TestGoroutineLogger_StopsOnCancel(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunGoroutineLogger(ctx, 5*time.Millisecond, logger)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "goroutine-stacks") {
		if time.Now().After(deadline) {
			t.Fatalf("no log line emitted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("logger did not stop")
	}
}
