package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/sputnik-relay/domain/link"
	errs "github.com/soocke/sputnik-relay/platform/errors"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var at = time.Date(2026, 1, 27, 14, 30, 22, 0, time.UTC)

func TestParse_FullLine(t *testing.T) {
	r, err := Parse("ID:1,T:25.5,B:3.7,S:-45,A:520,V:7.6,STATUS:Active", at)
	require.NoError(t, err)
	assert.Equal(t, AllFields, r.Fields)
	assert.Equal(t, Snapshot{
		Timestamp:      at,
		SatelliteID:    1,
		Temperature:    25.5,
		Battery:        3.7,
		SignalStrength: -45,
		Altitude:       520,
		Speed:          7.6,
		Status:         "Active",
	}, r.Values)
}

func TestParse_PartialAndUnknownKeys(t *testing.T) {
	r, err := Parse("T:12.25,X:99,garbage,STATUS:Safe:Mode", at)
	require.NoError(t, err)
	assert.True(t, r.Fields.Has(FieldTemperature))
	assert.True(t, r.Fields.Has(FieldStatus))
	assert.False(t, r.Fields.Has(FieldID))
	assert.Equal(t, 12.25, r.Values.Temperature)
	assert.Equal(t, "Safe:Mode", r.Values.Status)
}

func TestParse_MalformedNumberRejectsLine(t *testing.T) {
	for _, line := range []string{"ID:one", "T:hot", "ID:1,B:", "V:7.6,A:1e"} {
		_, err := Parse(line, at)
		require.Error(t, err, line)
		assert.True(t, errs.IsKind(err, errs.KindTelemetry), line)
	}
}

func TestSnapshotApply_MergesOnlyCarriedFields(t *testing.T) {
	prev := Snapshot{SatelliteID: 3, Temperature: 20, Battery: 4.0, Status: "Active"}
	r, err := Parse("B:3.3,STATUS:Maintenance", at)
	require.NoError(t, err)
	next := prev.Apply(r)
	assert.Equal(t, 3, next.SatelliteID)
	assert.Equal(t, 20.0, next.Temperature)
	assert.Equal(t, 3.3, next.Battery)
	assert.Equal(t, "Maintenance", next.Status)
	assert.Equal(t, at, next.Timestamp)
}

func TestCell_LoadStoreSubscribe(t *testing.T) {
	c := NewCell()
	_, ok := c.Load()
	assert.False(t, ok)

	ch, cancel := c.Subscribe(2)
	c.Store(Snapshot{SatelliteID: 4})
	got, ok := c.Load()
	require.True(t, ok)
	assert.Equal(t, 4, got.SatelliteID)

	select {
	case s := <-ch:
		assert.Equal(t, 4, s.SatelliteID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive snapshot")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	c.Store(Snapshot{SatelliteID: 5})
}

func TestSimulate_Ranges(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		s := Simulate(rng, at)
		assert.True(t, s.Simulated)
		assert.GreaterOrEqual(t, s.SatelliteID, 1)
		assert.LessOrEqual(t, s.SatelliteID, 6)
		assert.GreaterOrEqual(t, s.Temperature, -20.0)
		assert.LessOrEqual(t, s.Temperature, 50.0)
		assert.GreaterOrEqual(t, s.Battery, 3.0)
		assert.LessOrEqual(t, s.Battery, 4.2)
		assert.GreaterOrEqual(t, s.SignalStrength, -80.0)
		assert.LessOrEqual(t, s.SignalStrength, -30.0)
		assert.GreaterOrEqual(t, s.Altitude, 480.0)
		assert.LessOrEqual(t, s.Altitude, 600.0)
		assert.GreaterOrEqual(t, s.Speed, 7.5)
		assert.LessOrEqual(t, s.Speed, 7.8)
		assert.Contains(t, []string{"Active", "Inactive", "Maintenance"}, s.Status)
	}
}

// scriptedPort serves queued lines and then optionally fails.
type scriptedPort struct {
	mu     sync.Mutex
	lines  []string
	failAt bool
	closed int
}

func (p *scriptedPort) Write(b []byte) (int, error) { return len(b), nil }

func (p *scriptedPort) Available() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lines) == 0 && p.failAt {
		return 0, errors.New("device unplugged")
	}
	return len(p.lines), nil
}

func (p *scriptedPort) ReadLine() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.lines[0]
	p.lines = p.lines[1:]
	return l, nil
}

func (p *scriptedPort) Close() error {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
	return nil
}

func TestReader_SimulatesWhenNoPortOpens(t *testing.T) {
	cell := NewCell()
	r := NewReader(cell, ReaderOptions{
		Ports:            []string{"/dev/none"},
		SimulateInterval: time.Millisecond,
		Open: func([]string, link.Options, *slog.Logger) (link.Port, string, error) {
			return nil, "", errors.New("no such device")
		},
	}, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		s, ok := cell.Load()
		return ok && s.Simulated
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ModeSimulated, r.Mode())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestReader_AppliesPortLinesThenFallsBack(t *testing.T) {
	port := &scriptedPort{lines: []string{
		"ID:2,T:21.5,B:3.9,S:-50,A:530,V:7.6,STATUS:Active\r",
		"T:oops",
		"",
		"B:3.8",
	}, failAt: true}
	cell := NewCell()
	r := NewReader(cell, ReaderOptions{
		PollInterval:     time.Millisecond,
		SimulateInterval: time.Hour,
		Now:              func() time.Time { return at },
		Open: func(paths []string, _ link.Options, _ *slog.Logger) (link.Port, string, error) {
			return port, paths[0], nil
		},
	}, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	require.Eventually(t, func() bool { return r.Mode() == ModeSimulated }, time.Second, time.Millisecond)
	assert.Equal(t, uint64(2), r.Lines())
	port.mu.Lock()
	assert.Equal(t, 1, port.closed)
	port.mu.Unlock()
}

func TestReader_SerialSnapshotMerged(t *testing.T) {
	port := &scriptedPort{lines: []string{"ID:2,T:21.5,STATUS:Active", "B:3.8"}}
	cell := NewCell()
	r := NewReader(cell, ReaderOptions{
		PollInterval: time.Millisecond,
		Now:          func() time.Time { return at },
		Open: func(paths []string, _ link.Options, _ *slog.Logger) (link.Port, string, error) {
			return port, paths[0], nil
		},
	}, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return r.Lines() == 2 }, time.Second, time.Millisecond)
	s, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, 2, s.SatelliteID)
	assert.Equal(t, 21.5, s.Temperature)
	assert.Equal(t, 3.8, s.Battery)
	assert.Equal(t, "Active", s.Status)
	assert.False(t, s.Simulated)
	assert.Equal(t, ModeSerial, r.Mode())

	cancel()
	require.NoError(t, <-done)
}
