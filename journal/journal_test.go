package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/soocke/sputnik-relay/domain/control"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	dsn := fmt.Sprintf("file:journal-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	j, err := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_RecentOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.RecordAlert(ctx, control.AlertEvent{
			RunID:      "run-a",
			FrameIndex: uint64(i + 1),
			AreaRatio:  0.01 * float64(i+2),
			Sent:       true,
			At:         base.Add(time.Duration(i) * 6 * time.Second),
		}))
	}
	rows, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []uint64{5, 4, 3}, []uint64{rows[0].FrameIndex, rows[1].FrameIndex, rows[2].FrameIndex})
	assert.Equal(t, "run-a", rows[0].RunID)
	assert.InDelta(t, 0.06, rows[0].AreaRatio, 1e-9)
}

func TestJournal_AttachRecordsBusEvents(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)
	bus := evbus.New()
	require.NoError(t, j.Attach(bus))

	now := time.Now().UTC()
	bus.Publish(control.TopicAlert, control.AlertEvent{RunID: "run-b", FrameIndex: 12, AreaRatio: 0.2, At: now})
	bus.Publish(control.TopicImage, control.ImageEvent{RunID: "run-b", FrameIndex: 12, Reason: control.ReasonAlert, Bytes: 4096, Chunks: 64, At: now})
	bus.Publish(control.TopicImage, control.ImageEvent{RunID: "run-b", FrameIndex: 900, Reason: control.ReasonHeartbeat, Err: "write failed", At: now.Add(time.Second)})
	bus.Publish(control.TopicCommand, control.CommandEvent{RunID: "run-b", Kind: "rotate", Raw: "ROTATE:1,2,3", At: now})
	bus.Publish(control.TopicCommand, control.CommandEvent{RunID: "run-b", Kind: "take_photo", Raw: "TAKE_PHOTO", At: now})
	bus.WaitAsync()

	alerts, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, uint64(12), alerts[0].FrameIndex)

	txs, err := j.Transmissions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, control.ReasonHeartbeat, txs[0].Reason)
	assert.Equal(t, "write failed", txs[0].Error)
	assert.Equal(t, 64, txs[1].Chunks)

	cmds, err := j.Commands(ctx, "run-b")
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "rotate", cmds[0].Kind)
	assert.Equal(t, "TAKE_PHOTO", cmds[1].Raw)

	j.Detach(bus)
	bus.Publish(control.TopicCommand, control.CommandEvent{RunID: "run-b", Kind: "system_reset", At: now})
	bus.WaitAsync()
	cmds, err = j.Commands(ctx, "run-b")
	require.NoError(t, err)
	assert.Len(t, cmds, 2)
}

func TestJournal_RecentDefaultLimit(t *testing.T) {
	j := newTestJournal(t)
	rows, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
