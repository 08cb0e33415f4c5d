// Package journal persists mission events (alerts, image relays and
// commands) to a local sqlite database.
package journal

import (
	"context"
	"log/slog"

	evbus "github.com/asaskevich/EventBus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soocke/sputnik-relay/domain/control"
	"github.com/soocke/sputnik-relay/platform/errors"
)

// Journal records controller events.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger

	onAlert   func(control.AlertEvent)
	onImage   func(control.ImageEvent)
	onCommand func(control.CommandEvent)
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string, log *slog.Logger) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.open", "failed to open database "+path, err)
	}
	return New(db, log)
}

// New wraps an open database and migrates the journal tables.
func New(db *gorm.DB, log *slog.Logger) (*Journal, error) {
	if err := db.AutoMigrate(&Alert{}, &Transmission{}, &Command{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.migrate", "failed to migrate tables", err)
	}
	// Bus handlers for different topics write concurrently; sqlite wants a
	// single writer connection.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if log == nil {
		log = slog.Default()
	}
	j := &Journal{db: db, logger: log}
	j.onAlert = func(ev control.AlertEvent) { j.logErr(j.RecordAlert(context.Background(), ev)) }
	j.onImage = func(ev control.ImageEvent) { j.logErr(j.RecordImage(context.Background(), ev)) }
	j.onCommand = func(ev control.CommandEvent) { j.logErr(j.RecordCommand(context.Background(), ev)) }
	return j, nil
}

func (j *Journal) logErr(err error) {
	if err != nil {
		j.logger.Warn("journal write failed", "error", err)
	}
}

// Attach subscribes the journal to the controller topics. Writes happen on
// the bus's async goroutines, one at a time per topic.
func (j *Journal) Attach(bus evbus.Bus) error {
	subs := []struct {
		topic string
		fn    interface{}
	}{
		{control.TopicAlert, j.onAlert},
		{control.TopicImage, j.onImage},
		{control.TopicCommand, j.onCommand},
	}
	for _, s := range subs {
		if err := bus.SubscribeAsync(s.topic, s.fn, true); err != nil {
			return errors.Wrap(errors.KindStorage, "journal.attach", "subscribe "+s.topic, err)
		}
	}
	return nil
}

// Detach removes the journal subscriptions.
func (j *Journal) Detach(bus evbus.Bus) {
	_ = bus.Unsubscribe(control.TopicAlert, j.onAlert)
	_ = bus.Unsubscribe(control.TopicImage, j.onImage)
	_ = bus.Unsubscribe(control.TopicCommand, j.onCommand)
}

func (j *Journal) RecordAlert(ctx context.Context, ev control.AlertEvent) error {
	row := Alert{RunID: ev.RunID, FrameIndex: ev.FrameIndex, AreaRatio: ev.AreaRatio, Sent: ev.Sent, At: ev.At}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "journal.alert", "failed to save alert", err)
	}
	return nil
}

func (j *Journal) RecordImage(ctx context.Context, ev control.ImageEvent) error {
	row := Transmission{
		RunID:      ev.RunID,
		FrameIndex: ev.FrameIndex,
		Reason:     ev.Reason,
		Bytes:      ev.Bytes,
		Chunks:     ev.Chunks,
		Error:      ev.Err,
		At:         ev.At,
	}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "journal.image", "failed to save transmission", err)
	}
	return nil
}

func (j *Journal) RecordCommand(ctx context.Context, ev control.CommandEvent) error {
	row := Command{RunID: ev.RunID, Kind: ev.Kind, Raw: ev.Raw, At: ev.At}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "journal.command", "failed to save command", err)
	}
	return nil
}

// Recent lists up to n alerts, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Alert, error) {
	if n <= 0 {
		n = 50
	}
	var rows []Alert
	if err := j.db.WithContext(ctx).Order("at desc, id desc").Limit(n).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.recent", "failed to list alerts", err)
	}
	return rows, nil
}

// Transmissions lists up to n image relays, newest first.
func (j *Journal) Transmissions(ctx context.Context, n int) ([]Transmission, error) {
	if n <= 0 {
		n = 50
	}
	var rows []Transmission
	if err := j.db.WithContext(ctx).Order("at desc, id desc").Limit(n).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.transmissions", "failed to list transmissions", err)
	}
	return rows, nil
}

// Commands lists the commands of a run, oldest first.
func (j *Journal) Commands(ctx context.Context, runID string) ([]Command, error) {
	var rows []Command
	if err := j.db.WithContext(ctx).Where("run_id = ?", runID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.commands", "failed to list commands", err)
	}
	return rows, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.close", "failed to get sql db", err)
	}
	return sqlDB.Close()
}
