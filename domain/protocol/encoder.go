package protocol

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Pacing is the delay after each message kind. The receiver has no flow
// control, so these delays are the only backpressure.
type Pacing struct {
	AfterStart time.Duration
	AfterChunk time.Duration
	AfterEnd   time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{AfterStart: 10 * time.Millisecond, AfterChunk: 5 * time.Millisecond, AfterEnd: 10 * time.Millisecond}
}

func (p Pacing) after(m Message) time.Duration {
	switch m.(type) {
	case ImageStart:
		return p.AfterStart
	case ImageChunk:
		return p.AfterChunk
	case ImageEnd:
		return p.AfterEnd
	}
	return 0
}

// Transmission summarises one image send.
type Transmission struct {
	Bytes  int
	Chunks int
	Lines  int // lines actually written, including start/end
}

// Encoder writes framed messages to the link. A nil Encoder, or one built
// over a nil writer, accepts every send as a no-op so callers need no
// special case for a missing link.
type Encoder struct {
	w         io.Writer
	pacing    Pacing
	chunkSize int
	sleep     func(time.Duration)
	progress  func(written, total int)
	logger    *slog.Logger
}

type Option func(*Encoder)

func WithPacing(p Pacing) Option { return func(e *Encoder) { e.pacing = p } }

func WithChunkSize(n int) Option {
	return func(e *Encoder) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithSleep replaces time.Sleep, mainly for tests.
func WithSleep(fn func(time.Duration)) Option { return func(e *Encoder) { e.sleep = fn } }

// WithProgress reports after every written line of a sequence.
func WithProgress(fn func(written, total int)) Option { return func(e *Encoder) { e.progress = fn } }

func WithLogger(l *slog.Logger) Option { return func(e *Encoder) { e.logger = l } }

func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	e := &Encoder{w: w, pacing: DefaultPacing(), chunkSize: DefaultChunkSize, sleep: time.Sleep}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Encoder) active() bool { return e != nil && e.w != nil }

// Send writes msgs in order, pausing after each per the pacing. The first
// failed write aborts the rest and is returned with the count written.
func (e *Encoder) Send(msgs ...Message) (int, error) {
	if !e.active() {
		return 0, nil
	}
	for i, m := range msgs {
		if _, err := io.WriteString(e.w, m.Line()); err != nil {
			return i, errs.Wrap(errs.KindProtocol, "send", fmt.Sprintf("write line %d of %d", i+1, len(msgs)), err)
		}
		if e.progress != nil {
			e.progress(i+1, len(msgs))
		}
		if d := e.pacing.after(m); d > 0 {
			e.sleep(d)
		}
	}
	return len(msgs), nil
}

// SendImage frames and writes an encoded image.
func (e *Encoder) SendImage(buf []byte) (Transmission, error) {
	tx := Transmission{Bytes: len(buf)}
	if !e.active() {
		return tx, nil
	}
	msgs := ImageMessages(buf, e.chunkSize)
	tx.Chunks = len(msgs) - 2
	n, err := e.Send(msgs...)
	tx.Lines = n
	if err != nil {
		return tx, err
	}
	if e.logger != nil {
		e.logger.Info("image sent", "bytes", tx.Bytes, "chunks", tx.Chunks)
	}
	return tx, nil
}

// SendAlert writes a single zone alert line.
func (e *Encoder) SendAlert(ratio float64, frameIndex uint64) error {
	msg := ZoneAlert{AreaRatio: ratio, FrameIndex: frameIndex}
	if _, err := e.Send(msg); err != nil {
		return err
	}
	if e.active() && e.logger != nil {
		e.logger.Info("zone alert sent", "area_ratio", ratio, "frame", frameIndex)
	}
	return nil
}
