// Package link is the byte channel to the companion microcontroller.
package link

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Port is a half-duplex, line-oriented byte channel.
type Port interface {
	io.Writer
	// Available reports how many inbound bytes can be read without blocking.
	Available() (int, error)
	// ReadLine reads up to and excluding the next '\n', waiting at most the
	// port read timeout. On timeout it returns whatever arrived, possibly "".
	ReadLine() (string, error)
	Close() error
}

// Options describe how to open a serial device.
type Options struct {
	Path        string
	Baud        int
	ReadTimeout time.Duration
	// Settle is slept after opening; boards that reset on DTR need it.
	Settle time.Duration
}

// DefaultOptions: /dev/ttyUSB0 at 9600 baud, 1 s read timeout, 2 s settle.
func DefaultOptions() Options {
	return Options{Path: "/dev/ttyUSB0", Baud: 9600, ReadTimeout: time.Second, Settle: 2 * time.Second}
}

var sleep = time.Sleep

// Open opens the serial device described by opts and waits for it to settle.
func Open(opts Options, logger *slog.Logger) (Port, error) {
	p, err := openSerial(opts)
	if err != nil {
		return nil, errs.Wrap(errs.KindLink, "open", "open "+opts.Path, err)
	}
	if opts.Settle > 0 {
		sleep(opts.Settle)
	}
	if logger != nil {
		logger.Info("serial link established", "port", opts.Path, "baud", opts.Baud)
	}
	return p, nil
}

// OpenFirst tries each path in order and returns the first port that opens
// together with its path.
func OpenFirst(paths []string, opts Options, logger *slog.Logger) (Port, string, error) {
	var failures []error
	for _, path := range paths {
		o := opts
		o.Path = path
		p, err := Open(o, logger)
		if err == nil {
			return p, path, nil
		}
		if logger != nil {
			logger.Debug("serial candidate unavailable", "port", path, "error", err)
		}
		failures = append(failures, err)
	}
	return nil, "", errs.Wrap(errs.KindLink, "open_first", "no candidate port opened", errors.Join(failures...))
}

// errReadTimeout is returned by timed readers when the timeout expires
// without data; lineReader turns it into a short read.
var errReadTimeout = errors.New("read timeout")

// lineReader assembles lines from a reader whose Read returns
// errReadTimeout when nothing arrives in time.
type lineReader struct {
	br *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader { return &lineReader{br: bufio.NewReaderSize(r, 512)} }

func (l *lineReader) buffered() int { return l.br.Buffered() }

func (l *lineReader) readLine() (string, error) {
	s, err := l.br.ReadString('\n')
	if err != nil && !errors.Is(err, errReadTimeout) {
		return strings.TrimRight(s, "\r\n"), err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
