//go:build linux

package link

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// serialPort is a raw 8N1 tty. Reads use VMIN=0/VTIME so a read returns
// after the configured inactivity timeout instead of blocking forever.
type serialPort struct {
	fd        int
	lines     *lineReader
	closeOnce sync.Once
	closeErr  error
}

func openSerial(opts Options) (*serialPort, error) {
	speed, ok := baudRates[opts.Baud]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate %d", opts.Baud)
	}
	fd, err := unix.Open(opts.Path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Ispeed = speed
	t.Ospeed = speed
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = vtime(opts.ReadTimeout)
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, err
	}
	_ = unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)
	p := &serialPort{fd: fd}
	p.lines = newLineReader(timedReader{fd: fd})
	return p, nil
}

// vtime converts d to tenths of a second, clamped to the 1..255 range the
// termios field holds.
func vtime(d time.Duration) uint8 {
	ds := d / (100 * time.Millisecond)
	switch {
	case ds < 1:
		return 1
	case ds > 255:
		return 255
	}
	return uint8(ds)
}

type timedReader struct{ fd int }

func (r timedReader) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(r.fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, errReadTimeout
		}
		return n, nil
	}
}

func (p *serialPort) Available() (int, error) {
	n, err := unix.IoctlGetInt(p.fd, unix.TIOCINQ)
	if err != nil {
		return 0, err
	}
	return n + p.lines.buffered(), nil
}

func (p *serialPort) ReadLine() (string, error) { return p.lines.readLine() }

func (p *serialPort) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := unix.Write(p.fd, b[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (p *serialPort) Close() error {
	p.closeOnce.Do(func() { p.closeErr = unix.Close(p.fd) })
	return p.closeErr
}
