//go:build !linux

package link

import (
	"fmt"
	"runtime"
)

type serialPort struct{ Port }

func openSerial(opts Options) (*serialPort, error) {
	return nil, fmt.Errorf("serial ports are not supported on %s", runtime.GOOS)
}
