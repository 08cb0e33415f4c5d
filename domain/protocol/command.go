package protocol

import (
	"strconv"
	"strings"
)

// Command is a decoded inbound line.
type Command interface {
	Name() string
}

// Rotate asks for a new attitude target.
type Rotate struct{ X, Y, Z int }

// TakePhoto asks for an immediate image relay.
type TakePhoto struct{}

// SystemReset is acknowledged in the log only.
type SystemReset struct{}

// Unrecognized holds any line that does not match the grammar.
type Unrecognized struct{ Raw string }

func (Rotate) Name() string       { return "rotate" }
func (TakePhoto) Name() string    { return "take_photo" }
func (SystemReset) Name() string  { return "system_reset" }
func (Unrecognized) Name() string { return "unrecognized" }

const rotatePrefix = "ROTATE:"

// Decode parses one line (without its newline). It never fails; anything
// off-grammar, including a ROTATE with the wrong arity or non-integer
// fields, becomes Unrecognized.
func Decode(line string) Command {
	switch line {
	case "TAKE_PHOTO":
		return TakePhoto{}
	case "SYSTEM_RESET":
		return SystemReset{}
	}
	if !strings.HasPrefix(line, rotatePrefix) {
		return Unrecognized{Raw: line}
	}
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return Unrecognized{Raw: line}
	}
	fields := strings.Split(parts[1], ",")
	if len(fields) != 3 {
		return Unrecognized{Raw: line}
	}
	var v [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Unrecognized{Raw: line}
		}
		v[i] = n
	}
	return Rotate{X: v[0], Y: v[1], Z: v[2]}
}
