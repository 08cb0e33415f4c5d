package control

import "time"

// Event bus topics.
const (
	TopicAlert   = "relay:alert"
	TopicImage   = "relay:image"
	TopicCommand = "relay:command"
)

// Image send reasons.
const (
	ReasonAlert     = "alert"
	ReasonHeartbeat = "heartbeat"
	ReasonPhoto     = "photo"
)

// AlertEvent is published each time a zone alert fires.
type AlertEvent struct {
	RunID      string
	FrameIndex uint64
	AreaRatio  float64
	Sent       bool
	At         time.Time
}

// ImageEvent is published after every image relay attempt.
type ImageEvent struct {
	RunID      string
	FrameIndex uint64
	Reason     string
	Bytes      int
	Chunks     int
	Err        string
	At         time.Time
}

// CommandEvent is published for every non-empty inbound line.
type CommandEvent struct {
	RunID string
	Kind  string
	Raw   string
	At    time.Time
}
