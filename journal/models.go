package journal

import "time"

// Alert is one fired zone alert.
type Alert struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RunID      string    `gorm:"type:varchar(36);index" json:"run_id"`
	FrameIndex uint64    `json:"frame_index"`
	AreaRatio  float64   `json:"area_ratio"`
	Sent       bool      `json:"sent"`
	At         time.Time `gorm:"index" json:"at"`
}

// Transmission is one image relay attempt.
type Transmission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RunID      string    `gorm:"type:varchar(36);index" json:"run_id"`
	FrameIndex uint64    `json:"frame_index"`
	Reason     string    `gorm:"type:varchar(16)" json:"reason"`
	Bytes      int       `json:"bytes"`
	Chunks     int       `json:"chunks"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Command is one inbound command line.
type Command struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	RunID string    `gorm:"type:varchar(36);index" json:"run_id"`
	Kind  string    `gorm:"type:varchar(16)" json:"kind"`
	Raw   string    `json:"raw"`
	At    time.Time `json:"at"`
}
