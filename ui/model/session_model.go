package model

import (
	"time"
)

// SessionModel tracks how long the current spill has stayed in view and the
// accumulated time with a spill in view over the mission.
// It is decoupled from the UI; presenters should poll Values() and update views.
// The zero value is ready to use.
type SessionModel struct {
	active              bool
	spillStart          time.Time
	lastSessionDuration time.Duration
	accumulated         time.Duration
	episodes            int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick updates the model with the current detection flag and timestamp.
// Call once per processed frame.
func (m *SessionModel) OnTick(detected bool, now time.Time) {
	if m == nil {
		return
	}
	if detected {
		if !m.active { // clear -> detected
			m.active = true
			m.spillStart = now
			m.lastSessionDuration = 0
			m.episodes++
		}
		m.lastSessionDuration = now.Sub(m.spillStart)
	} else if m.active { // detected -> clear
		m.lastSessionDuration = now.Sub(m.spillStart)
		m.accumulated += m.lastSessionDuration
		m.active = false
	}
}

// Values returns the current episode duration and the total accumulated duration.
// The total includes the ongoing episode when active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.lastSessionDuration
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}

// Episodes is the number of distinct spill sightings so far.
func (m *SessionModel) Episodes() int {
	if m == nil {
		return 0
	}
	return m.episodes
}
