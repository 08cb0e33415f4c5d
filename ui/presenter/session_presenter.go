package presenter

import (
	"time"

	"github.com/soocke/sputnik-relay/ui/model"
)

// SpillState reports whether a spill is currently in view.
type SpillState interface{ SpillInView() bool }

// SessionView displays spill durations and the sightings counter.
type SessionView interface {
	SetSession(session, total time.Duration)
	SetSightings(n int)
}

// SessionPresenter advances the spill-episode clock once per tick. Durations
// are pushed every tick; the sightings counter only when it changes.
type SessionPresenter struct {
	sess  *model.SessionModel
	spill SpillState
	view  SessionView
	shown int // sightings last pushed, -1 before the first tick
}

func NewSessionPresenter(sess *model.SessionModel, spill SpillState, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, spill: spill, view: view, shown: -1}
}

func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.spill == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.spill.SpillInView(), now)
	p.view.SetSession(p.sess.Values())
	if n := p.sess.Episodes(); n != p.shown {
		p.shown = n
		p.view.SetSightings(n)
	}
}

// Sightings is the number of distinct spill episodes seen so far.
func (p *SessionPresenter) Sightings() int {
	if p == nil {
		return 0
	}
	return p.sess.Episodes()
}
