package presenter

import "time"

// Loop drives one controller iteration per tick from the Tk event loop and
// then updates the feature presenters.
//
// The zero value is usable (methods are nil-safe).
type Loop struct {
	Step     func() error
	Stopped  func() bool
	Session  *SessionPresenter
	Schedule func()
	// Done is called once when the loop ends, with the step error if any.
	Done func(error)

	finished bool
	now      func() time.Time
}

func NewLoop(step func() error, stopped func() bool, sess *SessionPresenter, schedule func(), done func(error)) *Loop {
	return &Loop{Step: step, Stopped: stopped, Session: sess, Schedule: schedule, Done: done}
}

func (l *Loop) Tick() {
	if l == nil || l.finished {
		return
	}
	if l.Stopped != nil && l.Stopped() {
		l.finish(nil)
		return
	}
	if l.Step != nil {
		if err := l.Step(); err != nil {
			l.finish(err)
			return
		}
	}
	if l.Session != nil {
		now := time.Now
		if l.now != nil {
			now = l.now
		}
		l.Session.Tick(now())
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}

func (l *Loop) finish(err error) {
	l.finished = true
	if l.Done != nil {
		l.Done(err)
	}
}
