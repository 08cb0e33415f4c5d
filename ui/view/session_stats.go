package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows how long the current spill has been in view, the
// mission total and the number of distinct sightings.
type SessionStats interface {
	SetSession(d time.Duration)
	SetTotal(d time.Duration)
	SetSightings(n int)
}

type sessionStats struct {
	sessionLbl   *LabelWidget
	totalLbl     *LabelWidget
	sightingsLbl *LabelWidget
}

// NewSessionStats creates the spill and total duration labels at
// (row, startCol) and (row, startCol+1), and the sightings counter below
// the spill label. If parent is nil, labels are positioned relative to the
// App root.
func NewSessionStats(parent *FrameWidget, row, startCol int) SessionStats {
	s := &sessionStats{sessionLbl: Label(Width(14)), totalLbl: Label(Width(16)), sightingsLbl: Label(Width(14))}
	if parent != nil {
		Grid(s.sessionLbl, In(parent), Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
		Grid(s.totalLbl, In(parent), Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
		Grid(s.sightingsLbl, In(parent), Row(row+1), Column(startCol), Sticky("w"), Padx("0.2m"))
	} else {
		Grid(s.sessionLbl, Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
		Grid(s.totalLbl, Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
		Grid(s.sightingsLbl, Row(row+1), Column(startCol), Sticky("w"), Padx("0.2m"))
	}
	s.sessionLbl.Configure(Txt("Spill: 00:00"))
	s.totalLbl.Configure(Txt("In view: 00:00"))
	s.sightingsLbl.Configure(Txt(SightingsText(0)))
	return s
}

// SightingsText formats the sightings counter label.
func SightingsText(n int) string { return fmt.Sprintf("Sightings: %d", n) }

func mmss(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// SetSession updates the current spill duration display.
func (s *sessionStats) SetSession(d time.Duration) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt("Spill: " + mmss(d)))
}

// SetTotal updates the accumulated in-view duration display.
func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt("In view: " + mmss(d)))
}

// SetSightings updates the distinct spill sightings counter.
func (s *sessionStats) SetSightings(n int) {
	if s == nil || s.sightingsLbl == nil {
		return
	}
	s.sightingsLbl.Configure(Txt(SightingsText(n)))
}
