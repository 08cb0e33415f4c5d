package model

import (
	"testing"
	"time"
)

func TestSessionModel_BasicLifecycle(t *testing.T) {
	m := NewSessionModel()
	base := time.Unix(0, 0)

	// Spill appears at t0 and stays 5s.
	m.OnTick(true, base)
	m.OnTick(true, base.Add(5*time.Second))
	session, total := m.Values()
	if session != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s session & total; got session=%v total=%v", session, total)
	}

	// Clears at 5s.
	m.OnTick(false, base.Add(5*time.Second))
	session, total = m.Values()
	if session != 5*time.Second || total != 5*time.Second {
		t.Fatalf("after clear expected persisted 5s; got session=%v total=%v", session, total)
	}

	// Clear frames for 2s (no change expected).
	m.OnTick(false, base.Add(7*time.Second))
	session2, total2 := m.Values()
	if session2 != session || total2 != total {
		t.Fatalf("clear tick should not change durations: before session=%v total=%v after session=%v total=%v", session, total, session2, total2)
	}

	// Second sighting at 10s lasting 3s.
	m.OnTick(true, base.Add(10*time.Second))
	m.OnTick(true, base.Add(13*time.Second))
	s3, t3 := m.Values()
	if s3 != 3*time.Second {
		t.Fatalf("second episode expected 3s, got %v", s3)
	}
	if t3 != 8*time.Second { // 5 + 3 ongoing
		t.Fatalf("total should include previous 5s + current 3s; got %v", t3)
	}

	m.OnTick(false, base.Add(13*time.Second))
	sFinal, tFinal := m.Values()
	if sFinal != 3*time.Second || tFinal != 8*time.Second {
		t.Fatalf("final expected session 3s total 8s got session=%v total=%v", sFinal, tFinal)
	}
	if m.Episodes() != 2 {
		t.Fatalf("expected 2 episodes, got %d", m.Episodes())
	}
}

func TestSessionModel_NilSafe(t *testing.T) {
	var m *SessionModel
	m.OnTick(true, time.Now())
	if s, tot := m.Values(); s != 0 || tot != 0 || m.Episodes() != 0 {
		t.Fatalf("nil model should report zeros")
	}
}

func TestDiagnosticsModel(t *testing.T) {
	var m DiagnosticsModel
	m.Record(12, 0.05, true, true, "DETECTED", "OIL SPILL DETECTED")
	m.Record(13, 0.05, true, false, "DETECTED", "")
	lines := m.Lines()
	want := []string{"Frame: 13", "Area Ratio: 0.0500", "Status: DETECTED"}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines %q, want %q", lines, want)
		}
	}
	if m.Alerts != 1 {
		t.Fatalf("expected 1 alert, got %d", m.Alerts)
	}
	if m.StatusText() != "Frame 13 | ratio 0.0500 | DETECTED | alerts 1" {
		t.Fatalf("unexpected status text %q", m.StatusText())
	}
}
