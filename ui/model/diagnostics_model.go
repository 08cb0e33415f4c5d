package model

import "fmt"

// DiagnosticsModel holds the latest per-frame summary. Updates occur on the
// loop goroutine; no synchronization needed.
type DiagnosticsModel struct {
	FrameIndex uint64
	AreaRatio  float64
	Detected   bool
	Status     string
	Headline   string
	Alerts     int
}

// Record stores the latest summary and counts alerts.
func (m *DiagnosticsModel) Record(frame uint64, ratio float64, detected, alerted bool, status, headline string) {
	if m == nil {
		return
	}
	m.FrameIndex, m.AreaRatio, m.Detected = frame, ratio, detected
	m.Status, m.Headline = status, headline
	if alerted {
		m.Alerts++
	}
}

// Lines renders the overlay text lines.
func (m *DiagnosticsModel) Lines() []string {
	if m == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("Frame: %d", m.FrameIndex),
		fmt.Sprintf("Area Ratio: %.4f", m.AreaRatio),
		"Status: " + m.Status,
	}
}

// StatusText is the one-line status label.
func (m *DiagnosticsModel) StatusText() string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("Frame %d | ratio %.4f | %s | alerts %d", m.FrameIndex, m.AreaRatio, m.Status, m.Alerts)
}

// SpillInView reports whether the latest frame was classified as a spill.
func (m *DiagnosticsModel) SpillInView() bool { return m != nil && m.Detected }
