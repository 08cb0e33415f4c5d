package model

import (
	"sync/atomic"
)

// PreviewModel tracks whether live previews are rendered. The zero value is disabled and usable.
// Concurrency-safe via atomic Bool because UI callbacks and presenter ticks may race.
type PreviewModel struct{ enabled atomic.Bool }

// Enabled reports whether previews are currently rendered.
func (m *PreviewModel) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled.Load()
}

// SetEnabled stores the enabled flag.
func (m *PreviewModel) SetEnabled(b bool) {
	if m == nil {
		return
	}
	m.enabled.Store(b)
}
