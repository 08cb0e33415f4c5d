package telemetry

import "sync"

// Cell holds the latest snapshot. One writer (the reader task) updates it;
// any number of goroutines may Load or Subscribe.
type Cell struct {
	mu   sync.RWMutex
	snap Snapshot
	set  bool
	subs map[chan Snapshot]struct{}
}

func NewCell() *Cell {
	return &Cell{subs: make(map[chan Snapshot]struct{})}
}

// Load returns the latest snapshot and whether one has been stored yet.
func (c *Cell) Load() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.set
}

// Store replaces the snapshot.
func (c *Cell) Store(s Snapshot) {
	c.Update(func(Snapshot) Snapshot { return s })
}

// Update replaces the snapshot with fn(current) and notifies subscribers.
// A subscriber that is not keeping up misses the value.
func (c *Cell) Update(fn func(Snapshot) Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = fn(c.snap)
	c.set = true
	for ch := range c.subs {
		select {
		case ch <- c.snap:
		default:
		}
	}
	return c.snap
}

// Subscribe returns a channel of snapshot copies and a cancel func that
// closes it.
func (c *Cell) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}
