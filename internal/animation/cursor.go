package animation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/rfvision/model"
)

// Cursor reveals a signal a few samples per frame and wraps to empty after
// the last sample.
type Cursor struct {
	mu      sync.Mutex
	signal  model.Signal
	frame   int
	speed   int
	stopped bool
}

// NewCursor returns a cursor over sig advancing speed samples per frame.
// Speeds below 1 are treated as 1.
func NewCursor(sig model.Signal, speed int) *Cursor {
	return &Cursor{signal: sig, speed: max(speed, 1)}
}

// Next returns the visible prefix for this frame and moves the cursor on.
// It returns false once the cursor has been stopped.
func (c *Cursor) Next() (model.Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return model.Signal{}, false
	}
	total := len(c.signal.Time)
	if c.frame >= total {
		c.frame = 0
	}
	n := min(c.frame, len(c.signal.Values))
	out := model.Signal{Time: c.signal.Time[:c.frame], Values: c.signal.Values[:n]}
	c.frame += c.speed
	return out, true
}

// Len is the length of the full signal.
func (c *Cursor) Len() int { return c.signal.Len() }

func (c *Cursor) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *Cursor) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Registry tracks running cursors by ID.
type Registry struct {
	mu      sync.Mutex
	cursors map[string]*Cursor
}

func NewRegistry() *Registry {
	return &Registry{cursors: make(map[string]*Cursor)}
}

// Start registers a new cursor and returns its ID.
func (r *Registry) Start(sig model.Signal, speed int) (string, *Cursor) {
	c := NewCursor(sig, speed)
	id := "wave_" + uuid.NewString()
	r.mu.Lock()
	r.cursors[id] = c
	r.mu.Unlock()
	return id, c
}

// Get returns the cursor registered under id.
func (r *Registry) Get(id string) (*Cursor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cursors[id]
	return c, ok
}

// Stop halts and forgets one cursor. Unknown IDs are ignored.
func (r *Registry) Stop(id string) {
	r.mu.Lock()
	c, ok := r.cursors[id]
	delete(r.cursors, id)
	r.mu.Unlock()
	if ok {
		c.Stop()
	}
}

// StopAll halts every registered cursor.
func (r *Registry) StopAll() {
	r.mu.Lock()
	cursors := r.cursors
	r.cursors = make(map[string]*Cursor)
	r.mu.Unlock()
	for _, c := range cursors {
		c.Stop()
	}
}

// Len reports how many cursors are running.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cursors)
}
