// Package kb holds the transceiver catalog used by the link budget
// calculator.
package kb

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/signalsfoundry/rfvision/core"
)

var (
	ErrTransceiverNotFound = errors.New("transceiver not found")
	ErrTransceiverExists   = errors.New("transceiver already exists")
	ErrInvalidTransceiver  = errors.New("invalid transceiver")
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventTransceiverAdded EventType = iota
	EventTransceiverReplaced
	EventTransceiverRemoved
)

func (e EventType) String() string {
	switch e {
	case EventTransceiverAdded:
		return "added"
	case EventTransceiverReplaced:
		return "replaced"
	case EventTransceiverRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type        EventType
	Transceiver core.TransceiverModel
}

// Catalog is an in-memory, thread-safe store of transceiver models keyed by
// ID. Models go in and come out as copies.
type Catalog struct {
	mu sync.RWMutex

	models map[string]*core.TransceiverModel

	nextSub int
	subs    map[int]func(Event)
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		models: make(map[string]*core.TransceiverModel),
		subs:   make(map[int]func(Event)),
	}
}

// Validate checks the fields the link budget relies on.
func Validate(tm *core.TransceiverModel) error {
	if tm == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidTransceiver)
	}
	if strings.TrimSpace(tm.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTransceiver)
	}
	b := tm.Band
	if !(b.MinMHz > 0) || math.IsInf(b.MaxMHz, 0) || b.MaxMHz < b.MinMHz {
		return fmt.Errorf("%w: %s band [%g, %g] MHz", ErrInvalidTransceiver, tm.ID, b.MinMHz, b.MaxMHz)
	}
	if tm.BandwidthHz < 0 || tm.NoiseTemperatureK < 0 {
		return fmt.Errorf("%w: %s has negative bandwidth or noise temperature", ErrInvalidTransceiver, tm.ID)
	}
	return nil
}

// Add inserts a new model. It fails if the ID is already present.
func (c *Catalog) Add(tm *core.TransceiverModel) error {
	if err := Validate(tm); err != nil {
		return err
	}
	c.mu.Lock()
	if _, exists := c.models[tm.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTransceiverExists, tm.ID)
	}
	c.models[tm.ID] = tm.Clone()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventTransceiverAdded, Transceiver: *tm.Clone()})
	return nil
}

// Put inserts or replaces a model.
func (c *Catalog) Put(tm *core.TransceiverModel) error {
	if err := Validate(tm); err != nil {
		return err
	}
	c.mu.Lock()
	typ := EventTransceiverAdded
	if _, exists := c.models[tm.ID]; exists {
		typ = EventTransceiverReplaced
	}
	c.models[tm.ID] = tm.Clone()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: typ, Transceiver: *tm.Clone()})
	return nil
}

// Get returns a copy of the model with the given ID.
func (c *Catalog) Get(id string) (*core.TransceiverModel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tm, ok := c.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTransceiverNotFound, id)
	}
	return tm.Clone(), nil
}

// Remove deletes the model with the given ID.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	tm, ok := c.models[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTransceiverNotFound, id)
	}
	delete(c.models, id)
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventTransceiverRemoved, Transceiver: *tm})
	return nil
}

// List returns copies of every model sorted by ID.
func (c *Catalog) List() []*core.TransceiverModel {
	c.mu.RLock()
	res := make([]*core.TransceiverModel, 0, len(c.models))
	for _, tm := range c.models {
		res = append(res, tm.Clone())
	}
	c.mu.RUnlock()

	slices.SortFunc(res, func(a, b *core.TransceiverModel) int { return strings.Compare(a.ID, b.ID) })
	return res
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// ReplaceAll swaps the whole catalog for models, emitting one event per
// added, changed or dropped entry. Nothing changes if any model is invalid
// or IDs repeat.
func (c *Catalog) ReplaceAll(models []*core.TransceiverModel) error {
	next := make(map[string]*core.TransceiverModel, len(models))
	for _, tm := range models {
		if err := Validate(tm); err != nil {
			return err
		}
		if _, dup := next[tm.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidTransceiver, tm.ID)
		}
		next[tm.ID] = tm.Clone()
	}

	c.mu.Lock()
	var events []Event
	for id, old := range c.models {
		if _, keep := next[id]; !keep {
			events = append(events, Event{Type: EventTransceiverRemoved, Transceiver: *old})
		}
	}
	for id, tm := range next {
		old, existed := c.models[id]
		switch {
		case !existed:
			events = append(events, Event{Type: EventTransceiverAdded, Transceiver: *tm.Clone()})
		case !sameModel(old, tm):
			events = append(events, Event{Type: EventTransceiverReplaced, Transceiver: *tm.Clone()})
		}
	}
	c.models = next
	subs := c.subscribersLocked()
	c.mu.Unlock()

	slices.SortFunc(events, func(a, b Event) int { return strings.Compare(a.Transceiver.ID, b.Transceiver.ID) })
	for _, ev := range events {
		notify(subs, ev)
	}
	return nil
}

// LinkBudget evaluates the link between two catalog entries.
func (c *Catalog) LinkBudget(txID, rxID string, distanceKm float64) (core.LinkBudget, error) {
	tx, err := c.Get(txID)
	if err != nil {
		return core.LinkBudget{}, err
	}
	rx, err := c.Get(rxID)
	if err != nil {
		return core.LinkBudget{}, err
	}
	return core.EstimateLinkBudget(tx, rx, distanceKm)
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Catalog) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

// notify runs outside the lock so subscribers may call back into the
// catalog.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

func sameModel(a, b *core.TransceiverModel) bool {
	an, bn := a.NoiseFigureDB, b.NoiseFigureDB
	if (an == nil) != (bn == nil) || (an != nil && *an != *bn) {
		return false
	}
	ac, bc := *a, *b
	ac.NoiseFigureDB, bc.NoiseFigureDB = nil, nil
	return ac == bc
}
