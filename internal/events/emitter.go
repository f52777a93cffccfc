package events

import (
	"context"
	"log/slog"
	"sync"
)

// Emitter receives committed events. Implementations must not call back into
// the component that emitted the event.
type Emitter interface {
	Emit(Event)
}

type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// Fanout delivers every event to each non-nil emitter in order.
type Fanout []Emitter

func (f Fanout) Emit(e Event) {
	for _, em := range f {
		if em != nil {
			em.Emit(e)
		}
	}
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)

	return out
}

// OfType returns the recorded events whose EventType equals typ.
func (r *Recorder) OfType(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if e.EventType() == typ {
			out = append(out, e)
		}
	}

	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}

// LogEmitter mirrors events into a structured logger.
type LogEmitter struct {
	Logger *slog.Logger
}

func (l LogEmitter) Emit(e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := e.Attributes()
	args := make([]slog.Attr, 0, len(attrs))
	for k, v := range attrs {
		args = append(args, slog.String(k, v))
	}

	logger.LogAttrs(context.Background(), slog.LevelInfo, "event",
		slog.String("type", e.EventType()),
		slog.Attr{Key: "attributes", Value: slog.GroupValue(args...)},
	)
}

// Or returns em, or a NoopEmitter when em is nil.
func Or(em Emitter) Emitter {
	if em == nil {
		return NoopEmitter{}
	}
	return em
}
