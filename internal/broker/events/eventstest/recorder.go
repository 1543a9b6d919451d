// Package eventstest provides an in-memory events.Sink for tests.
package eventstest

import (
	"context"
	"sync"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
)

type Recorder struct {
	mu  sync.Mutex
	evs []messages.DomainEvent
}

func (r *Recorder) Emit(_ context.Context, evs ...messages.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, evs...)
}

func (r *Recorder) Events() []messages.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messages.DomainEvent(nil), r.evs...)
}

// OfType returns the recorded events of type t in emission order.
func (r *Recorder) OfType(t messages.EventType) []messages.DomainEvent {
	var out []messages.DomainEvent
	for _, ev := range r.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.evs = nil
	r.mu.Unlock()
}
