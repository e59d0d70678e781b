// Package events implements the two-priority event queue a session uses to
// drive its run-to-completion loop: a FIFO of internally raised events
// (<raise>, <send target="#_internal">, done.state.*, error.*) that is
// always drained before the external FIFO (I/O processors, invoked children
// including their done.invoke.*, delayed <send> delivery, other sessions'
// <send target="#_parent">).
package events

import (
	"sync"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// Queue is a single mutex-guarded FIFO of Events.
type Queue struct {
	mu    sync.Mutex
	items []primitives.Event
}

// Push appends an event to the back of the queue.
func (q *Queue) Push(e primitives.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, e)
}

// Pop removes and returns the front event. ok is false if the queue is empty.
func (q *Queue) Pop() (primitives.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return primitives.Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pair bundles a session's internal and external queues. The interpreter
// loop always empties Internal before looking at External, per 3.13.
type Pair struct {
	Internal Queue
	External Queue
}

// NextInternal pops the next internal event, if any.
func (p *Pair) NextInternal() (primitives.Event, bool) {
	return p.Internal.Pop()
}

// NextExternal pops the next external event, if any.
func (p *Pair) NextExternal() (primitives.Event, bool) {
	return p.External.Pop()
}

// HasInternal reports whether an internal event is pending.
func (p *Pair) HasInternal() bool {
	return p.Internal.Len() > 0
}

// HasExternal reports whether an external event is pending.
func (p *Pair) HasExternal() bool {
	return p.External.Len() > 0
}

// Raise enqueues an internally generated event. A platform event keeps its
// Kind; any other event is marked internal.
func (p *Pair) Raise(e primitives.Event) {
	if e.Kind != primitives.EventPlatform {
		e.Kind = primitives.EventInternal
	}
	p.Internal.Push(e)
}

// Deliver enqueues an externally originated event for later pickup by the
// interpreter's macrostep loop.
func (p *Pair) Deliver(e primitives.Event) {
	if e.Kind == "" {
		e.Kind = primitives.EventExternal
	}
	p.External.Push(e)
}
