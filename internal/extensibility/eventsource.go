// Package extensibility provides adapters that feed external events into a
// running Session's external queue. Anything satisfying EventSource can be
// attached with Pump, which relays its channel into Session.EnqueueExternal
// until the channel closes or the caller stops the pump.
package extensibility

import (
	"time"

	"github.com/comalice/scxmlcore/internal/core"
	"github.com/comalice/scxmlcore/internal/primitives"
)

// EventSource produces a stream of events to feed into a session.
type EventSource interface {
	Events() <-chan primitives.Event
}

// Pump relays every event from src into session until src's channel closes
// or stop fires, whichever comes first. Runs in its own goroutine.
func Pump(session *core.Session, src EventSource, stop <-chan struct{}) {
	go func() {
		for {
			select {
			case e, ok := <-src.Events():
				if !ok {
					return
				}
				session.EnqueueExternal(e)
			case <-stop:
				return
			}
		}
	}()
}

// ChannelEventSource is an EventSource backed by a caller-owned channel; the
// caller pushes events and closes the channel when done.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// NewChannelEventSource wraps ch as an EventSource. The channel should be
// buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// TimerEventSource generates periodic events using time.Ticker. Useful for
// timeout/heartbeat statecharts driven from outside the document; a delay
// local to the document itself should use <send delay> instead.
type TimerEventSource struct {
	ch     chan primitives.Event
	name   string
	data   any
	ticker *time.Ticker
	stop   chan struct{}
}

// NewTimerEventSource creates a TimerEventSource that emits an event named
// name every d.
func NewTimerEventSource(name string, data any, d time.Duration) *TimerEventSource {
	ch := make(chan primitives.Event, 10)
	t := &TimerEventSource{
		ch:     ch,
		name:   name,
		data:   data,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- primitives.NewEvent(t.name, t.data):
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Events returns the event channel.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TimerEventSource) Stop() {
	close(t.stop)
}
