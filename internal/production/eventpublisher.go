package production

import (
	"context"
	"time"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// Metadata describes the session/transition context an event is published
// alongside, since primitives.Event itself carries no session identity.
type Metadata struct {
	SessionID  string
	MachineID  string
	Transition string
	Timestamp  time.Time
}

// PublishedEvent bundles an event with its session metadata for publishing.
type PublishedEvent struct {
	Event    primitives.Event
	Metadata Metadata
}

// ChannelPublisher is a stdlib-only implementation that forwards events to a
// Go channel. Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch chan<- PublishedEvent
}

// NewChannelPublisher creates a ChannelPublisher with the given output
// channel.
func NewChannelPublisher(ch chan<- PublishedEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event primitives.Event, metadata Metadata) error {
	select {
	case p.ch <- PublishedEvent{Event: event, Metadata: metadata}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
