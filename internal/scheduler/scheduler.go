// Package scheduler implements delayed event delivery for <send> elements
// that carry a delay, and its cancellation via <cancel> or session teardown.
package scheduler

import (
	"sync"
	"time"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// Deliver is called when a scheduled event's delay elapses. sessionID names
// the session the event is destined for; the caller is expected to route it
// to that session's external queue (directly, or through a registry lookup).
type Deliver func(sessionID string, e primitives.Event)

// Scheduler manages pending delayed sends with a single background timer
// per pending send. It is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer // keyed by send id
	deliver Deliver
}

// New creates a Scheduler that invokes deliver when a delayed send fires.
func New(deliver Deliver) *Scheduler {
	return &Scheduler{
		pending: make(map[string]*time.Timer),
		deliver: deliver,
	}
}

// Schedule arranges for event to be delivered to sessionID after delay
// elapses, under the given sendID. If sendID collides with a still-pending
// send, the prior one is cancelled first (per-id uniqueness).
func (s *Scheduler) Schedule(sendID, sessionID string, event primitives.Event, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[sendID]; ok {
		t.Stop()
		delete(s.pending, sendID)
	}
	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, sendID)
		s.mu.Unlock()
		s.deliver(sessionID, event)
	})
	s.pending[sendID] = timer
}

// Cancel stops a pending send by id. Returns false if no such send is
// pending (already fired, already cancelled, or unknown id) — per 6.3 this
// is not an error, <cancel> is a no-op in that case.
func (s *Scheduler) Cancel(sendID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[sendID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.pending, sendID)
	return true
}

// CancelSession calls Cancel for each id in ids. The Scheduler does not
// record which session a send belongs to, so the caller supplies the ids.
func (s *Scheduler) CancelSession(ids []string) {
	for _, id := range ids {
		s.Cancel(id)
	}
}

// Pending reports how many sends are currently scheduled. Exposed for tests
// and diagnostics.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
