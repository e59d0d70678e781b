// Package invoke manages the lifecycle of <invoke> child sessions: starting
// them after a state's entry set finishes processing, cancelling them when
// the invoking state is exited, autoforwarding external events into them,
// and keeping each invocation's <finalize> block, which the owning session
// runs for every event that carries that invocation's id.
//
// Per 6.4, an invocation that was deferred during a microstep is only
// actually started if the invoking state is still part of the
// configuration once the whole macrostep settles — Manager only exposes
// Execute (no separate "commit" step) so callers own that decision: defer
// by holding the spec, and call Execute once the macrostep is known to have
// kept the state active.
package invoke

import (
	"fmt"
	"sync"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// ChildSession is the lifecycle surface an invoked child exposes to its
// parent's invoke.Manager. A core.Session implements this directly.
type ChildSession interface {
	SessionID() string
	EnqueueExternal(e primitives.Event)
	Stop()
}

// Factory creates and starts a child session for spec, wiring its
// "#_parent" target back to parentSessionID. data carries the evaluated
// namelist/param/content payload for the invocation.
type Factory func(spec primitives.InvokeSpec, parentSessionID string, data map[string]any) (ChildSession, error)

// Active records one running invocation.
type Active struct {
	InvokeID    string
	StateID     string
	Autoforward bool
	Finalize    []primitives.Action
	Child       ChildSession
}

// Manager tracks every invocation active across a session's lifetime.
type Manager struct {
	mu      sync.Mutex
	factory Factory
	active  map[string]*Active // by InvokeID
	byState map[string][]string // stateID -> invoke ids started by that state
}

// New wraps factory with invocation bookkeeping.
func New(factory Factory) *Manager {
	return &Manager{
		factory: factory,
		active:  make(map[string]*Active),
		byState: make(map[string][]string),
	}
}

// Execute resolves spec into a running child session under invokeID and
// records it against stateID so CancelForState can find it later.
func (m *Manager) Execute(spec primitives.InvokeSpec, invokeID, stateID, parentSessionID string, data map[string]any) error {
	child, err := m.factory(spec, parentSessionID, data)
	if err != nil {
		return fmt.Errorf("invoke: starting %q: %w", invokeID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[invokeID] = &Active{
		InvokeID:    invokeID,
		StateID:     stateID,
		Autoforward: spec.Autoforward,
		Finalize:    spec.Finalize,
		Child:       child,
	}
	m.byState[stateID] = append(m.byState[stateID], invokeID)
	return nil
}

// Cancel stops and forgets a single invocation. Returns false if invokeID
// was not active (cancel of an already-finished or unknown invocation is a
// no-op, not an error, mirroring <cancel> semantics for sends).
func (m *Manager) Cancel(invokeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.active[invokeID]
	if !ok {
		return false
	}
	a.Child.Stop()
	delete(m.active, invokeID)
	m.removeFromState(a.StateID, invokeID)
	return true
}

// CancelForState stops every invocation started by stateID, in the order
// they were started, and returns their ids. Called when stateID is exited.
func (m *Manager) CancelForState(stateID string) []string {
	m.mu.Lock()
	ids := append([]string(nil), m.byState[stateID]...)
	m.mu.Unlock()

	for _, id := range ids {
		m.Cancel(id)
	}
	return ids
}

func (m *Manager) removeFromState(stateID, invokeID string) {
	ids := m.byState[stateID]
	for i, id := range ids {
		if id == invokeID {
			m.byState[stateID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// Lookup returns the Active record for invokeID, for finalize/done.invoke
// routing.
func (m *Manager) Lookup(invokeID string) (*Active, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.active[invokeID]
	return a, ok
}

// Forward delivers e to every currently active invocation whose <invoke>
// declared autoforward="true", per 6.4.1. Called once per externally
// received event, before the event is processed by the parent itself.
func (m *Manager) Forward(e primitives.Event) {
	m.mu.Lock()
	targets := make([]ChildSession, 0)
	for _, a := range m.active {
		if a.Autoforward {
			targets = append(targets, a.Child)
		}
	}
	m.mu.Unlock()

	for _, child := range targets {
		child.EnqueueExternal(e)
	}
}

// StopAll tears down every active invocation. Called on session teardown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Cancel(id)
	}
}
