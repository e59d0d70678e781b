// Package registry is the process-wide directory of live sessions. It lets
// one session's <send target="#_scxml_<sessionid>"> reach another, and lets an
// invoking parent route <send target="#_parent"> and <send
// target="#_invokeid"> to the right child/parent session without either
// side holding a direct reference to the other for its whole lifetime.
package registry

import (
	"fmt"
	"sync"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// Handle is the subset of a running session a Registry needs: its id, and a
// way to hand it an externally originated event.
type Handle interface {
	SessionID() string
	EnqueueExternal(e primitives.Event)
}

// Registry maps session ids to live session handles. Safe for concurrent
// use; sessions register when constructed and unregister on teardown.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Handle
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]Handle)}
}

// Register adds h under its own SessionID. A second registration of the
// same id replaces the first (used by tests and in-process restarts; a
// live process never reuses session ids).
func (r *Registry) Register(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[h.SessionID()] = h
}

// Unregister removes a session, typically on teardown. Subsequent
// Deliver calls for that id fail with ErrCommunication-worthy errors,
// which callers should turn into error.communication rather than panic.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Lookup returns the handle for sessionID, if registered.
func (r *Registry) Lookup(sessionID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[sessionID]
	return h, ok
}

// Deliver routes e to sessionID's external queue. Returns an error if no
// such session is registered, which callers should surface as
// error.communication per 6.2.4 rather than fail the sender's own session.
func (r *Registry) Deliver(sessionID string, e primitives.Event) error {
	h, ok := r.Lookup(sessionID)
	if !ok {
		return fmt.Errorf("registry: no session %q", sessionID)
	}
	h.EnqueueExternal(e)
	return nil
}
