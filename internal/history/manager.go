// Package history tracks shallow and deep history pseudostate configurations.
// Shallow history remembers the set of direct children of the history
// state's parent that were active when the parent was last exited; deep
// history remembers the active atomic descendant ids under that parent. Because document ids are globally unique (see primitives), a
// history state's own id is sufficient to key its record — no separate
// parent key is needed to disambiguate.
package history

import "sync"

// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	records map[string][]string
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{records: make(map[string][]string)}
}

// Record stores activeIDs as the configuration to restore the next time
// historyID's default transition is taken. Called once per history state
// when its parent is exited, after computing which ids in the current
// configuration fall under that parent (direct children for shallow
// history, every atomic descendant for deep history).
func (m *Manager) Record(historyID string, activeIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]string, len(activeIDs))
	copy(stored, activeIDs)
	m.records[historyID] = stored
}

// Restore returns the ids recorded for historyID, and whether any record
// exists yet. A history state visited for the first time has no record;
// the caller falls back to the history state's default transition target.
func (m *Manager) Restore(historyID string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids, ok := m.records[historyID]
	if !ok {
		return nil, false
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, true
}

// Clear removes the remembered configuration for historyID. Session
// teardown does not call it; a record lives as long as its Manager.
func (m *Manager) Clear(historyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, historyID)
}
