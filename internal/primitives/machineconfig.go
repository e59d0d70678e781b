// Package primitives defines the foundational data structures for the
// statechart document model.
//
// MachineConfig is the top-level immutable Document: a machine id, the
// initial top-level state, and a flat registry of every state by id (ids
// are unique document-wide, matching real SCXML semantics, not merely
// unique among siblings). Build() computes the derived indices — document
// order and parent back-references — that internal/core's selector and
// session rely on; it must be called once before a Session is started.
package primitives

import (
	"errors"
	"fmt"
)

// MachineConfig defines the complete statechart document.
type MachineConfig struct {
	Version string                  `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string                  `json:"id" yaml:"id"`
	Initial string                  `json:"initial" yaml:"initial"`
	States  map[string]*StateConfig `json:"states" yaml:"states"`

	// Root is the synthetic document root: a Compound state with no id of
	// its own whose children are the document's top-level states and whose
	// Initial is m.Initial. Computed by Build, not authored or serialized.
	Root *StateConfig `json:"-" yaml:"-"`
}

// RootID is the id of the synthetic document root, guaranteed not to
// collide with an author-chosen state id (SCXML ids cannot contain '!').
// Exported so the selector can treat it as the ultimate ancestor/LCCA
// fallback without reaching into MachineConfig internals.
const RootID = "!root"

// rootID is kept as an internal alias for brevity in this file.
const rootID = RootID

// Build computes document order and parent back-references over the whole
// state tree and wires the synthetic Root. It is idempotent. Call this once
// after constructing or parsing a MachineConfig and before Validate/use.
func (m *MachineConfig) Build() error {
	if m.States == nil {
		m.States = make(map[string]*StateConfig)
	}

	childIDs := make(map[string]bool)
	for _, s := range m.States {
		for _, c := range s.Children {
			childIDs[c.ID] = true
		}
	}

	var topLevel []*StateConfig
	for id, s := range m.States {
		if !childIDs[id] {
			topLevel = append(topLevel, s)
		}
	}
	// Deterministic order: by id, so DocOrder is stable across builds.
	sortStatesByID(topLevel)

	root := &StateConfig{ID: rootID, Type: Compound, Initial: m.Initial, Children: topLevel}
	m.Root = root

	order := 0
	var walk func(s, parent *StateConfig)
	walk = func(s, parent *StateConfig) {
		s.DocOrder = order
		order++
		if parent != nil {
			s.ParentID = parent.ID
		}
		for _, c := range s.Children {
			walk(c, s)
		}
	}
	root.DocOrder = -1 // root precedes every authored state in document order
	for _, c := range root.Children {
		walk(c, root)
	}

	// Assign each transition's DocOrder from its containing state, and
	// attach the flat registry entries for every nested descendant too
	// (so FindState and range-over-States see the whole tree, matching
	// the teacher's original "flat map of all states" contract).
	for _, s := range root.Children {
		m.registerRecursive(s)
	}
	for _, s := range m.States {
		for key, transList := range s.On {
			for i := range transList {
				transList[i].DocOrder = s.DocOrder
			}
			s.On[key] = transList
		}
	}
	return nil
}

func (m *MachineConfig) registerRecursive(s *StateConfig) {
	m.States[s.ID] = s
	for _, c := range s.Children {
		m.registerRecursive(c)
	}
}

func sortStatesByID(states []*StateConfig) {
	for i := 1; i < len(states); i++ {
		for j := i; j > 0 && states[j-1].ID > states[j].ID; j-- {
			states[j-1], states[j] = states[j], states[j-1]
		}
	}
}

// Validate validates the entire machine configuration: non-empty ID and
// Initial, initial state presence, recursive state validity, transition
// target existence, and no orphaned states.
func (m *MachineConfig) Validate() error {
	if m.ID == "" {
		return errors.New("machine ID is required")
	}
	if m.Initial == "" {
		return errors.New("initial state ID is required")
	}
	if len(m.States) == 0 {
		return errors.New("states map is required and cannot be empty")
	}
	if _, ok := m.States[m.Initial]; !ok {
		return fmt.Errorf("initial state %q not found in states", m.Initial)
	}

	for sid, state := range m.States {
		if err := state.Validate(); err != nil {
			return fmt.Errorf("state %q validation failed: %w", sid, err)
		}
	}

	for sid, state := range m.States {
		for event, transitions := range state.On {
			for i, trans := range transitions {
				for _, target := range trans.Targets {
					if _, exists := m.States[target]; !exists {
						return fmt.Errorf("invalid transition target %q (state %q, event %q, transition %d)", target, sid, event, i)
					}
				}
			}
		}
	}

	visited := make(map[string]bool)
	m.markReachable(m.States[m.Initial], visited)
	for sid := range m.States {
		if !visited[sid] {
			return fmt.Errorf("orphaned state %q (not reachable from initial %q)", sid, m.Initial)
		}
	}

	return nil
}

func (m *MachineConfig) markReachable(state *StateConfig, visited map[string]bool) {
	if state == nil || visited[state.ID] {
		return
	}
	visited[state.ID] = true
	for _, child := range state.Children {
		m.markReachable(child, visited)
	}
	for _, transitions := range state.On {
		for _, trans := range transitions {
			for _, target := range trans.Targets {
				m.markReachable(m.States[target], visited)
			}
		}
	}
}

// FindState resolves a state by id. Accepted for backward-compatible call
// sites that still pass a dot-path: only the first segment is honored,
// since ids are globally unique in this document model.
func (m *MachineConfig) FindState(id string) (*StateConfig, error) {
	if id == "" {
		return nil, errors.New("id cannot be empty")
	}
	if s, ok := m.States[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("state %q not found", id)
}

// StateByID returns the state node for id, including RootID (which is not
// present in the States map). Returns nil for an unknown id.
func (m *MachineConfig) StateByID(id string) *StateConfig {
	if id == RootID {
		return m.Root
	}
	return m.States[id]
}

// IsCompoundLike reports whether id names a Compound state or the synthetic
// root, the two kinds of node the LCCA algorithm may legitimately return.
func (m *MachineConfig) IsCompoundLike(id string) bool {
	if id == RootID {
		return true
	}
	s, ok := m.States[id]
	return ok && s.Type == Compound
}

// Ancestors returns the chain of state ids from the given leaf id up to (but
// not including) the synthetic root, innermost first.
func (m *MachineConfig) Ancestors(id string) []string {
	var chain []string
	for cur, ok := m.States[id]; ok; cur, ok = m.States[cur.ParentID] {
		chain = append(chain, cur.ID)
		if cur.ParentID == "" {
			break
		}
	}
	return chain
}
