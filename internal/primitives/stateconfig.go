// Package primitives defines the foundational data structures for the
// statechart document model: the immutable tree of states, transitions,
// executable content, data items, invokes, and history pseudo-states that
// the engine interprets. Construction happens once (via a builder or an XML
// parser adapter); the tree is never mutated after Build.
package primitives

import (
	"errors"
	"fmt"
)

// StateType defines the possible types of states in the statechart.
type StateType string

const (
	Atomic         StateType = "atomic"
	Compound       StateType = "compound"
	Parallel       StateType = "parallel"
	Final          StateType = "final"
	ShallowHistory StateType = "shallowHistory"
	DeepHistory    StateType = "deepHistory"
)

// EventlessKey is the map key under which eventless ("always run when
// enabled") transitions are stored in StateConfig.On, mirroring how a real
// SCXML document has <transition> elements with no event attribute.
const EventlessKey = ""

// StateConfig defines a state configuration, supporting hierarchical
// nesting, SCXML data items, invokes, and donedata.
type StateConfig struct {
	ID      string                         `json:"id" yaml:"id"`
	Type    StateType                      `json:"type" yaml:"type"`
	Initial string                         `json:"initial,omitempty" yaml:"initial,omitempty"`
	On      map[string][]TransitionConfig  `json:"on,omitempty" yaml:"on,omitempty"`
	Entry   []ActionRef                    `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit    []ActionRef                    `json:"exit,omitempty" yaml:"exit,omitempty"`

	Children []*StateConfig `json:"children,omitempty" yaml:"children,omitempty"`

	// Data items bound by the data model manager on this state's first
	// entry (late binding); there is no early-binding setting.
	Data []DataItem `json:"data,omitempty" yaml:"data,omitempty"`

	// Invoke specs attached to this state; one child session per spec per
	// entry, deferred until macrostep quiescence (see invoke package).
	Invoke []InvokeSpec `json:"invoke,omitempty" yaml:"invoke,omitempty"`

	// Donedata is only meaningful on a Final state; carried on
	// done.state.<parent> (or done.invoke.<id> at the root).
	Donedata *DoneData `json:"donedata,omitempty" yaml:"donedata,omitempty"`

	// DocOrder is the pre-order DFS index assigned by MachineConfig.Build; used
	// for document-order tie-breaking everywhere the spec requires it.
	// Not serialized: it is derived, not authored.
	DocOrder int `json:"-" yaml:"-"`

	// ParentID is the id of the immediate parent state, empty at the root.
	// Populated by MachineConfig.Build. Not serialized: derived.
	ParentID string `json:"-" yaml:"-"`
}

// NewStateConfig creates a new StateConfig with ID and Type.
func NewStateConfig(id string, typ StateType) *StateConfig {
	return &StateConfig{ID: id, Type: typ}
}

// WithInitial sets the initial child state ID (for compound/parallel).
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// WithOn sets the event-to-transition map.
func (s *StateConfig) WithOn(on map[string][]TransitionConfig) *StateConfig {
	s.On = make(map[string][]TransitionConfig, len(on))
	for k, v := range on {
		s.On[k] = v
	}
	return s
}

// AddTransition adds a transition keyed by its (possibly multi-token) event
// descriptor field. Use EventlessKey for an eventless transition.
func (s *StateConfig) AddTransition(eventDescriptors string, trans TransitionConfig) *StateConfig {
	if s.On == nil {
		s.On = make(map[string][]TransitionConfig)
	}
	trans.Event = eventDescriptors
	s.On[eventDescriptors] = append(s.On[eventDescriptors], trans)
	return s
}

// WithEntry sets entry actions.
func (s *StateConfig) WithEntry(entry []ActionRef) *StateConfig {
	s.Entry = entry
	return s
}

// AddEntry adds an entry action.
func (s *StateConfig) AddEntry(action ActionRef) *StateConfig {
	s.Entry = append(s.Entry, action)
	return s
}

// WithExit sets exit actions.
func (s *StateConfig) WithExit(exit []ActionRef) *StateConfig {
	s.Exit = exit
	return s
}

// AddExit adds an exit action.
func (s *StateConfig) AddExit(action ActionRef) *StateConfig {
	s.Exit = append(s.Exit, action)
	return s
}

// WithChildren sets child states.
func (s *StateConfig) WithChildren(children []*StateConfig) *StateConfig {
	s.Children = children
	return s
}

// AddChild adds a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// State creates and adds a child state (atomic by default, or specified type).
func (s *StateConfig) State(id string, typ ...StateType) *StateConfig {
	t := Atomic
	if len(typ) > 0 {
		t = typ[0]
	}
	child := NewStateConfig(id, t)
	s.AddChild(child)
	return child
}

// Transition adds a simple transition from an event descriptor field to a
// single target. Use TransitionTo for multiple targets or full control.
func (s *StateConfig) Transition(event, target string, transOpts ...TransitionConfig) *StateConfig {
	trans := TransitionConfig{Targets: targetsOf(target)}
	if len(transOpts) > 0 {
		trans = transOpts[0]
	}
	return s.AddTransition(event, trans)
}

func targetsOf(target string) []string {
	if target == "" {
		return nil
	}
	return []string{target}
}

// Flatten returns a flat map[string]*StateConfig by recursing the entire
// hierarchy from this root.
func (s *StateConfig) Flatten() map[string]*StateConfig {
	m := make(map[string]*StateConfig)
	s.flattenHelper(m)
	return m
}

func (s *StateConfig) flattenHelper(m map[string]*StateConfig) {
	if _, ok := m[s.ID]; ok {
		return
	}
	m[s.ID] = s
	for _, child := range s.Children {
		child.flattenHelper(m)
	}
}

// IsHistory reports whether s is a shallow or deep history pseudo-state.
func (s *StateConfig) IsHistory() bool {
	return s.Type == ShallowHistory || s.Type == DeepHistory
}

// IsAtomicLike reports whether s has no substates of its own (Atomic or
// Final); both are leaves in a Configuration.
func (s *StateConfig) IsAtomicLike() bool {
	return s.Type == Atomic || s.Type == Final
}

// Validate performs recursive validation of the StateConfig tree.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}

	validTypes := map[StateType]struct{}{
		Atomic: {}, Compound: {}, Parallel: {}, Final: {},
		ShallowHistory: {}, DeepHistory: {},
	}
	if _, ok := validTypes[s.Type]; !ok {
		return fmt.Errorf("invalid state type %q for state %s", s.Type, s.ID)
	}

	switch s.Type {
	case Atomic, Final:
		if s.Initial != "" {
			return fmt.Errorf("%s state %s cannot have Initial", s.Type, s.ID)
		}
		if len(s.Children) > 0 {
			return fmt.Errorf("%s state %s cannot have Children", s.Type, s.ID)
		}
		if s.Type == Final {
			for event := range s.On {
				if event != EventlessKey {
					return fmt.Errorf("final state %s cannot have event transitions (got %q)", s.ID, event)
				}
			}
		}
	case Compound, Parallel:
		if len(s.Children) == 0 {
			return fmt.Errorf("%s state %s requires Children", s.Type, s.ID)
		}
		if s.Type == Parallel {
			for _, c := range s.Children {
				if c.Type == Final || c.IsHistory() {
					return fmt.Errorf("parallel state %s cannot have a %s direct child (%s)", s.ID, c.Type, c.ID)
				}
			}
		}
		if s.Type == Compound {
			if s.Initial == "" {
				return fmt.Errorf("compound state %s requires Initial child", s.ID)
			}
			initialFound := false
			for _, child := range s.Children {
				if child.ID == s.Initial {
					initialFound = true
					break
				}
			}
			if !initialFound {
				return fmt.Errorf("initial child %q not found in children of %s", s.Initial, s.ID)
			}
		}
	case ShallowHistory, DeepHistory:
		if len(s.Children) > 0 {
			return fmt.Errorf("history state %s cannot have Children (restored at runtime)", s.ID)
		}
		defaults := s.On[EventlessKey]
		if len(defaults) != 1 {
			return fmt.Errorf("history state %s requires exactly one default transition, got %d", s.ID, len(defaults))
		}
	}

	if s.On != nil {
		for event, transitions := range s.On {
			for i := range transitions {
				if err := transitions[i].Validate(); err != nil {
					return fmt.Errorf("state %s transition %d (event %q): %w", s.ID, i, event, err)
				}
			}
		}
	}

	for i, child := range s.Children {
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s) of %s failed validation: %w", i, child.ID, s.ID, err)
		}
	}

	return nil
}

// EventTransitions returns the transitions on s whose descriptor field
// matches the given concrete event name (ignores eventless transitions).
func (s *StateConfig) EventTransitions(eventName string) []TransitionConfig {
	var out []TransitionConfig
	for descriptors, transList := range s.On {
		if descriptors == EventlessKey {
			continue
		}
		if AnyDescriptorMatches(descriptors, eventName) {
			out = append(out, transList...)
		}
	}
	return out
}

// EventlessTransitions returns s's eventless transitions, if any.
func (s *StateConfig) EventlessTransitions() []TransitionConfig {
	return s.On[EventlessKey]
}
