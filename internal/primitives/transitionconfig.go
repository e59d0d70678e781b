// Package primitives defines the foundational data structures for the
// statechart document model. TransitionConfig defines transitions between
// states with event descriptors, guards, actions, and ordered targets,
// following SCXML semantics (targetless transitions, internal vs external,
// multiple targets for convergent parallel-region transitions).
//
// Guards and Actions remain pluggable references (function, string
// expression, or a primitives.Action/GuardRef closure) so that both a
// hand-built Go statechart and one parsed from SCXML XML share this type.
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// ActionRef references executable content for a transition or entry/exit
// block. The type accepts any value, but core.Session executes only
// primitives.Action values (declarative, SCXML-sourced); any other value is
// logged and skipped.
type ActionRef any

// GuardRef references a transition guard. The type accepts any value, but
// core.Session evaluates only a string expression (through the configured
// ScriptHost); any other value is logged and the guard counts as false.
type GuardRef any

// TransitionType distinguishes SCXML's internal vs external transitions,
// which affects domain computation (see getTransitionDomain in
// internal/core/selector.go).
type TransitionType string

const (
	TransitionExternal TransitionType = "external"
	TransitionInternal TransitionType = "internal"
)

// TransitionConfig defines a single transition. Event holds the raw
// space-separated descriptor field (see ParseDescriptors/DescriptorMatches);
// an empty Event means eventless. Targets may be empty (targetless
// transition: no exit, no entry) or hold more than one id (parallel-region
// convergent transition).
type TransitionConfig struct {
	Event    string         `json:"event"`
	Guard    GuardRef       `json:"guard,omitempty"`
	Targets  []string       `json:"targets,omitempty"`
	Type     TransitionType `json:"type,omitempty"`
	Actions  []ActionRef    `json:"actions,omitempty"`
	Priority int            `json:"priority,omitempty"`

	// DocOrder is the pre-order index of this transition's containing
	// state, used as the selector's document-order tie-break. Populated by
	// MachineConfig.Build, not authored.
	DocOrder int `json:"-" yaml:"-"`
}

// Validate checks TransitionConfig fields and target id syntax.
func (t *TransitionConfig) Validate() error {
	for i, target := range t.Targets {
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("target %d is empty", i)
		}
		for _, r := range target {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.') {
				return fmt.Errorf("invalid target id %q: invalid character %q", target, r)
			}
		}
	}
	if t.Priority < 0 {
		return errors.New("priority must be non-negative")
	}
	if t.Type != "" && t.Type != TransitionExternal && t.Type != TransitionInternal {
		return fmt.Errorf("invalid transition type %q", t.Type)
	}
	return nil
}

// IsTargetless reports whether this transition has no targets (source is
// neither exited nor re-entered).
func (t *TransitionConfig) IsTargetless() bool {
	return len(t.Targets) == 0
}

// IsEventless reports whether this transition fires without a triggering
// event (evaluated every eventless pass of the macrostep driver).
func (t *TransitionConfig) IsEventless() bool {
	return strings.TrimSpace(t.Event) == ""
}
