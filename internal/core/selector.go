// Transition selection and entry/exit set computation, following the W3C
// SCXML 1.0 microstep algorithm (3.13): document-order-first transition
// selection per atomic state, conflict resolution between transitions whose
// exit sets overlap, and the two-pass entry-set walk (descendants then
// ancestors) that expands compound/parallel/history targets into a full set
// of states to enter.
package core

import (
	"sort"

	"github.com/comalice/scxmlcore/internal/history"
	"github.com/comalice/scxmlcore/internal/primitives"
)

// isDescendant reports whether id is a proper descendant of ancestor.
func isDescendant(doc *primitives.MachineConfig, id, ancestor string) bool {
	for _, a := range doc.Ancestors(id) {
		if a == id {
			continue
		}
		if a == ancestor {
			return true
		}
	}
	if ancestor == primitives.RootID {
		return true
	}
	return false
}

// properAncestors returns the ancestor chain of id, innermost first, up to
// but not including stop. stop == "" walks all the way to and including the
// synthetic document root.
func properAncestors(doc *primitives.MachineConfig, id, stop string) []string {
	chain := doc.Ancestors(id)
	if len(chain) > 0 && chain[0] == id {
		chain = chain[1:]
	}
	if stop == "" {
		return append(chain, primitives.RootID)
	}
	out := make([]string, 0, len(chain))
	for _, a := range chain {
		if a == stop {
			break
		}
		out = append(out, a)
	}
	return out
}

// findLCCA returns the least common compound ancestor of every state in
// ids: the innermost compound (or root) state that is a proper ancestor of
// ids[0] and an ancestor-or-self of every other id.
func findLCCA(doc *primitives.MachineConfig, ids []string) string {
	if len(ids) == 0 {
		return primitives.RootID
	}
	for _, anc := range properAncestors(doc, ids[0], "") {
		if !doc.IsCompoundLike(anc) {
			continue
		}
		all := true
		for _, id := range ids[1:] {
			if !(id == anc || isDescendant(doc, id, anc)) {
				all = false
				break
			}
		}
		if all {
			return anc
		}
	}
	return primitives.RootID
}

// children returns the direct children of id, including RootID.
func children(doc *primitives.MachineConfig, id string) []*primitives.StateConfig {
	s := doc.StateByID(id)
	if s == nil {
		return nil
	}
	return s.Children
}

// getTransitionDomain returns the state whose descendants are exited (and
// later re-entered) by t, or "" for a targetless transition (which exits
// nothing).
func getTransitionDomain(doc *primitives.MachineConfig, t primitives.TransitionConfig, source string, effectiveTargets []string) string {
	if len(effectiveTargets) == 0 {
		return ""
	}
	if t.Type == primitives.TransitionInternal && doc.IsCompoundLike(source) {
		allDescendants := true
		for _, tgt := range effectiveTargets {
			if !isDescendant(doc, tgt, source) {
				allDescendants = false
				break
			}
		}
		if allDescendants {
			return source
		}
	}
	return findLCCA(doc, append([]string{source}, effectiveTargets...))
}

// resolvedTransition pairs a transition with its source state id and its
// effective (history/initial-resolved) target ids.
type resolvedTransition struct {
	source  string
	trans   primitives.TransitionConfig
	targets []string
}

// effectiveTargetStates expands a transition's raw Targets into the states
// that must actually be entered: a history target resolves to its
// remembered configuration (or its default transition's targets on first
// visit); every other target is returned unchanged (descendant expansion
// into a compound/parallel state's default children happens later, in
// addDescendantStatesToEnter).
func effectiveTargetStates(doc *primitives.MachineConfig, hist *history.Manager, targets []string) []string {
	var out []string
	for _, t := range targets {
		s := doc.StateByID(t)
		if s != nil && s.IsHistory() {
			if ids, ok := hist.Restore(t); ok {
				out = append(out, ids...)
				continue
			}
			defaults := s.EventlessTransitions()
			if len(defaults) > 0 {
				out = append(out, effectiveTargetStates(doc, hist, defaults[0].Targets)...)
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

// SelectTransitions returns the set of transitions enabled for event (nil
// for an eventless microstep) against the current configuration, with
// conflicts between overlapping transitions resolved in favor of the
// earlier (innermost/earliest document order) source state, per 3.13.
func SelectTransitions(doc *primitives.MachineConfig, hist *history.Manager, config *Configuration, guardEval func(primitives.TransitionConfig) bool, event *primitives.Event) []resolvedTransition {
	var atomic []string
	for id := range config.active {
		s := doc.StateByID(id)
		if s != nil && s.IsAtomicLike() {
			atomic = append(atomic, id)
		}
	}
	sort.Slice(atomic, func(i, j int) bool {
		return doc.StateByID(atomic[i]).DocOrder < doc.StateByID(atomic[j]).DocOrder
	})

	var enabled []resolvedTransition
	seenSource := make(map[string]bool)
	for _, leaf := range atomic {
		chain := append([]string{leaf}, properAncestors(doc, leaf, "")...)
		for _, sid := range chain {
			if sid == primitives.RootID {
				break
			}
			s := doc.StateByID(sid)
			if s == nil {
				continue
			}
			var candidates []primitives.TransitionConfig
			if event == nil {
				candidates = s.EventlessTransitions()
			} else {
				candidates = s.EventTransitions(event.Name)
			}
			// Within one state, multiple matching transitions (possibly
			// spread across different event-descriptor keys) are
			// disambiguated by Priority; this is the mechanism authors use
			// since map-keyed storage does not preserve a single total
			// declaration order across descriptor keys.
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].Priority > candidates[j].Priority
			})
			matched := false
			for _, t := range candidates {
				if guardEval(t) {
					key := sid + "|" + t.Event + "|" + string(t.Type)
					if !seenSource[key] {
						enabled = append(enabled, resolvedTransition{
							source:  sid,
							trans:   t,
							targets: effectiveTargetStates(doc, hist, t.Targets),
						})
						seenSource[key] = true
					}
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}

	return removeConflicting(doc, config, enabled)
}

func removeConflicting(doc *primitives.MachineConfig, config *Configuration, enabled []resolvedTransition) []resolvedTransition {
	sort.SliceStable(enabled, func(i, j int) bool {
		return doc.StateByID(enabled[i].source).DocOrder < doc.StateByID(enabled[j].source).DocOrder
	})

	exitSetOf := func(rt resolvedTransition) map[string]bool {
		out := make(map[string]bool)
		domain := getTransitionDomain(doc, rt.trans, rt.source, rt.targets)
		if domain == "" {
			return out
		}
		for id := range config.active {
			if isDescendant(doc, id, domain) {
				out[id] = true
			}
		}
		return out
	}

	var filtered []resolvedTransition
	for _, t1 := range enabled {
		exit1 := exitSetOf(t1)
		preempted := false
		var keep []resolvedTransition
		for _, t2 := range filtered {
			exit2 := exitSetOf(t2)
			if intersects(exit1, exit2) {
				if isDescendant(doc, t1.source, t2.source) {
					continue // drop t2, t1 wins
				}
				preempted = true
				keep = append(keep, t2)
				continue
			}
			keep = append(keep, t2)
		}
		if preempted {
			filtered = keep
			continue
		}
		filtered = append(keep, t1)
	}
	return filtered
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// ComputeExitSet returns the ids to exit for the given resolved
// transitions, ordered deepest-first (children before their ancestors) so
// onexit handlers run from the innermost active state outward.
func ComputeExitSet(doc *primitives.MachineConfig, config *Configuration, transitions []resolvedTransition) []string {
	toExit := make(map[string]bool)
	for _, rt := range transitions {
		domain := getTransitionDomain(doc, rt.trans, rt.source, rt.targets)
		if domain == "" {
			continue
		}
		for id := range config.active {
			if isDescendant(doc, id, domain) {
				toExit[id] = true
			}
		}
	}
	out := make([]string, 0, len(toExit))
	for id := range toExit {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		di := len(doc.Ancestors(out[i]))
		dj := len(doc.Ancestors(out[j]))
		if di != dj {
			return di > dj
		}
		return doc.StateByID(out[i]).DocOrder > doc.StateByID(out[j]).DocOrder
	})
	return out
}

// entrySetResult is the outcome of computeEntrySet: which states to enter
// (in a document-order-safe sequence, outer before inner), which of those
// were reached via default initial expansion (so their <data> binds and
// their default-entry semantics apply), and which history states were
// resolved from a remembered configuration versus a default transition.
type entrySetResult struct {
	toEnter        []string
	defaultEntry   map[string]bool
	resolvedByHist map[string]bool
}

// ComputeEntrySet implements computeEntrySet/addDescendantStatesToEnter/
// addAncestorStatesToEnter from 3.13, expanding each transition's targets
// into the full set of states that must be entered, including default
// initial children of any compound state entered without a deeper explicit
// target, every region of an entered parallel state, and history
// restoration.
func ComputeEntrySet(doc *primitives.MachineConfig, hist *history.Manager, transitions []resolvedTransition) entrySetResult {
	res := entrySetResult{
		defaultEntry:   make(map[string]bool),
		resolvedByHist: make(map[string]bool),
	}
	order := make(map[string]int)

	var addDescendant func(id string)
	var addAncestor func(id, ancestor string)

	addDescendant = func(id string) {
		s := doc.StateByID(id)
		if s == nil {
			return
		}
		if s.IsHistory() {
			if ids, ok := hist.Restore(id); ok {
				res.resolvedByHist[id] = true
				for _, h := range ids {
					addDescendant(h)
				}
				for _, h := range ids {
					addAncestor(h, s.ParentID)
				}
				return
			}
			defaults := s.EventlessTransitions()
			if len(defaults) > 0 {
				for _, tgt := range defaults[0].Targets {
					addDescendant(tgt)
					addAncestor(tgt, s.ParentID)
				}
			}
			return
		}

		if _, already := order[id]; !already {
			order[id] = len(order)
		}

		switch s.Type {
		case primitives.Compound:
			if s.Initial != "" {
				res.defaultEntry[id] = true
				addDescendant(s.Initial)
				addAncestor(s.Initial, id)
			}
		case primitives.Parallel:
			for _, child := range s.Children {
				addDescendant(child.ID)
			}
		}
	}

	addAncestor = func(id, ancestor string) {
		for _, anc := range properAncestors(doc, id, ancestor) {
			if _, already := order[anc]; !already {
				order[anc] = len(order)
			}
			if doc.StateByID(anc) != nil && doc.StateByID(anc).Type == primitives.Parallel {
				for _, child := range children(doc, anc) {
					descendantAlreadyEntered := false
					for k := range order {
						if k == child.ID || isDescendant(doc, k, child.ID) {
							descendantAlreadyEntered = true
							break
						}
					}
					if !descendantAlreadyEntered {
						addDescendant(child.ID)
					}
				}
			}
		}
	}

	for _, rt := range transitions {
		targets := effectiveTargetStates(doc, hist, rt.trans.Targets)
		domain := getTransitionDomain(doc, rt.trans, rt.source, targets)
		for _, tgt := range targets {
			addDescendant(tgt)
		}
		for _, tgt := range targets {
			addAncestor(tgt, domain)
		}
	}

	ids := make([]string, 0, len(order))
	for id := range order {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		oi, oj := order[ids[i]], order[ids[j]]
		di := doc.StateByID(ids[i]).DocOrder
		dj := doc.StateByID(ids[j]).DocOrder
		if di != dj {
			return di < dj
		}
		return oi < oj
	})
	res.toEnter = ids
	return res
}

// ResolveInitialLeaves expands stateID down to the set of atomic leaves its
// default initial (recursively, across parallel regions) configuration
// would activate. Used to seed a session's starting Configuration.
func ResolveInitialLeaves(doc *primitives.MachineConfig, stateID string) []string {
	s := doc.StateByID(stateID)
	if s == nil {
		return nil
	}
	switch s.Type {
	case primitives.Compound:
		if s.Initial == "" {
			return []string{stateID}
		}
		return ResolveInitialLeaves(doc, s.Initial)
	case primitives.Parallel:
		var out []string
		for _, c := range s.Children {
			out = append(out, ResolveInitialLeaves(doc, c.ID)...)
		}
		return out
	default:
		return []string{stateID}
	}
}
