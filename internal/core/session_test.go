package core

import (
	"testing"
	"time"

	"github.com/comalice/scxmlcore/internal/primitives"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func simpleDoc() primitives.MachineConfig {
	b := primitives.NewMachineBuilder("simple", "a")
	b.Atomic("a").Transition("go", "b")
	b.Atomic("b")
	return b.Build()
}

func TestSession_StartEntersInitialState(t *testing.T) {
	doc := simpleDoc()
	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if !s.IsIn("a") {
		t.Fatalf("expected session to be in state a, active=%v", s.ActiveStates())
	}
}

func TestSession_ExternalEventDrivesTransition(t *testing.T) {
	doc := simpleDoc()
	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.Dispatch("go", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("b") })
	if s.IsIn("a") {
		t.Error("expected a to have been exited")
	}
}

func TestSession_GuardedTransition(t *testing.T) {
	b := primitives.NewMachineBuilder("guarded", "a")
	b.Atomic("a").Transition("go", "b", primitives.TransitionConfig{
		Targets: []string{"b"},
		Guard:   "allow",
	})
	b.Atomic("b")
	doc := b.Build()

	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SetVariable("allow", false); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.Dispatch("go", nil)
	time.Sleep(30 * time.Millisecond)
	if !s.IsIn("a") {
		t.Fatal("transition should have been blocked by a false guard")
	}

	if err := s.AssignValue("allow", true); err != nil {
		t.Fatalf("AssignValue: %v", err)
	}
	s.Dispatch("go", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("b") })
}

func TestSession_EventlessTransitionFiresOnEntry(t *testing.T) {
	b := primitives.NewMachineBuilder("eventless", "a")
	b.Atomic("a").Transition("", "b")
	b.Atomic("b")
	doc := b.Build()

	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if !s.IsIn("b") {
		t.Fatalf("expected eventless transition to settle into b, active=%v", s.ActiveStates())
	}
}

// buildParallelDoc builds a <parallel> with two regions, each reaching its
// own <final>; entering both finals should raise done.state on the parallel
// and (since the parallel is the document's only top-level state) end the
// session. Built via direct struct construction rather than the fluent
// builder, since the fluent builder's stack-based Up() only pops compound
// nesting levels, not every intermediate atomic sibling.
func buildParallelDoc() primitives.MachineConfig {
	r1a := primitives.NewStateConfig("r1a", primitives.Atomic)
	r1a.AddTransition("done1", primitives.TransitionConfig{Targets: []string{"r1fin"}})
	r1fin := primitives.NewStateConfig("r1fin", primitives.Final)
	r1 := primitives.NewStateConfig("r1", primitives.Compound).WithInitial("r1a")
	r1.AddChild(r1a)
	r1.AddChild(r1fin)

	r2a := primitives.NewStateConfig("r2a", primitives.Atomic)
	r2a.AddTransition("done2", primitives.TransitionConfig{Targets: []string{"r2fin"}})
	r2fin := primitives.NewStateConfig("r2fin", primitives.Final)
	r2 := primitives.NewStateConfig("r2", primitives.Compound).WithInitial("r2a")
	r2.AddChild(r2a)
	r2.AddChild(r2fin)

	p := primitives.NewStateConfig("p", primitives.Parallel)
	p.AddChild(r1)
	p.AddChild(r2)

	doc := primitives.MachineConfig{
		ID:      "par",
		Initial: "p",
		States:  map[string]*primitives.StateConfig{"p": p},
	}
	if err := doc.Build(); err != nil {
		panic(err)
	}
	if err := doc.Validate(); err != nil {
		panic(err)
	}
	return doc
}

func TestSession_ParallelDoneStateEndsSession(t *testing.T) {
	doc := buildParallelDoc()
	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if !s.IsIn("r1a") || !s.IsIn("r2a") {
		t.Fatalf("expected both regions active initially, got %v", s.ActiveStates())
	}

	s.Dispatch("done1", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("r1fin") })

	s.Dispatch("done2", nil)
	waitFor(t, time.Second, s.Done)
}

// buildHistoryDoc builds outer(inner(i1,i2), h:deepHistory->i1) plus a
// sibling top-level "other", reached via outer's "leave" transition and
// returning to outer (restoring i2, if it was active) via h. Deep history is
// used rather than shallow because shallow history at the outer level only
// remembers that "inner" (its direct child) was active, not which of
// inner's own children was active — restoring through it would re-enter
// inner's default initial (i1), not i2. Built via direct struct
// construction for the same reason as buildParallelDoc.
func buildHistoryDoc() primitives.MachineConfig {
	i1 := primitives.NewStateConfig("i1", primitives.Atomic)
	i1.AddTransition("next", primitives.TransitionConfig{Targets: []string{"i2"}})
	i2 := primitives.NewStateConfig("i2", primitives.Atomic)
	inner := primitives.NewStateConfig("inner", primitives.Compound).WithInitial("i1")
	inner.AddChild(i1)
	inner.AddChild(i2)

	h := primitives.NewStateConfig("h", primitives.DeepHistory)
	h.AddTransition(primitives.EventlessKey, primitives.TransitionConfig{Targets: []string{"i1"}})

	outer := primitives.NewStateConfig("outer", primitives.Compound).WithInitial("inner")
	outer.AddChild(inner)
	outer.AddChild(h)
	outer.AddTransition("leave", primitives.TransitionConfig{Targets: []string{"other"}})

	other := primitives.NewStateConfig("other", primitives.Atomic)
	other.AddTransition("back", primitives.TransitionConfig{Targets: []string{"h"}})

	doc := primitives.MachineConfig{
		ID:      "hist",
		Initial: "outer",
		States: map[string]*primitives.StateConfig{
			"outer": outer,
			"other": other,
		},
	}
	if err := doc.Build(); err != nil {
		panic(err)
	}
	if err := doc.Validate(); err != nil {
		panic(err)
	}
	return doc
}

func TestSession_HistoryRestoresActiveChild(t *testing.T) {
	doc := buildHistoryDoc()

	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.Dispatch("next", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("i2") })

	s.Dispatch("leave", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("other") })

	s.Dispatch("back", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("i2") })
}

func TestSession_RaiseIsDeliveredWithinMacrostep(t *testing.T) {
	b := primitives.NewMachineBuilder("raise", "a")
	b.Atomic("a").Transition("go", "b", primitives.TransitionConfig{
		Targets: []string{"b"},
		Actions: []primitives.ActionRef{primitives.Raise("followup")},
	})
	b.Atomic("b").Transition("followup", "c")
	b.Atomic("c")
	doc := b.Build()

	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.Dispatch("go", nil)
	waitFor(t, time.Second, func() bool { return s.IsIn("c") })
}

func TestSession_StopIsIdempotent(t *testing.T) {
	doc := simpleDoc()
	s, err := New(&doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	s.Stop()
}

func TestSession_SnapshotReflectsActiveStates(t *testing.T) {
	doc := simpleDoc()
	s, err := New(&doc, WithSessionID("snap-session"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	snap := s.Snapshot()
	if snap.SessionID != "snap-session" {
		t.Errorf("SessionID = %q, want snap-session", snap.SessionID)
	}
	if snap.MachineID != "simple" {
		t.Errorf("MachineID = %q, want simple", snap.MachineID)
	}
	if len(snap.Active) != 1 || snap.Active[0] != "a" {
		t.Errorf("Active = %v, want [a]", snap.Active)
	}
}
