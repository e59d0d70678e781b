package scxmlxml

import (
	"testing"

	"github.com/comalice/scxmlcore/internal/primitives"
)

func TestParse_FlatStatesAndTransition(t *testing.T) {
	doc := []byte(`<scxml xmlns="http://www.w3.org/2005/07/scxml" version="1.0" initial="a">
  <state id="a">
    <transition event="go" target="b"/>
  </state>
  <state id="b"/>
</scxml>`)

	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Initial != "a" {
		t.Errorf("Initial = %q, want a", cfg.Initial)
	}
	a, ok := cfg.States["a"]
	if !ok {
		t.Fatal("state a not found")
	}
	if a.Type != primitives.Atomic {
		t.Errorf("a.Type = %v, want Atomic", a.Type)
	}
	trans, ok := a.On["go"]
	if !ok || len(trans) != 1 {
		t.Fatalf("expected one transition on event go, got %v", a.On)
	}
	if len(trans[0].Targets) != 1 || trans[0].Targets[0] != "b" {
		t.Errorf("targets = %v, want [b]", trans[0].Targets)
	}

	if err := cfg.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_CompoundStateDefaultsInitialToFirstChild(t *testing.T) {
	doc := []byte(`<scxml xmlns="http://www.w3.org/2005/07/scxml" initial="outer">
  <state id="outer">
    <state id="i1">
      <transition event="next" target="i2"/>
    </state>
    <state id="i2"/>
  </state>
</scxml>`)

	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	outer := cfg.States["outer"]
	if outer.Type != primitives.Compound {
		t.Fatalf("outer.Type = %v, want Compound", outer.Type)
	}
	if outer.Initial != "i1" {
		t.Errorf("outer.Initial = %q, want i1 (first child)", outer.Initial)
	}
	if err := cfg.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_ParallelAndFinal(t *testing.T) {
	doc := []byte(`<scxml xmlns="http://www.w3.org/2005/07/scxml" initial="p">
  <parallel id="p">
    <state id="r1" initial="r1a">
      <state id="r1a">
        <transition event="done1" target="r1fin"/>
      </state>
      <final id="r1fin"/>
    </state>
    <state id="r2" initial="r2a">
      <state id="r2a">
        <transition event="done2" target="r2fin"/>
      </state>
      <final id="r2fin"/>
    </state>
  </parallel>
</scxml>`)

	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := cfg.States["p"]
	if p.Type != primitives.Parallel {
		t.Fatalf("p.Type = %v, want Parallel", p.Type)
	}
	if len(p.Children) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(p.Children))
	}

	// Build populates cfg.States with every nested descendant, not just
	// the top-level entries Parse adds directly.
	if err := cfg.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.States["r1fin"].Type != primitives.Final {
		t.Errorf("r1fin.Type = %v, want Final", cfg.States["r1fin"].Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_DeepHistoryDefaultTarget(t *testing.T) {
	doc := []byte(`<scxml xmlns="http://www.w3.org/2005/07/scxml" initial="outer">
  <state id="outer" initial="inner">
    <state id="inner" initial="i1">
      <state id="i1">
        <transition event="next" target="i2"/>
      </state>
      <state id="i2"/>
    </state>
    <history id="h" type="deep">
      <transition target="i1"/>
    </history>
    <transition event="leave" target="outer"/>
  </state>
</scxml>`)

	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := cfg.States["h"]
	if h.Type != primitives.DeepHistory {
		t.Fatalf("h.Type = %v, want DeepHistory", h.Type)
	}
	defaults := h.On[primitives.EventlessKey]
	if len(defaults) != 1 || len(defaults[0].Targets) != 1 || defaults[0].Targets[0] != "i1" {
		t.Errorf("history default transition = %v, want single target i1", defaults)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_ExecutableContentAndDatamodel(t *testing.T) {
	doc := []byte(`<scxml xmlns="http://www.w3.org/2005/07/scxml" initial="a">
  <datamodel>
    <data id="count" expr="0"/>
  </datamodel>
  <state id="a">
    <onentry>
      <assign location="count" expr="count + 1"/>
      <if cond="count gt 1">
        <raise event="over"/>
      <else/>
        <log label="first" expr="count"/>
      </if>
    </onentry>
    <transition event="go" target="b">
      <send event="followup" delay="100ms"/>
    </transition>
  </state>
  <state id="b"/>
</scxml>`)

	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := cfg.States["a"]
	if len(a.Data) != 1 || a.Data[0].ID != "count" {
		t.Fatalf("expected top-level datamodel bound to initial state a, got %v", a.Data)
	}
	if len(a.Entry) != 2 {
		t.Fatalf("expected 2 entry actions, got %d", len(a.Entry))
	}
	ifAct, ok := a.Entry[1].(primitives.Action)
	if !ok || ifAct.Kind != primitives.ActionIf {
		t.Fatalf("expected second entry action to be an if, got %#v", a.Entry[1])
	}
	if len(ifAct.If.Branches) != 2 {
		t.Fatalf("expected if/else to produce 2 branches, got %d", len(ifAct.If.Branches))
	}
	trans := a.On["go"][0]
	if len(trans.Actions) != 1 {
		t.Fatalf("expected 1 transition action, got %d", len(trans.Actions))
	}
	sendAct, ok := trans.Actions[0].(primitives.Action)
	if !ok || sendAct.Kind != primitives.ActionSend || sendAct.Send.Delay != "100ms" {
		t.Fatalf("expected send action with 100ms delay, got %#v", trans.Actions[0])
	}

	if err := cfg.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_RejectsNonSCXMLRoot(t *testing.T) {
	_, err := Parse([]byte(`<foo/>`))
	if err == nil {
		t.Fatal("expected error for non-scxml root element")
	}
}
