package primitives

import "testing"

func TestNewEvent(t *testing.T) {
	e := NewEvent("test", 42)
	if e.Name != "test" {
		t.Errorf("got Name=%q want test", e.Name)
	}
	if e.Kind != EventExternal {
		t.Errorf("got Kind=%q want external", e.Kind)
	}
	if v, ok := e.Data.(int); !ok || v != 42 {
		t.Errorf("got Data=%v (%T) want 42", e.Data, e.Data)
	}
}

func TestEventImmutability(t *testing.T) {
	e := NewEvent("test", 42)
	eCopy := e
	eCopy.Name = "modified"
	eCopy.Data = "changed"
	if e.Name != "test" {
		t.Error("original Name was mutated")
	}
	if v, ok := e.Data.(int); !ok || v != 42 {
		t.Error("original Data was mutated")
	}
}

func TestDescriptorMatches(t *testing.T) {
	cases := []struct {
		descriptor, event string
		want              bool
	}{
		{"*", "anything", true},
		{"error", "error", true},
		{"error", "error.execution", true},
		{"error.*", "error.execution", true},
		{"error", "errors", false},
		{"foo", "bar", false},
	}
	for _, c := range cases {
		if got := DescriptorMatches(c.descriptor, c.event); got != c.want {
			t.Errorf("DescriptorMatches(%q,%q) = %v, want %v", c.descriptor, c.event, got, c.want)
		}
	}
}

func TestAnyDescriptorMatches(t *testing.T) {
	if !AnyDescriptorMatches("foo bar baz.*", "baz.qux") {
		t.Error("expected match on baz.*")
	}
	if AnyDescriptorMatches("foo bar", "baz") {
		t.Error("expected no match")
	}
}
