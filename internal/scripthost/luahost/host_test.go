package luahost

import "testing"

func TestEvalAndAssign(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetVariable("x", 1.0); err != nil {
		t.Fatal(err)
	}
	if err := h.Assign("x", "x + 1"); err != nil {
		t.Fatal(err)
	}
	v, err := h.Get("x")
	if err != nil {
		t.Fatal(err)
	}
	if v != 2.0 {
		t.Fatalf("got %v, want 2", v)
	}
}

func TestScriptExecution(t *testing.T) {
	h, _ := New()
	if err := h.ExecuteScript("y = 10\nz = y * 2"); err != nil {
		t.Fatal(err)
	}
	v, err := h.Get("z")
	if err != nil {
		t.Fatal(err)
	}
	if v != 20.0 {
		t.Fatalf("got %v, want 20", v)
	}
}

func TestInPredicate(t *testing.T) {
	h, _ := New()
	h.SetInPredicate(func(id string) bool { return id == "active" })
	ok, err := h.EvalBool(`In("active")`)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected true")
	}
}

func TestNestedTableAssign(t *testing.T) {
	h, _ := New()
	if err := h.ExecuteScript("obj = {}"); err != nil {
		t.Fatal(err)
	}
	if err := h.AssignValue("obj.field", "hello"); err != nil {
		t.Fatal(err)
	}
	v, err := h.Eval("obj.field")
	if err != nil {
		t.Fatal(err)
	}
	if v != "hello" {
		t.Fatalf("got %v, want hello", v)
	}
}
