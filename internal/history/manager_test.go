package history

import "testing"

func TestRecordAndRestore(t *testing.T) {
	m := New()
	if _, ok := m.Restore("h1"); ok {
		t.Fatal("expected no record before first visit")
	}
	m.Record("h1", []string{"s1", "s2"})
	got, ok := m.Restore("h1")
	if !ok {
		t.Fatal("expected a record")
	}
	if len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
		t.Fatalf("got %v", got)
	}
}

func TestRestoreReturnsCopy(t *testing.T) {
	m := New()
	m.Record("h1", []string{"s1"})
	got, _ := m.Restore("h1")
	got[0] = "mutated"
	got2, _ := m.Restore("h1")
	if got2[0] != "s1" {
		t.Fatal("internal record was mutated by caller")
	}
}

func TestClear(t *testing.T) {
	m := New()
	m.Record("h1", []string{"s1"})
	m.Clear("h1")
	if _, ok := m.Restore("h1"); ok {
		t.Fatal("expected record to be cleared")
	}
}
