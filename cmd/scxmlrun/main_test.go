package main

import "testing"

func TestParseEventLine(t *testing.T) {
	cases := []struct {
		line     string
		wantName string
		wantData any
	}{
		{"", "", nil},
		{"   ", "", nil},
		{"# a comment", "", nil},
		{"go", "go", nil},
		{`tick {"n": 3}`, "tick", map[string]any{"n": 3.0}},
		{"raw hello world", "raw", "hello world"},
	}
	for _, c := range cases {
		name, data := parseEventLine(c.line)
		if name != c.wantName {
			t.Errorf("parseEventLine(%q) name = %q, want %q", c.line, name, c.wantName)
		}
		switch want := c.wantData.(type) {
		case map[string]any:
			got, ok := data.(map[string]any)
			if !ok || len(got) != len(want) {
				t.Errorf("parseEventLine(%q) data = %#v, want %#v", c.line, data, want)
				continue
			}
			for k, v := range want {
				if got[k] != v {
					t.Errorf("parseEventLine(%q) data[%q] = %v, want %v", c.line, k, got[k], v)
				}
			}
		default:
			if data != c.wantData {
				t.Errorf("parseEventLine(%q) data = %#v, want %#v", c.line, data, c.wantData)
			}
		}
	}
}

func TestScriptFactory(t *testing.T) {
	if _, err := scriptFactory(""); err != nil {
		t.Errorf("default script factory: %v", err)
	}
	if _, err := scriptFactory("expr"); err != nil {
		t.Errorf("expr script factory: %v", err)
	}
	if _, err := scriptFactory("lua"); err != nil {
		t.Errorf("lua script factory: %v", err)
	}
	if _, err := scriptFactory("cobol"); err == nil {
		t.Error("expected error for unknown script host")
	}
}
