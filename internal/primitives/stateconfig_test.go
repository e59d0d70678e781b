package primitives

import (
	"strings"
	"testing"
)

func TestStateConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		newConfig   func() *StateConfig
		wantErr     bool
		errContains string
	}{
		{
			name: "valid atomic",
			newConfig: func() *StateConfig {
				return NewStateConfig("atomic", Atomic)
			},
			wantErr: false,
		},
		{
			name: "missing ID",
			newConfig: func() *StateConfig {
				return NewStateConfig("", Atomic)
			},
			wantErr:     true,
			errContains: "ID is required",
		},
		{
			name: "invalid type",
			newConfig: func() *StateConfig {
				return NewStateConfig("bad", StateType("invalid"))
			},
			wantErr:     true,
			errContains: "invalid state type",
		},
		{
			name: "atomic with initial",
			newConfig: func() *StateConfig {
				return NewStateConfig("atomic", Atomic).WithInitial("foo")
			},
			wantErr:     true,
			errContains: "cannot have Initial",
		},
		{
			name: "atomic with children",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				return NewStateConfig("atomic", Atomic).WithChildren([]*StateConfig{child})
			},
			wantErr:     true,
			errContains: "cannot have Children",
		},
		{
			name: "compound no initial",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				return NewStateConfig("compound", Compound).WithChildren([]*StateConfig{child})
			},
			wantErr:     true,
			errContains: "requires Initial child",
		},
		{
			name: "compound invalid initial",
			newConfig: func() *StateConfig {
				return NewStateConfig("compound", Compound).WithInitial("missing").WithChildren([]*StateConfig{NewStateConfig("other", Atomic)})
			},
			wantErr:     true,
			errContains: "initial child \"missing\"",
		},
		{
			name: "valid compound",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				return NewStateConfig("compound", Compound).WithInitial("child").WithChildren([]*StateConfig{child})
			},
			wantErr: false,
		},
		{
			name: "valid parallel",
			newConfig: func() *StateConfig {
				child1 := NewStateConfig("ch1", Atomic)
				child2 := NewStateConfig("ch2", Atomic)
				return NewStateConfig("parallel", Parallel).WithChildren([]*StateConfig{child1, child2})
			},
			wantErr: false,
		},
		{
			name: "parallel with final direct child",
			newConfig: func() *StateConfig {
				child1 := NewStateConfig("ch1", Final)
				child2 := NewStateConfig("ch2", Atomic)
				return NewStateConfig("parallel", Parallel).WithChildren([]*StateConfig{child1, child2})
			},
			wantErr:     true,
			errContains: "cannot have a",
		},
		{
			name: "history with children",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				s := NewStateConfig("history", ShallowHistory)
				s.Children = []*StateConfig{child}
				return s
			},
			wantErr:     true,
			errContains: "cannot have Children",
		},
		{
			name: "history without default transition",
			newConfig: func() *StateConfig {
				return NewStateConfig("shallow", ShallowHistory)
			},
			wantErr:     true,
			errContains: "default transition",
		},
		{
			name: "valid shallow history",
			newConfig: func() *StateConfig {
				return NewStateConfig("shallow", ShallowHistory).AddTransition(EventlessKey, TransitionConfig{Targets: []string{"child"}})
			},
			wantErr: false,
		},
		{
			name: "valid deep history",
			newConfig: func() *StateConfig {
				return NewStateConfig("deep", DeepHistory).AddTransition(EventlessKey, TransitionConfig{Targets: []string{"child"}})
			},
			wantErr: false,
		},
		{
			name: "final with event transition",
			newConfig: func() *StateConfig {
				return NewStateConfig("f", Final).AddTransition("go", TransitionConfig{Targets: []string{"other"}})
			},
			wantErr:     true,
			errContains: "cannot have event transitions",
		},
		{
			name: "invalid child recursive",
			newConfig: func() *StateConfig {
				goodChild := NewStateConfig("good", Atomic)
				badChild := NewStateConfig("", Atomic)
				parent := NewStateConfig("parent", Compound).WithInitial("good").WithChildren([]*StateConfig{goodChild, badChild})
				return parent
			},
			wantErr:     true,
			errContains: "ID is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := tt.newConfig()
			err := sc.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf(`Validate() error = "%v", want contains "%s"`, err, tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestEventTransitionsAndEventless(t *testing.T) {
	s := NewStateConfig("s", Atomic)
	s.AddTransition("foo.bar", TransitionConfig{Targets: []string{"t1"}})
	s.AddTransition(EventlessKey, TransitionConfig{Targets: []string{"t2"}})

	if got := s.EventTransitions("foo.bar.baz"); len(got) != 1 {
		t.Fatalf("EventTransitions: got %d, want 1", len(got))
	}
	if got := s.EventlessTransitions(); len(got) != 1 {
		t.Fatalf("EventlessTransitions: got %d, want 1", len(got))
	}
}
