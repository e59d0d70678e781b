package primitives

import (
	"strings"
	"testing"
)

func TestTransitionConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		tc          TransitionConfig
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid",
			tc:      TransitionConfig{Event: "click", Targets: []string{"next"}},
			wantErr: false,
		},
		{
			name:    "targetless is valid",
			tc:      TransitionConfig{Event: "click"},
			wantErr: false,
		},
		{
			name:    "eventless is valid",
			tc:      TransitionConfig{Targets: []string{"next"}},
			wantErr: false,
		},
		{
			name:        "negative priority",
			tc:          TransitionConfig{Event: "e", Targets: []string{"t"}, Priority: -1},
			wantErr:     true,
			errContains: "non-negative",
		},
		{
			name:        "empty target",
			tc:          TransitionConfig{Event: "e", Targets: []string{""}},
			wantErr:     true,
			errContains: "empty",
		},
		{
			name:        "invalid target char",
			tc:          TransitionConfig{Event: "e", Targets: []string{"invalid@state"}},
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "invalid transition type",
			tc:          TransitionConfig{Event: "e", Targets: []string{"t"}, Type: TransitionType("bogus")},
			wantErr:     true,
			errContains: "invalid transition type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tc.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf(`error "%v" does not contain "%s"`, err, tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestIsTargetlessAndEventless(t *testing.T) {
	targetless := TransitionConfig{Event: "e"}
	if !targetless.IsTargetless() {
		t.Error("expected targetless")
	}
	eventless := TransitionConfig{Targets: []string{"t"}}
	if !eventless.IsEventless() {
		t.Error("expected eventless")
	}
}
