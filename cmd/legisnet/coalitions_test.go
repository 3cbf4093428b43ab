package main

import (
	"strings"
	"testing"

	"github.com/civicsignal/legisnet/pkg/graph"
)

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    graph.LayerWeights
		wantErr string
	}{
		{
			name:  "empty selects default mix",
			input: "",
			want:  graph.LayerWeights{Vote: 0.6, Cosponsor: 0.3, Amendment: 0.1},
		},
		{
			name:  "explicit mix",
			input: "0.5,0.4,0.1",
			want:  graph.LayerWeights{Vote: 0.5, Cosponsor: 0.4, Amendment: 0.1},
		},
		{
			name:  "spaces tolerated",
			input: " 0.7, 0.2, 0.1",
			want:  graph.LayerWeights{Vote: 0.7, Cosponsor: 0.2, Amendment: 0.1},
		},
		{
			name:    "wrong arity",
			input:   "0.5,0.5",
			wantErr: "vote,cosponsor,amendment",
		},
		{
			name:    "not a number",
			input:   "a,b,c",
			wantErr: "invalid weight",
		},
		{
			name:    "negative component",
			input:   "-0.1,0.6,0.1",
			wantErr: "non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeights(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("parseWeights(%q) expected error containing %q, got nil", tt.input, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseWeights(%q) error = %v, want containing %q", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWeights(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseWeights(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRootCmdWiring(t *testing.T) {
	cmd := rootCmd()

	want := []string{"coalitions", "predict", "enqueue", "schema", "migrate"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("rootCmd() missing subcommand %q", name)
		}
	}
}
