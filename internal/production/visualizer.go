// Package production provides production integrations: persistence, event
// publishing, visualization. Implements core interfaces using stdlib where
// possible.
package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/scxmlcore/internal/primitives"
)

// DefaultVisualizer renders a MachineConfig as Graphviz DOT or JSON using
// only the standard library.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the statechart. current holds
// the flat, globally-unique ids of every currently active state (a
// Session.ActiveStates() snapshot), not dot-joined paths.
func (v *DefaultVisualizer) ExportDOT(config primitives.MachineConfig, current []string) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Statechart {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	active := make(map[string]bool, len(current))
	for _, id := range current {
		active[id] = true
	}
	edges := collectEdges(config)
	roots := findRoots(config)

	for _, root := range roots {
		renderState(&buf, root, config, active)
	}

	for _, edge := range edges {
		buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n", edge.From, edge.To, edge.Label))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the machine config to JSON.
func (v *DefaultVisualizer) ExportJSON(config primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

// Edge represents a transition edge. A transition with multiple targets
// (a parallel-region convergent transition) contributes one Edge per
// target.
type Edge struct {
	From  string
	To    string
	Label string
}

// collectEdges collects every transition in the document as one or more
// edges.
func collectEdges(config primitives.MachineConfig) []Edge {
	var edges []Edge
	for _, state := range config.States {
		for event, transList := range state.On {
			for _, trans := range transList {
				for _, target := range trans.Targets {
					targetState, err := config.FindState(target)
					if err == nil && targetState != nil {
						label := event
						if label == "" {
							label = "ε"
						}
						edges = append(edges, Edge{From: state.ID, To: targetState.ID, Label: label})
					}
				}
			}
		}
	}
	return edges
}

// findRoots finds top-level states (not children of any state).
func findRoots(config primitives.MachineConfig) []*primitives.StateConfig {
	childIDs := make(map[string]bool)
	for _, s := range config.States {
		for _, c := range s.Children {
			childIDs[c.ID] = true
		}
	}
	var roots []*primitives.StateConfig
	for _, s := range config.States {
		if !childIDs[s.ID] {
			roots = append(roots, s)
		}
	}
	return roots
}

// renderState recursively renders states and subgraphs.
func renderState(buf *bytes.Buffer, state *primitives.StateConfig, config primitives.MachineConfig, active map[string]bool) {
	if len(state.Children) > 0 {
		clusterID := fmt.Sprintf("cluster_%s", state.ID)
		buf.WriteString(fmt.Sprintf("  subgraph %s {\n", clusterID))
		parentLabel := fmt.Sprintf("%s (%s)", state.ID, state.Type)
		parentStyle := ""
		if active[state.ID] {
			parentStyle = " style=filled fillcolor=orange"
		}
		buf.WriteString(fmt.Sprintf("    label=\"%s\"%s;\n", parentLabel, parentStyle))
		if state.Type == primitives.Parallel {
			buf.WriteString("    style=filled fillcolor=lightblue;\n")
		}

		buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\" shape=ellipse%s];\n", state.ID, state.ID, parentStyle))

		for _, child := range state.Children {
			renderState(buf, child, config, active)
		}

		buf.WriteString("  }\n")
	} else {
		style := ""
		if active[state.ID] {
			style = " style=filled fillcolor=lightgreen"
		}
		buf.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\"%s];\n", state.ID, state.ID, style))
	}
}
