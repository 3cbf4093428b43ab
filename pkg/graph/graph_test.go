package graph

import (
	"math"
	"reflect"
	"testing"
)

func TestGraphAddEdge(t *testing.T) {
	g := NewGraph()
	g.AddEdge("B", "A", 0.5)

	if w, ok := g.Weight("A", "B"); !ok || w != 0.5 {
		t.Errorf("Weight(A, B) = %v, %v, want 0.5, true", w, ok)
	}
	if w, ok := g.Weight("B", "A"); !ok || w != 0.5 {
		t.Errorf("Weight(B, A) = %v, %v, want 0.5, true", w, ok)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestGraphAddEdgeOverwrites(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", 0.5)
	g.AddEdge("A", "B", 0.9)

	if w, _ := g.Weight("A", "B"); w != 0.9 {
		t.Errorf("Weight(A, B) = %v, want 0.9", w)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestGraphIgnoresSelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "A", 1.0)

	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestGraphNodesAndNeighborsSorted(t *testing.T) {
	g := NewGraph()
	g.AddEdge("C", "A", 0.1)
	g.AddEdge("C", "B", 0.2)
	g.AddNode("D")

	if got, want := g.Nodes(), []string{"A", "B", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
	if got, want := g.Neighbors("C"), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors(C) = %v, want %v", got, want)
	}
}

func TestGraphEdgesCanonical(t *testing.T) {
	g := NewGraph()
	g.AddEdge("B", "A", 0.4)
	g.AddEdge("C", "B", 0.6)

	want := []Edge{
		{A: "A", B: "B", Weight: 0.4},
		{A: "B", B: "C", Weight: 0.6},
	}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestGraphDensity(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Graph
		want  float64
	}{
		{
			name:  "empty graph",
			build: NewGraph,
			want:  0,
		},
		{
			name: "single node",
			build: func() *Graph {
				g := NewGraph()
				g.AddNode("A")
				return g
			},
			want: 0,
		},
		{
			name: "path of three",
			build: func() *Graph {
				g := NewGraph()
				g.AddEdge("A", "B", 1)
				g.AddEdge("B", "C", 1)
				return g
			},
			want: 2.0 / 3.0,
		},
		{
			name: "complete triangle",
			build: func() *Graph {
				g := NewGraph()
				g.AddEdge("A", "B", 1)
				g.AddEdge("B", "C", 1)
				g.AddEdge("A", "C", 1)
				return g
			},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build().Density()
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Density() = %v, want %v", got, tt.want)
			}
		})
	}
}
