// Package graph holds the fused member-similarity network and the two
// coalition detection strategies that partition it: modularity-based
// local moving and density-based edge clustering.
package graph

import "sort"

// Graph is a weighted undirected graph over member IDs. Edge weights
// are the fused similarity values; self-loops cannot exist. The graph
// is built once per analysis run and read-only afterwards.
type Graph struct {
	nodes map[string]struct{}
	adj   map[string]map[string]float64
	edges int
}

// Edge is one undirected edge. A < B always holds, so an edge has a
// single canonical representation.
type Edge struct {
	A      string
	B      string
	Weight float64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		adj:   make(map[string]map[string]float64),
	}
}

// AddNode registers id. Nodes may stay isolated; they still count for
// density.
func (g *Graph) AddNode(id string) {
	g.nodes[id] = struct{}{}
}

// AddEdge stores an undirected edge between a and b, registering both
// nodes. Re-adding an existing edge overwrites its weight. Self-loops
// are ignored.
func (g *Graph) AddEdge(a, b string, weight float64) {
	if a == b {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	if _, exists := g.adj[a][b]; !exists {
		g.edges++
	}
	if g.adj[a] == nil {
		g.adj[a] = make(map[string]float64)
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[string]float64)
	}
	g.adj[a][b] = weight
	g.adj[b][a] = weight
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Weight returns the edge weight between a and b and whether the edge
// exists.
func (g *Graph) Weight(a, b string) (float64, bool) {
	w, ok := g.adj[a][b]
	return w, ok
}

// Neighbors returns the IDs adjacent to id in sorted order.
func (g *Graph) Neighbors(id string) []string {
	out := make([]string, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Nodes returns all node IDs in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Edges returns all edges sorted by (A, B).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for a, neighbors := range g.adj {
		for b, w := range neighbors {
			if a < b {
				out = append(out, Edge{A: a, B: b, Weight: w})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Density returns 2m / (n*(n-1)), the share of possible edges present.
// Graphs with fewer than two nodes have density 0.
func (g *Graph) Density() float64 {
	n := len(g.nodes)
	if n < 2 {
		return 0
	}
	return 2 * float64(g.edges) / (float64(n) * float64(n-1))
}
