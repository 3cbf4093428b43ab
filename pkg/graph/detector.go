package graph

// Community is one detected coalition: a sorted set of member IDs.
type Community []string

// Detector partitions a fused similarity graph into communities. The
// two implementations differ in membership semantics: the modularity
// detector assigns every node to exactly one community, while the
// edge-density detector unions edge-cluster endpoints and may place a
// member in several communities. Callers pick one strategy per run and
// interpret results accordingly.
type Detector interface {
	Detect(g *Graph) ([]Community, error)
}
