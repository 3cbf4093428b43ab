package graph

import "sort"

// EdgeDensityConfig tunes the edge-weight clustering detector.
type EdgeDensityConfig struct {
	// Eps is the maximum weight distance between two edges considered
	// neighbors.
	Eps float64
	// MinEdges is the minimum neighborhood size (the edge itself
	// included) for an edge to seed a cluster.
	MinEdges int
}

// DefaultEdgeDensityConfig returns the standard tuning.
func DefaultEdgeDensityConfig() EdgeDensityConfig {
	return EdgeDensityConfig{Eps: 0.1, MinEdges: 2}
}

// EdgeDensityDetector clusters the graph's edges by weight with a
// one-dimensional density scan, then unions each edge cluster's
// endpoints into a community. Edges in no dense region are noise and
// contribute nothing. Communities can overlap: a member appears in
// every cluster one of its edges lands in. Clustering on a single
// scalar often produces one large cluster or mostly noise; that
// behavior is inherited from the strategy itself.
type EdgeDensityDetector struct {
	cfg EdgeDensityConfig
}

// NewEdgeDensityDetector returns a detector with cfg; zero-valued
// fields fall back to the defaults.
func NewEdgeDensityDetector(cfg EdgeDensityConfig) *EdgeDensityDetector {
	def := DefaultEdgeDensityConfig()
	if cfg.Eps <= 0 {
		cfg.Eps = def.Eps
	}
	if cfg.MinEdges <= 0 {
		cfg.MinEdges = def.MinEdges
	}
	return &EdgeDensityDetector{cfg: cfg}
}

// Detect clusters g's edges. An edgeless graph yields no communities.
func (d *EdgeDensityDetector) Detect(g *Graph) ([]Community, error) {
	edges := g.Edges()
	if len(edges) == 0 {
		return nil, nil
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight < edges[j].Weight
		}
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})

	labels := d.scan(edges)

	clusters := make(map[int]map[string]struct{})
	order := make([]int, 0)
	for i, label := range labels {
		if label < 0 {
			continue
		}
		set, ok := clusters[label]
		if !ok {
			set = make(map[string]struct{})
			clusters[label] = set
			order = append(order, label)
		}
		set[edges[i].A] = struct{}{}
		set[edges[i].B] = struct{}{}
	}
	sort.Ints(order)

	result := make([]Community, 0, len(order))
	for _, label := range order {
		members := make([]string, 0, len(clusters[label]))
		for id := range clusters[label] {
			members = append(members, id)
		}
		sort.Strings(members)
		result = append(result, Community(members))
	}
	return result, nil
}

// scan runs density clustering over the weight-sorted edges. Since the
// values are one-dimensional, each edge's neighborhood is a contiguous
// index range found with two moving bounds.
func (d *EdgeDensityDetector) scan(edges []Edge) []int {
	n := len(edges)
	lo := make([]int, n)
	hi := make([]int, n)
	l, h := 0, 0
	for i := 0; i < n; i++ {
		for edges[i].Weight-edges[l].Weight > d.cfg.Eps {
			l++
		}
		if h < i {
			h = i
		}
		for h+1 < n && edges[h+1].Weight-edges[i].Weight <= d.cfg.Eps {
			h++
		}
		lo[i], hi[i] = l, h
	}

	const noise = -1
	labels := make([]int, n)
	visited := make([]bool, n)
	for i := range labels {
		labels[i] = noise
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		if hi[i]-lo[i]+1 < d.cfg.MinEdges {
			continue
		}

		labels[i] = cluster
		queue := make([]int, 0, hi[i]-lo[i])
		for j := lo[i]; j <= hi[i]; j++ {
			if j != i {
				queue = append(queue, j)
			}
		}
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == noise {
				labels[j] = cluster
			}
			if visited[j] {
				continue
			}
			visited[j] = true
			labels[j] = cluster
			if hi[j]-lo[j]+1 >= d.cfg.MinEdges {
				for k := lo[j]; k <= hi[j]; k++ {
					if !visited[k] || labels[k] == noise {
						queue = append(queue, k)
					}
				}
			}
		}
		cluster++
	}
	return labels
}
