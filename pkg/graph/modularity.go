package graph

import (
	"math/rand"
	"sort"
)

// ModularityConfig tunes the modularity detector.
type ModularityConfig struct {
	// Resolution scales the null-model term; higher values produce
	// more, smaller communities.
	Resolution float64
	// MaxIterations bounds the local-moving passes.
	MaxIterations int
	// MinDelta is the smallest modularity gain worth a move.
	MinDelta float64
	// Seed fixes the node visit order; a given seed always yields the
	// same partition.
	Seed int64
}

// DefaultModularityConfig returns the standard tuning.
func DefaultModularityConfig() ModularityConfig {
	return ModularityConfig{
		Resolution:    1.0,
		MaxIterations: 10,
		MinDelta:      0.0001,
		Seed:          42,
	}
}

// ModularityDetector assigns every node to exactly one community by
// greedy local moving: nodes are visited in seeded-shuffle order and
// moved to the neighboring community with the largest modularity gain
// until no move clears MinDelta.
type ModularityDetector struct {
	cfg ModularityConfig
}

// NewModularityDetector returns a detector with cfg; zero-valued
// tuning fields fall back to the defaults.
func NewModularityDetector(cfg ModularityConfig) *ModularityDetector {
	def := DefaultModularityConfig()
	if cfg.Resolution <= 0 {
		cfg.Resolution = def.Resolution
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.MinDelta <= 0 {
		cfg.MinDelta = def.MinDelta
	}
	return &ModularityDetector{cfg: cfg}
}

type modularityState struct {
	cfg ModularityConfig
	rng *rand.Rand

	adj          map[string]map[string]float64
	nodeStrength map[string]float64
	totalWeight  float64

	nodeToComm map[string]int
	commNodes  map[int][]string
}

// Detect partitions g. An empty graph yields no communities.
func (d *ModularityDetector) Detect(g *Graph) ([]Community, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, nil
	}

	s := &modularityState{
		cfg:          d.cfg,
		rng:          rand.New(rand.NewSource(d.cfg.Seed)),
		adj:          g.adj,
		nodeStrength: make(map[string]float64, len(nodes)),
		nodeToComm:   make(map[string]int, len(nodes)),
		commNodes:    make(map[int][]string, len(nodes)),
	}
	for _, id := range nodes {
		for _, w := range g.adj[id] {
			s.nodeStrength[id] += w
		}
	}
	for _, e := range g.Edges() {
		s.totalWeight += e.Weight
	}

	// Start with every node in its own community, numbered in sorted
	// node order so runs are reproducible.
	for i, id := range nodes {
		s.nodeToComm[id] = i
		s.commNodes[i] = []string{id}
	}

	for iter := 0; iter < s.cfg.MaxIterations; iter++ {
		if !s.moveNodes(nodes) {
			break
		}
	}

	commIDs := make([]int, 0, len(s.commNodes))
	for id, members := range s.commNodes {
		if len(members) > 0 {
			commIDs = append(commIDs, id)
		}
	}
	sort.Ints(commIDs)

	result := make([]Community, 0, len(commIDs))
	for _, id := range commIDs {
		members := append([]string(nil), s.commNodes[id]...)
		sort.Strings(members)
		result = append(result, Community(members))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result, nil
}

func (s *modularityState) moveNodes(sorted []string) bool {
	nodes := append([]string(nil), sorted...)
	s.rng.Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})

	improved := false
	for _, id := range nodes {
		current := s.nodeToComm[id]

		bestComm := current
		bestDelta := 0.0
		for _, comm := range s.neighborCommunities(id) {
			if comm == current {
				continue
			}
			if delta := s.modularityGain(id, current, comm); delta > bestDelta {
				bestDelta = delta
				bestComm = comm
			}
		}

		if bestComm != current && bestDelta > s.cfg.MinDelta {
			s.moveNode(id, current, bestComm)
			improved = true
		}
	}
	return improved
}

// neighborCommunities returns the communities adjacent to id, sorted so
// equal gains always break toward the same community.
func (s *modularityState) neighborCommunities(id string) []int {
	seen := map[int]struct{}{s.nodeToComm[id]: {}}
	for neighbor := range s.adj[id] {
		seen[s.nodeToComm[neighbor]] = struct{}{}
	}
	comms := make([]int, 0, len(seen))
	for c := range seen {
		comms = append(comms, c)
	}
	sort.Ints(comms)
	return comms
}

func (s *modularityState) modularityGain(id string, oldComm, newComm int) float64 {
	if s.totalWeight == 0 {
		return 0
	}

	ki := s.nodeStrength[id]
	m2 := 2 * s.totalWeight

	kiIn := 0.0
	for _, member := range s.commNodes[newComm] {
		if w, ok := s.adj[id][member]; ok {
			kiIn += w
		}
	}
	kiOut := 0.0
	for _, member := range s.commNodes[oldComm] {
		if member == id {
			continue
		}
		if w, ok := s.adj[id][member]; ok {
			kiOut += w
		}
	}

	sigmaIn := 0.0
	for _, member := range s.commNodes[newComm] {
		sigmaIn += s.nodeStrength[member]
	}
	sigmaOut := 0.0
	for _, member := range s.commNodes[oldComm] {
		if member == id {
			continue
		}
		sigmaOut += s.nodeStrength[member]
	}

	gain := (kiIn - kiOut) / m2
	gain -= s.cfg.Resolution * ki * (sigmaIn - sigmaOut) / (m2 * m2)
	return gain
}

func (s *modularityState) moveNode(id string, oldComm, newComm int) {
	members := s.commNodes[oldComm]
	for i, member := range members {
		if member == id {
			s.commNodes[oldComm] = append(members[:i], members[i+1:]...)
			break
		}
	}
	s.commNodes[newComm] = append(s.commNodes[newComm], id)
	s.nodeToComm[id] = newComm
}
