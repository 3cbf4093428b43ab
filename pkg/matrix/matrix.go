// Package matrix builds the pairwise member-similarity layers the
// multiplex network is fused from: roll-call vote agreement,
// cosponsorship overlap, and amendment-sponsorship overlap.
//
// All three builders produce a Symmetric matrix over member IDs. The
// matrices are recomputed from scratch for every analysis window and
// are never mutated afterwards.
package matrix

import "sort"

type pairKey struct {
	a, b string
}

func orderedKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Symmetric is a symmetric matrix over member IDs keyed by unordered
// pairs. A cell is either present with a value or absent; the two
// states are distinct, so callers can tell "no data" apart from a
// stored 0.0. The diagonal is undefined by construction: it can never
// be set and Get reports it absent.
type Symmetric struct {
	members map[string]struct{}
	cells   map[pairKey]float64
}

// NewSymmetric returns an empty matrix.
func NewSymmetric() *Symmetric {
	return &Symmetric{
		members: make(map[string]struct{}),
		cells:   make(map[pairKey]float64),
	}
}

// AddMember registers id without storing any cell. Builders register
// every input member so that the matrix reports membership even when a
// member ends up with no pairs.
func (s *Symmetric) AddMember(id string) {
	s.members[id] = struct{}{}
}

// HasMember reports whether id was registered.
func (s *Symmetric) HasMember(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Set stores v for the unordered pair {a, b} and registers both
// members. Setting the diagonal (a == b) is a no-op.
func (s *Symmetric) Set(a, b string, v float64) {
	if a == b {
		return
	}
	s.members[a] = struct{}{}
	s.members[b] = struct{}{}
	s.cells[orderedKey(a, b)] = v
}

// Get returns the value stored for the unordered pair {a, b} and
// whether such a cell exists.
func (s *Symmetric) Get(a, b string) (float64, bool) {
	if a == b {
		return 0, false
	}
	v, ok := s.cells[orderedKey(a, b)]
	return v, ok
}

// Members returns the registered member IDs in sorted order.
func (s *Symmetric) Members() []string {
	ids := make([]string, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered members.
func (s *Symmetric) Len() int {
	return len(s.members)
}

// PairCount returns the number of stored cells.
func (s *Symmetric) PairCount() int {
	return len(s.cells)
}
