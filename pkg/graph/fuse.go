package graph

import (
	"fmt"

	"github.com/civicsignal/legisnet/pkg/matrix"
)

// LayerWeights holds the fusion coefficients for the three similarity
// layers. Weights must be non-negative and sum to at most 1.
type LayerWeights struct {
	Vote      float64 `json:"vote"`
	Cosponsor float64 `json:"cosponsor"`
	Amendment float64 `json:"amendment"`
}

// DefaultLayerWeights returns the standard fusion mix: 0.6 vote
// agreement, 0.3 cosponsorship, 0.1 amendments.
func DefaultLayerWeights() LayerWeights {
	return LayerWeights{Vote: 0.6, Cosponsor: 0.3, Amendment: 0.1}
}

// Validate rejects negative components and mixes summing above 1.
func (w LayerWeights) Validate() error {
	if w.Vote < 0 || w.Cosponsor < 0 || w.Amendment < 0 {
		return fmt.Errorf("layer weights must be non-negative, got %+v", w)
	}
	if sum := w.Vote + w.Cosponsor + w.Amendment; sum > 1 {
		return fmt.Errorf("layer weights sum to %v, must be at most 1", sum)
	}
	return nil
}

// Fuse combines the similarity layers into one weighted undirected
// graph. The node set is the intersection of the members present in
// the vote and cosponsorship matrices; when the amendment matrix is
// non-empty its members intersect as well, and when it is nil or empty
// its term is omitted rather than zero-filled. An edge is created only
// when the fused weight is strictly positive, so pairs similar in no
// layer stay disconnected.
func Fuse(vote, cosponsor, amendment *matrix.Symmetric, weights LayerWeights) (*Graph, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if vote == nil || cosponsor == nil {
		return nil, fmt.Errorf("vote and cosponsorship matrices are required")
	}

	useAmendment := amendment != nil && amendment.Len() > 0

	nodes := make([]string, 0, vote.Len())
	for _, id := range vote.Members() {
		if !cosponsor.HasMember(id) {
			continue
		}
		if useAmendment && !amendment.HasMember(id) {
			continue
		}
		nodes = append(nodes, id)
	}

	g := NewGraph()
	for _, id := range nodes {
		g.AddNode(id)
	}
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			w := 0.0
			if v, ok := vote.Get(nodes[i], nodes[j]); ok {
				w += weights.Vote * v
			}
			if c, ok := cosponsor.Get(nodes[i], nodes[j]); ok {
				w += weights.Cosponsor * c
			}
			if useAmendment {
				if a, ok := amendment.Get(nodes[i], nodes[j]); ok {
					w += weights.Amendment * a
				}
			}
			if w > 0 {
				g.AddEdge(nodes[i], nodes[j], w)
			}
		}
	}
	return g, nil
}
