package matrix

import (
	"sort"

	"github.com/civicsignal/legisnet/pkg/legis"
)

// VoteAgreement builds the roll-call agreement matrix for the given
// members. For each pair, agreement is the share of roll calls where
// both cast the same countable vote, over the roll calls where both
// cast a countable (Yea or Nay) vote. Present and Not Voting records
// never count. A pair with no common countable roll calls gets 0.0,
// not an absent cell: total non-overlap is treated as maximal
// disagreement, and downstream averaging depends on that.
func VoteAgreement(members []legis.Member, votes []legis.Vote) *Symmetric {
	byMember := make(map[string]map[string]legis.VoteCode, len(members))
	for _, v := range votes {
		if !v.Code.Countable() {
			continue
		}
		positions, ok := byMember[v.MemberID]
		if !ok {
			positions = make(map[string]legis.VoteCode)
			byMember[v.MemberID] = positions
		}
		positions[v.RollcallID] = v.Code
	}

	ids := memberIDs(members)
	m := NewSymmetric()
	for _, id := range ids {
		m.AddMember(id)
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := byMember[ids[i]], byMember[ids[j]]
			// Walk the smaller vote map when counting overlap.
			if len(b) < len(a) {
				a, b = b, a
			}
			common, agree := 0, 0
			for rollcall, code := range a {
				other, ok := b[rollcall]
				if !ok {
					continue
				}
				common++
				if code == other {
					agree++
				}
			}
			rate := 0.0
			if common > 0 {
				rate = float64(agree) / float64(common)
			}
			m.Set(ids[i], ids[j], rate)
		}
	}
	return m
}

// CosponsorshipJaccard builds the cosponsorship-overlap matrix. Each
// member's set is the bills they cosponsored; pairwise similarity is
// the Jaccard index of the two sets. Only members appearing in the
// cosponsor records are included, so every set is non-empty.
func CosponsorshipJaccard(cosponsors []legis.Cosponsor) *Symmetric {
	sets := make(map[string]map[string]struct{})
	for _, c := range cosponsors {
		set, ok := sets[c.MemberID]
		if !ok {
			set = make(map[string]struct{})
			sets[c.MemberID] = set
		}
		set[c.BillID] = struct{}{}
	}
	return jaccardMatrix(sets)
}

// AmendmentJaccard builds the amendment-sponsorship-overlap matrix.
// Each member's set is the amendments they sponsored; records with an
// unknown sponsor are skipped.
func AmendmentJaccard(amendments []legis.Amendment) *Symmetric {
	sets := make(map[string]map[string]struct{})
	for _, a := range amendments {
		if a.SponsorID == "" {
			continue
		}
		set, ok := sets[a.SponsorID]
		if !ok {
			set = make(map[string]struct{})
			sets[a.SponsorID] = set
		}
		set[a.ID] = struct{}{}
	}
	return jaccardMatrix(sets)
}

func jaccardMatrix(sets map[string]map[string]struct{}) *Symmetric {
	ids := make([]string, 0, len(sets))
	for id := range sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	m := NewSymmetric()
	for _, id := range ids {
		m.AddMember(id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			m.Set(ids[i], ids[j], jaccard(sets[ids[i]], sets[ids[j]]))
		}
	}
	return m
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func memberIDs(members []legis.Member) []string {
	seen := make(map[string]struct{}, len(members))
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids
}
