package matrix

import (
	"testing"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
)

func members(ids ...string) []legis.Member {
	out := make([]legis.Member, len(ids))
	for i, id := range ids {
		out[i] = legis.Member{ID: id}
	}
	return out
}

func TestVoteAgreementIdenticalAndOpposite(t *testing.T) {
	votes := []legis.Vote{
		{RollcallID: "rc1", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc2", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc3", MemberID: "M1", Code: legis.VoteNay},
		{RollcallID: "rc1", MemberID: "M2", Code: legis.VoteYea},
		{RollcallID: "rc2", MemberID: "M2", Code: legis.VoteYea},
		{RollcallID: "rc3", MemberID: "M2", Code: legis.VoteNay},
		{RollcallID: "rc1", MemberID: "M3", Code: legis.VoteNay},
		{RollcallID: "rc2", MemberID: "M3", Code: legis.VoteNay},
		{RollcallID: "rc3", MemberID: "M3", Code: legis.VoteYea},
	}

	m := VoteAgreement(members("M1", "M2", "M3"), votes)

	tests := []struct {
		a, b string
		want float64
	}{
		{"M1", "M2", 1.0},
		{"M1", "M3", 0.0},
		{"M2", "M3", 0.0},
	}
	for _, tt := range tests {
		got, ok := m.Get(tt.a, tt.b)
		if !ok {
			t.Fatalf("Get(%s, %s) reported no cell", tt.a, tt.b)
		}
		if got != tt.want {
			t.Errorf("agreement(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVoteAgreementCountsOnlyYeaNay(t *testing.T) {
	votes := []legis.Vote{
		{RollcallID: "rc1", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc1", MemberID: "M2", Code: legis.VoteYea},
		// rc2 is not a common countable roll call: M2 voted Present.
		{RollcallID: "rc2", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc2", MemberID: "M2", Code: legis.VotePresent},
		{RollcallID: "rc3", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc3", MemberID: "M2", Code: legis.VoteNay},
		{RollcallID: "rc4", MemberID: "M1", Code: legis.VoteNotVoting},
		{RollcallID: "rc4", MemberID: "M2", Code: legis.VoteNay},
	}

	m := VoteAgreement(members("M1", "M2"), votes)

	got, ok := m.Get("M1", "M2")
	if !ok {
		t.Fatal("Get(M1, M2) reported no cell")
	}
	if got != 0.5 {
		t.Errorf("agreement(M1, M2) = %v, want 0.5", got)
	}
}

func TestVoteAgreementNoCommonVotesIsZero(t *testing.T) {
	votes := []legis.Vote{
		{RollcallID: "rc1", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc2", MemberID: "M2", Code: legis.VoteNay},
	}

	m := VoteAgreement(members("M1", "M2"), votes)

	got, ok := m.Get("M1", "M2")
	if !ok {
		t.Fatal("pair with no common roll calls should still hold a cell")
	}
	if got != 0.0 {
		t.Errorf("agreement(M1, M2) = %v, want 0.0", got)
	}
}

func TestVoteAgreementRegistersNonVoters(t *testing.T) {
	m := VoteAgreement(members("M1", "M2"), []legis.Vote{
		{RollcallID: "rc1", MemberID: "M1", Code: legis.VoteYea},
	})

	if !m.HasMember("M2") {
		t.Error("member without votes missing from matrix")
	}
	if got, ok := m.Get("M1", "M2"); !ok || got != 0.0 {
		t.Errorf("Get(M1, M2) = %v, %v, want 0.0, true", got, ok)
	}
}

func TestVoteAgreementIdempotent(t *testing.T) {
	votes := []legis.Vote{
		{RollcallID: "rc1", MemberID: "M1", Code: legis.VoteYea},
		{RollcallID: "rc1", MemberID: "M2", Code: legis.VoteNay},
		{RollcallID: "rc2", MemberID: "M1", Code: legis.VoteNay},
		{RollcallID: "rc2", MemberID: "M2", Code: legis.VoteNay},
	}
	roster := members("M1", "M2")

	first := VoteAgreement(roster, votes)
	second := VoteAgreement(roster, votes)

	a, _ := first.Get("M1", "M2")
	b, _ := second.Get("M1", "M2")
	if a != b {
		t.Errorf("repeated build disagrees: %v vs %v", a, b)
	}
}

func cosponsor(billID, memberID string) legis.Cosponsor {
	return legis.Cosponsor{BillID: billID, MemberID: memberID, Date: time.Now()}
}

func TestCosponsorshipJaccard(t *testing.T) {
	records := []legis.Cosponsor{
		cosponsor("b1", "M1"), cosponsor("b2", "M1"), cosponsor("b3", "M1"),
		cosponsor("b2", "M2"), cosponsor("b3", "M2"), cosponsor("b4", "M2"),
		cosponsor("b5", "M3"),
	}

	m := CosponsorshipJaccard(records)

	tests := []struct {
		a, b string
		want float64
	}{
		{"M1", "M2", 0.5}, // {b1,b2,b3} vs {b2,b3,b4}: 2 of 4
		{"M1", "M3", 0.0}, // disjoint sets
		{"M2", "M3", 0.0},
	}
	for _, tt := range tests {
		got, ok := m.Get(tt.a, tt.b)
		if !ok {
			t.Fatalf("Get(%s, %s) reported no cell", tt.a, tt.b)
		}
		if got != tt.want {
			t.Errorf("jaccard(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCosponsorshipJaccardExcludesInactiveMembers(t *testing.T) {
	m := CosponsorshipJaccard([]legis.Cosponsor{cosponsor("b1", "M1")})

	if !m.HasMember("M1") {
		t.Error("cosponsoring member missing from matrix")
	}
	if m.HasMember("M2") {
		t.Error("member with no cosponsorships present in matrix")
	}
}

func TestCosponsorshipJaccardBounds(t *testing.T) {
	records := []legis.Cosponsor{
		cosponsor("b1", "M1"), cosponsor("b2", "M1"),
		cosponsor("b1", "M2"), cosponsor("b3", "M2"),
		cosponsor("b1", "M3"), cosponsor("b2", "M3"), cosponsor("b3", "M3"),
	}

	m := CosponsorshipJaccard(records)
	ids := m.Members()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			v, ok := m.Get(ids[i], ids[j])
			if !ok {
				t.Fatalf("Get(%s, %s) reported no cell", ids[i], ids[j])
			}
			if v < 0.0 || v > 1.0 {
				t.Errorf("jaccard(%s, %s) = %v, out of [0, 1]", ids[i], ids[j], v)
			}
		}
	}
}

func TestAmendmentJaccard(t *testing.T) {
	amendments := []legis.Amendment{
		{ID: "a1", BillID: "b1", SponsorID: "M1"},
		{ID: "a2", BillID: "b1", SponsorID: "M1"},
		{ID: "a1", BillID: "b1", SponsorID: "M1"}, // duplicate record collapses
		{ID: "a2", BillID: "b2", SponsorID: "M2"},
		{ID: "a3", BillID: "b2", SponsorID: "M2"},
		{ID: "a4", BillID: "b3", SponsorID: ""}, // unknown sponsor skipped
	}

	m := AmendmentJaccard(amendments)

	got, ok := m.Get("M1", "M2")
	if !ok {
		t.Fatal("Get(M1, M2) reported no cell")
	}
	// {a1,a2} vs {a2,a3}: 1 of 3.
	want := 1.0 / 3.0
	if got != want {
		t.Errorf("jaccard(M1, M2) = %v, want %v", got, want)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}
