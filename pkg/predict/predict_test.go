package predict

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/store"
	"github.com/civicsignal/legisnet/pkg/store/memory"
)

func houseMember(id, party, state string) legis.Member {
	district := 1
	return legis.Member{ID: id, First: id, Last: "Member", Party: party, State: state, District: &district}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// A strictly partisan bill: Democratic sponsor, one Democratic
// cosponsor, no cross-party support at all.
func partisanFixture() *memory.Store {
	return memory.New(memory.Data{
		Members: []legis.Member{
			houseMember("D001", "D", "CA"),
			houseMember("D002", "D", "NY"),
			houseMember("D003", "D", "WA"),
			houseMember("R001", "R", "TX"),
		},
		Bills: []legis.Bill{
			{
				ID: "hr-1", Congress: 118, Chamber: legis.ChamberHouse, Number: 1, Type: "hr",
				Title: "An Act", IntroducedDate: day("2023-03-01"), SponsorID: "D001", PolicyArea: "Niche",
			},
		},
		Cosponsors: []legis.Cosponsor{
			{BillID: "hr-1", MemberID: "D002", Date: day("2023-03-02")},
		},
	})
}

func TestScoreBillPartisanFloors(t *testing.T) {
	p := New(partisanFixture())
	forecast, err := p.ScoreBill(context.Background(), "hr-1")
	if err != nil {
		t.Fatalf("ScoreBill() error = %v", err)
	}

	if forecast.CosponsorCount != 1 {
		t.Errorf("CosponsorCount = %d, want 1", forecast.CosponsorCount)
	}
	if forecast.CrossPartyShare != 0 {
		t.Errorf("CrossPartyShare = %v, want 0", forecast.CrossPartyShare)
	}
	if forecast.SponsorParty != "D" {
		t.Errorf("SponsorParty = %q, want D", forecast.SponsorParty)
	}

	want := map[string]float64{
		"D001": 0.92, // sponsor, party-line floor wins over the boost
		"D002": 0.96, // cosponsor floor
		"D003": 0.92, // party-line floor
		"R001": 0.02, // opposite-party ceiling, clamped up from 0
	}
	for _, m := range forecast.Members {
		if got, ok := want[m.MemberID]; !ok || !approx(m.ProbabilityYea, got) {
			t.Errorf("ProbabilityYea[%s] = %v, want %v", m.MemberID, m.ProbabilityYea, want[m.MemberID])
		}
		if m.ProbabilityYea < 0.02 || m.ProbabilityYea > 0.98 {
			t.Errorf("ProbabilityYea[%s] = %v out of [0.02, 0.98]", m.MemberID, m.ProbabilityYea)
		}
		if m.Chamber != "House" {
			t.Errorf("Chamber[%s] = %q, want House", m.MemberID, m.Chamber)
		}
		if got, want := m.IsSponsor, m.MemberID == "D001"; got != want {
			t.Errorf("IsSponsor[%s] = %v, want %v", m.MemberID, got, want)
		}
		if got, want := m.IsCosponsor, m.MemberID == "D002"; got != want {
			t.Errorf("IsCosponsor[%s] = %v, want %v", m.MemberID, got, want)
		}
	}
}

// A bill with an even cosponsor split: the composition shift cancels
// and the per-member propensity stage takes over for members with a
// cosponsorship record.
func mixedFixture() *memory.Store {
	return memory.New(memory.Data{
		Members: []legis.Member{
			houseMember("DS00", "D", "CA"), // sponsor
			houseMember("DC01", "D", "NY"),
			houseMember("DC02", "D", "MA"),
			houseMember("RC01", "R", "TX"),
			houseMember("RC02", "R", "FL"),
			houseMember("DV00", "D", "WA"), // habitual crosser
			houseMember("DN00", "D", "OR"), // no history at all
			houseMember("RS00", "R", "UT"), // sponsored the old bills
		},
		Bills: []legis.Bill{
			{
				ID: "hr-2", Congress: 118, Chamber: legis.ChamberHouse, Number: 2, Type: "hr",
				Title: "Mixed Act", IntroducedDate: day("2023-04-01"), SponsorID: "DS00", PolicyArea: "Energy",
			},
			{
				ID: "hr-90", Congress: 117, Chamber: legis.ChamberHouse, Number: 90, Type: "hr",
				Title: "Old One", IntroducedDate: day("2021-02-01"), SponsorID: "RS00", PolicyArea: "Agriculture",
			},
			{
				ID: "hr-91", Congress: 117, Chamber: legis.ChamberHouse, Number: 91, Type: "hr",
				Title: "Old Two", IntroducedDate: day("2021-03-01"), SponsorID: "RS00", PolicyArea: "Agriculture",
			},
		},
		Cosponsors: []legis.Cosponsor{
			{BillID: "hr-2", MemberID: "DC01", Date: day("2023-04-02")},
			{BillID: "hr-2", MemberID: "DC02", Date: day("2023-04-02")},
			{BillID: "hr-2", MemberID: "RC01", Date: day("2023-04-03")},
			{BillID: "hr-2", MemberID: "RC02", Date: day("2023-04-03")},
			{BillID: "hr-90", MemberID: "DV00", Date: day("2021-02-05")},
			{BillID: "hr-91", MemberID: "DV00", Date: day("2021-03-05")},
		},
	})
}

func TestScoreBillPropensityShift(t *testing.T) {
	p := New(mixedFixture())
	forecast, err := p.ScoreBill(context.Background(), "hr-2")
	if err != nil {
		t.Fatalf("ScoreBill() error = %v", err)
	}
	if !approx(forecast.CrossPartyShare, 0.5) {
		t.Fatalf("CrossPartyShare = %v, want 0.5", forecast.CrossPartyShare)
	}

	byID := make(map[string]MemberForecast)
	for _, m := range forecast.Members {
		byID[m.MemberID] = m
	}

	// DV00 cosponsored only opposite-party bills: propensity 1.0 pulls a
	// same-party member 0.1 toward defection.
	if got := byID["DV00"].ProbabilityYea; !approx(got, 0.75) {
		t.Errorf("ProbabilityYea[DV00] = %v, want 0.75", got)
	}
	// DN00 has no cosponsorship record and no issue votes: the party
	// prior stands untouched.
	if got := byID["DN00"].ProbabilityYea; !approx(got, 0.85) {
		t.Errorf("ProbabilityYea[DN00] = %v, want 0.85", got)
	}
}

func TestScoreBillIssueBlend(t *testing.T) {
	s := memory.New(memory.Data{
		Members: []legis.Member{
			houseMember("DS00", "D", "CA"),
			houseMember("DH00", "D", "IL"),
		},
		Bills: []legis.Bill{
			{
				ID: "hr-3", Congress: 118, Chamber: legis.ChamberHouse, Number: 3, Type: "hr",
				Title: "Health Act", IntroducedDate: day("2023-05-01"), SponsorID: "DS00", PolicyArea: "Health",
			},
			{
				ID: "hr-80", Congress: 117, Chamber: legis.ChamberHouse, Number: 80, Type: "hr",
				Title: "Prior Health Act", IntroducedDate: day("2021-05-01"), SponsorID: "DS00", PolicyArea: "Health",
			},
		},
		Rollcalls: []legis.Rollcall{
			{ID: "rc-80", Congress: 117, Chamber: legis.ChamberHouse, Session: 1, Number: 80, Date: day("2021-06-01"), BillID: "hr-80"},
		},
		Votes: []legis.Vote{
			{RollcallID: "rc-80", MemberID: "DH00", Code: legis.VoteNay},
			{RollcallID: "rc-80", MemberID: "DS00", Code: legis.VoteNotVoting}, // not countable
		},
	})

	forecast, err := New(s).ScoreBill(context.Background(), "hr-3")
	if err != nil {
		t.Fatalf("ScoreBill() error = %v", err)
	}

	byID := make(map[string]MemberForecast)
	for _, m := range forecast.Members {
		byID[m.MemberID] = m
	}

	// DH00 hits the 0.92 party-line floor, then one Nay on a same-issue
	// bill blends it down with weight 0.15*(1/30).
	if got := byID["DH00"].ProbabilityYea; !approx(got, 0.9154) {
		t.Errorf("ProbabilityYea[DH00] = %v, want 0.9154", got)
	}
	// DS00's only issue vote is Not Voting, so no blend applies and the
	// sponsor keeps the plain floor.
	if got := byID["DS00"].ProbabilityYea; !approx(got, 0.92) {
		t.Errorf("ProbabilityYea[DS00] = %v, want 0.92", got)
	}
}

func TestScoreBillUnknownBill(t *testing.T) {
	p := New(memory.New(memory.Data{}))
	_, err := p.ScoreBill(context.Background(), "hr-404")
	if !errors.Is(err, store.ErrBillNotFound) {
		t.Fatalf("ScoreBill() error = %v, want ErrBillNotFound", err)
	}
}

func TestCrossPartyShare(t *testing.T) {
	tests := []struct {
		name         string
		sponsorParty string
		tally        partyTally
		want         float64
	}{
		{"democratic sponsor", "D", partyTally{dem: 2, rep: 2}, 0.5},
		{"republican sponsor", "R", partyTally{dem: 1, rep: 3}, 0.25},
		{"unknown sponsor takes minority", "", partyTally{dem: 3, rep: 1}, 0.25},
		{"no cosponsors", "D", partyTally{}, 0},
		{"independents dilute", "D", partyTally{rep: 1, other: 1}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crossPartyShare(tt.sponsorParty, tt.tally); !approx(got, tt.want) {
				t.Errorf("crossPartyShare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankDefectors(t *testing.T) {
	forecast := &BillForecast{
		SponsorParty: "D",
		Members: []MemberForecast{
			{MemberID: "D1", Party: "D", ProbabilityYea: 0.9},
			{MemberID: "D2", Party: "D", ProbabilityYea: 0.3},
			{MemberID: "R1", Party: "R", ProbabilityYea: 0.6},
			{MemberID: "R2", Party: "R", ProbabilityYea: 0.1},
		},
	}

	ranked := forecast.RankDefectors()
	gotOrder := make([]string, len(ranked))
	for i, d := range ranked {
		gotOrder[i] = d.MemberID
	}
	wantOrder := []string{"D2", "R1", "D1", "R2"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("RankDefectors() order = %v, want %v", gotOrder, wantOrder)
		}
	}

	wantScores := map[string]float64{"D2": 0.7, "R1": 0.6, "D1": 0.1, "R2": 0.1}
	for _, d := range ranked {
		if !approx(d.DefectionScore, wantScores[d.MemberID]) {
			t.Errorf("DefectionScore[%s] = %v, want %v", d.MemberID, d.DefectionScore, wantScores[d.MemberID])
		}
	}
}

func TestRankDefectorsUnknownSponsorParty(t *testing.T) {
	forecast := &BillForecast{
		Members: []MemberForecast{
			{MemberID: "A1", Party: "D", ProbabilityYea: 0.9},
			{MemberID: "B1", Party: "R", ProbabilityYea: 0.1},
			{MemberID: "C1", Party: "I", ProbabilityYea: 0.45},
		},
	}

	ranked := forecast.RankDefectors()
	// Equal distance from 0.5 ties A1 and B1; member ID breaks the tie.
	wantOrder := []string{"A1", "B1", "C1"}
	for i, d := range ranked {
		if d.MemberID != wantOrder[i] {
			t.Fatalf("RankDefectors() order[%d] = %s, want %s", i, d.MemberID, wantOrder[i])
		}
	}
	if !approx(ranked[0].DefectionScore, 0.4) || !approx(ranked[2].DefectionScore, 0.05) {
		t.Errorf("DefectionScore = %v/%v, want 0.4/0.05", ranked[0].DefectionScore, ranked[2].DefectionScore)
	}
}
