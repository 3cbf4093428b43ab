package analysis

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/store/memory"
)

func houseMember(id, party string) legis.Member {
	district := 1
	return legis.Member{ID: id, First: id, Last: "Member", Party: party, State: "CA", District: &district}
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

// Two disjoint blocs: three Democrats voting and cosponsoring together,
// three Republicans doing the same on the other side. The fused network
// is two triangles with no cross edges.
func blocFixture() *memory.Store {
	return memory.New(memory.Data{
		Members: []legis.Member{
			houseMember("A1", "D"), houseMember("A2", "D"), houseMember("A3", "D"),
			houseMember("B1", "R"), houseMember("B2", "R"), houseMember("B3", "R"),
		},
		Bills: []legis.Bill{
			{
				ID: "hr-1", Congress: 118, Chamber: legis.ChamberHouse, Number: 1, Type: "hr",
				Title: "Care Act", IntroducedDate: day("2023-02-01"), SponsorID: "A1",
				Subjects: []string{"Health", "Veterans"},
			},
			{
				ID: "hr-2", Congress: 118, Chamber: legis.ChamberHouse, Number: 2, Type: "hr",
				Title: "Rate Act", IntroducedDate: day("2023-02-15"), SponsorID: "B1",
				Subjects: []string{"Taxation"},
			},
		},
		Rollcalls: []legis.Rollcall{
			{ID: "rc-1", Congress: 118, Chamber: legis.ChamberHouse, Session: 1, Number: 1, Date: day("2023-03-01")},
			{ID: "rc-2", Congress: 118, Chamber: legis.ChamberHouse, Session: 1, Number: 2, Date: day("2023-03-08")},
		},
		Votes: []legis.Vote{
			{RollcallID: "rc-1", MemberID: "A1", Code: legis.VoteYea},
			{RollcallID: "rc-1", MemberID: "A2", Code: legis.VoteYea},
			{RollcallID: "rc-1", MemberID: "A3", Code: legis.VoteYea},
			{RollcallID: "rc-1", MemberID: "B1", Code: legis.VoteNay},
			{RollcallID: "rc-1", MemberID: "B2", Code: legis.VoteNay},
			{RollcallID: "rc-1", MemberID: "B3", Code: legis.VoteNay},
			{RollcallID: "rc-2", MemberID: "A1", Code: legis.VoteNay},
			{RollcallID: "rc-2", MemberID: "A2", Code: legis.VoteNay},
			{RollcallID: "rc-2", MemberID: "A3", Code: legis.VoteNay},
			{RollcallID: "rc-2", MemberID: "B1", Code: legis.VoteYea},
			{RollcallID: "rc-2", MemberID: "B2", Code: legis.VoteYea},
			{RollcallID: "rc-2", MemberID: "B3", Code: legis.VoteYea},
		},
		Cosponsors: []legis.Cosponsor{
			{BillID: "hr-1", MemberID: "A1", Date: day("2023-02-02")},
			{BillID: "hr-1", MemberID: "A2", Date: day("2023-02-02")},
			{BillID: "hr-1", MemberID: "A3", Date: day("2023-02-03")},
			{BillID: "hr-2", MemberID: "B1", Date: day("2023-02-16")},
			{BillID: "hr-2", MemberID: "B2", Date: day("2023-02-16")},
			{BillID: "hr-2", MemberID: "B3", Date: day("2023-02-17")},
		},
	})
}

func houseWindow(congress int) legis.Window {
	return legis.Window{Congress: congress, Chamber: legis.ChamberHouse}
}

func TestAnalyzeCoalitionsTwoBlocs(t *testing.T) {
	a := New(blocFixture(), nil, Options{})
	report, err := a.AnalyzeCoalitions(context.Background(), houseWindow(118))
	if err != nil {
		t.Fatalf("AnalyzeCoalitions() error = %v", err)
	}

	if report.TotalMembers != 6 {
		t.Errorf("TotalMembers = %d, want 6", report.TotalMembers)
	}
	if len(report.Coalitions) != 2 {
		t.Fatalf("len(Coalitions) = %d, want 2", len(report.Coalitions))
	}

	first, ok := report.Coalitions["coalition_1"]
	if !ok {
		t.Fatalf("coalition_1 missing; keys: %v", report.Coalitions)
	}
	if got, want := first.Members, []string{"A1", "A2", "A3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("coalition_1 members = %v, want %v", got, want)
	}
	if first.Size != 3 {
		t.Errorf("coalition_1 size = %d, want 3", first.Size)
	}
	if got, want := first.PartyComposition, map[string]int{"D": 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("coalition_1 party composition = %v, want %v", got, want)
	}
	if first.Bipartisan {
		t.Error("coalition_1 flagged bipartisan, want single party")
	}
	if !approx(first.AvgVoteAgreement, 1.0) {
		t.Errorf("coalition_1 avg vote agreement = %v, want 1.0", first.AvgVoteAgreement)
	}
	if !approx(first.AvgCosponsorship, 1.0) {
		t.Errorf("coalition_1 avg cosponsorship = %v, want 1.0", first.AvgCosponsorship)
	}
	wantSubjects := []SubjectCount{{Term: "Health", Count: 1}, {Term: "Veterans", Count: 1}}
	if !reflect.DeepEqual(first.TopSubjects, wantSubjects) {
		t.Errorf("coalition_1 top subjects = %v, want %v", first.TopSubjects, wantSubjects)
	}

	second := report.Coalitions["coalition_2"]
	if second == nil {
		t.Fatal("coalition_2 missing")
	}
	if got, want := second.Members, []string{"B1", "B2", "B3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("coalition_2 members = %v, want %v", got, want)
	}

	stats := report.NetworkStats
	if stats.Nodes != 6 || stats.Edges != 6 {
		t.Errorf("network stats = %+v, want 6 nodes / 6 edges", stats)
	}
	if !approx(stats.Density, 0.4) {
		t.Errorf("density = %v, want 0.4", stats.Density)
	}
}

func TestAnalyzeCoalitionsEmptyWindow(t *testing.T) {
	a := New(blocFixture(), nil, Options{})
	report, err := a.AnalyzeCoalitions(context.Background(), houseWindow(999))
	if err != nil {
		t.Fatalf("AnalyzeCoalitions() error = %v", err)
	}

	if report.TotalMembers != 6 {
		// Members have open service dates, so the roster survives; only
		// the window's records vanish.
		t.Errorf("TotalMembers = %d, want 6", report.TotalMembers)
	}
	if len(report.Coalitions) != 0 {
		t.Errorf("Coalitions = %v, want empty", report.Coalitions)
	}
	if report.NetworkStats != (NetworkStats{}) {
		t.Errorf("NetworkStats = %+v, want zero", report.NetworkStats)
	}
}

func TestCountSubjectTerms(t *testing.T) {
	bills := []legis.Bill{
		{ID: "b1", Subjects: []string{"Health", "Taxation"}},
		{ID: "b2", Subjects: []string{"Taxation", "Defense"}},
		{ID: "b3", Subjects: []string{"Health", "Defense", "Energy"}},
	}

	got := countSubjectTerms(bills, 3)
	// Health, Taxation, and Defense tie at 2 and keep first-seen order;
	// Energy's single count falls off at the cap.
	want := []SubjectCount{
		{Term: "Health", Count: 2},
		{Term: "Taxation", Count: 2},
		{Term: "Defense", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("countSubjectTerms() = %v, want %v", got, want)
	}
}

func TestCompleteCombinesReports(t *testing.T) {
	a := New(blocFixture(), nil, Options{})
	report, err := a.Complete(context.Background(), houseWindow(118))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if report.Coalitions == nil || report.Deviations == nil || report.Hotspots == nil {
		t.Fatal("Complete() left a section nil")
	}
	if report.Metadata.Congress != 118 || report.Metadata.Chamber != legis.ChamberHouse {
		t.Errorf("Metadata = %+v, want congress 118 house", report.Metadata)
	}
	if got, want := report.Summary.TotalCoalitions, len(report.Coalitions.Coalitions); got != want {
		t.Errorf("Summary.TotalCoalitions = %d, want %d", got, want)
	}
	if got, want := report.Summary.TotalDeviations, report.Deviations.TotalDeviations; got != want {
		t.Errorf("Summary.TotalDeviations = %d, want %d", got, want)
	}
	if got, want := report.Summary.BipartisanBills, len(report.Hotspots.Bills); got != want {
		t.Errorf("Summary.BipartisanBills = %d, want %d", got, want)
	}
	if got, want := report.Summary.TotalMembers, 6; got != want {
		t.Errorf("Summary.TotalMembers = %d, want %d", got, want)
	}
}
