package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/store"
)

// HotspotBill is one bill with broad cross-party cosponsorship.
type HotspotBill struct {
	BillID          string         `json:"bill_id"`
	Title           string         `json:"title"`
	SponsorID       string         `json:"sponsor_id,omitempty"`
	SponsorParty    string         `json:"sponsor_party,omitempty"`
	CosponsorCount  int            `json:"cosponsor_count"`
	PartyBreakdown  map[string]int `json:"party_breakdown"`
	PartyCount      int            `json:"party_count"`
	BipartisanScore float64        `json:"bipartisan_score"`
	Subjects        []string       `json:"subjects,omitempty"`
	IntroducedDate  time.Time      `json:"introduced_date"`
}

// HotspotReport is the exported result of one bipartisan hotspot scan.
type HotspotReport struct {
	Congress           int            `json:"congress"`
	Chamber            legis.Chamber  `json:"chamber"`
	AnalysisDate       time.Time      `json:"analysis_date"`
	StartDate          *time.Time     `json:"start_date"`
	EndDate            *time.Time     `json:"end_date"`
	TotalBillsAnalyzed int            `json:"total_bills_analyzed"`
	Bills              []HotspotBill  `json:"bipartisan_bills"`
	TopSubjects        []SubjectCount `json:"top_subjects"`
}

// Hotspots scans the window's bills for bipartisan hotspots: bills with
// at least five cosponsors drawn from more than one party. The report
// carries the top bills by cosponsor count and the dominant subject
// terms over every qualifying bill, not just the reported ones.
func (a *Analyzer) Hotspots(ctx context.Context, window legis.Window) (*HotspotReport, error) {
	logger.Info("[Analysis] Starting bipartisan hotspot scan",
		"congress", window.Congress, "chamber", window.Chamber)

	members, err := a.store.Members(ctx, store.MemberFilter{Chamber: window.Chamber})
	if err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}
	partyByMember := make(map[string]string, len(members))
	for _, m := range members {
		partyByMember[m.ID] = m.Party
	}

	bills, err := a.store.Bills(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("fetch bills: %w", err)
	}

	cosponsorsByBill := make(map[string][]legis.Cosponsor)
	if len(bills) > 0 {
		ids := make([]string, len(bills))
		for i, b := range bills {
			ids[i] = b.ID
		}
		cosponsors, err := a.store.Cosponsors(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch cosponsors: %w", err)
		}
		for _, c := range cosponsors {
			cosponsorsByBill[c.BillID] = append(cosponsorsByBill[c.BillID], c)
		}
	}

	hotspots := make([]HotspotBill, 0)
	qualifying := make([]legis.Bill, 0)
	for _, b := range bills {
		cosponsors := cosponsorsByBill[b.ID]
		if len(cosponsors) < minHotspotCosponsors {
			continue
		}
		breakdown := make(map[string]int)
		for _, c := range cosponsors {
			if party := partyByMember[c.MemberID]; party != "" {
				breakdown[party]++
			}
		}
		if len(breakdown) < 2 {
			continue
		}
		qualifying = append(qualifying, b)
		hotspots = append(hotspots, HotspotBill{
			BillID:          b.ID,
			Title:           b.Title,
			SponsorID:       b.SponsorID,
			SponsorParty:    partyByMember[b.SponsorID],
			CosponsorCount:  len(cosponsors),
			PartyBreakdown:  breakdown,
			PartyCount:      len(breakdown),
			BipartisanScore: math.Min(float64(len(breakdown))/3.0, 1.0),
			Subjects:        b.Subjects,
			IntroducedDate:  b.IntroducedDate,
		})
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].CosponsorCount != hotspots[j].CosponsorCount {
			return hotspots[i].CosponsorCount > hotspots[j].CosponsorCount
		}
		return hotspots[i].BillID < hotspots[j].BillID
	})
	if len(hotspots) > maxHotspotBills {
		hotspots = hotspots[:maxHotspotBills]
	}

	report := &HotspotReport{
		Congress:           window.Congress,
		Chamber:            window.Chamber,
		AnalysisDate:       time.Now().UTC(),
		StartDate:          window.Start,
		EndDate:            window.End,
		TotalBillsAnalyzed: len(bills),
		Bills:              hotspots,
		TopSubjects:        countSubjectTerms(qualifying, hotspotSubjectLimit),
	}

	logger.Info("[Analysis] Hotspot scan finished",
		"bills_analyzed", len(bills), "hotspots", len(report.Bills))
	return report, nil
}
