package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/store"
)

// Deviation is one countable vote cast against the member's party
// position on a roll call.
type Deviation struct {
	RollcallID    string         `json:"rollcall_id"`
	Date          time.Time      `json:"date"`
	Question      string         `json:"question,omitempty"`
	BillID        string         `json:"bill_id,omitempty"`
	MemberID      string         `json:"member_id"`
	MemberName    string         `json:"member_name"`
	Party         string         `json:"party"`
	Vote          legis.VoteCode `json:"vote"`
	PartyPosition legis.VoteCode `json:"party_position"`
	PartyYeaPct   float64        `json:"party_yea_pct"`
	PartyNayPct   float64        `json:"party_nay_pct"`
}

// MemberDeviations aggregates one member's deviations over the window.
type MemberDeviations struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Party    string `json:"party"`
	Count    int    `json:"count"`
}

// DeviationReport is the exported result of one party-line scan.
type DeviationReport struct {
	Congress        int                `json:"congress"`
	Chamber         legis.Chamber      `json:"chamber"`
	AnalysisDate    time.Time          `json:"analysis_date"`
	StartDate       *time.Time         `json:"start_date"`
	EndDate         *time.Time         `json:"end_date"`
	Threshold       float64            `json:"threshold"`
	TotalDeviations int                `json:"total_deviations"`
	Deviations      []Deviation        `json:"deviations"`
	ByMember        []MemberDeviations `json:"by_member"`
}

// partyPosition is a party's stance on one roll call, when it has one.
type partyPosition struct {
	position legis.VoteCode
	yeaPct   float64
	nayPct   float64
}

// Deviations scans the window's roll calls for members voting against
// their party's position. A party takes a position on a roll call only
// when it cast at least five countable votes there and at least the
// threshold share of them landed on one side; roll calls where no party
// reaches the threshold contribute nothing.
func (a *Analyzer) Deviations(ctx context.Context, window legis.Window) (*DeviationReport, error) {
	logger.Info("[Analysis] Starting party-line deviation scan",
		"congress", window.Congress, "chamber", window.Chamber, "threshold", a.opts.DeviationThreshold)

	members, err := a.store.Members(ctx, store.MemberFilter{
		Chamber:      window.Chamber,
		ActiveDuring: &window,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}
	roster := make(map[string]legis.Member, len(members))
	for _, m := range members {
		roster[m.ID] = m
	}

	rollcalls, err := a.store.Rollcalls(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("fetch rollcalls: %w", err)
	}

	votesByRollcall := make(map[string][]legis.Vote)
	if len(rollcalls) > 0 {
		ids := make([]string, len(rollcalls))
		for i, rc := range rollcalls {
			ids[i] = rc.ID
		}
		votes, err := a.store.Votes(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch votes: %w", err)
		}
		for _, v := range votes {
			votesByRollcall[v.RollcallID] = append(votesByRollcall[v.RollcallID], v)
		}
	}

	report := &DeviationReport{
		Congress:     window.Congress,
		Chamber:      window.Chamber,
		AnalysisDate: time.Now().UTC(),
		StartDate:    window.Start,
		EndDate:      window.End,
		Threshold:    a.opts.DeviationThreshold,
		Deviations:   make([]Deviation, 0),
	}

	for _, rc := range rollcalls {
		votes := votesByRollcall[rc.ID]
		positions := a.partyPositions(votes, roster)
		if len(positions) == 0 {
			continue
		}
		for _, v := range votes {
			if !v.Code.Countable() {
				continue
			}
			m, ok := roster[v.MemberID]
			if !ok {
				continue
			}
			pos, ok := positions[m.Party]
			if !ok || v.Code == pos.position {
				continue
			}
			report.Deviations = append(report.Deviations, Deviation{
				RollcallID:    rc.ID,
				Date:          rc.Date,
				Question:      rc.Question,
				BillID:        rc.BillID,
				MemberID:      m.ID,
				MemberName:    m.FullName(),
				Party:         m.Party,
				Vote:          v.Code,
				PartyPosition: pos.position,
				PartyYeaPct:   pos.yeaPct,
				PartyNayPct:   pos.nayPct,
			})
		}
	}

	report.TotalDeviations = len(report.Deviations)
	report.ByMember = groupByMember(report.Deviations)

	logger.Info("[Analysis] Deviation scan finished",
		"rollcalls", len(rollcalls), "deviations", report.TotalDeviations)
	return report, nil
}

// partyPositions derives each party's position on one roll call from
// its countable votes. Parties with fewer than minPartyVotes countable
// votes, unknown parties, and splits below the threshold are absent
// from the result.
func (a *Analyzer) partyPositions(votes []legis.Vote, roster map[string]legis.Member) map[string]partyPosition {
	type tally struct{ yea, nay int }
	tallies := make(map[string]*tally)
	for _, v := range votes {
		if !v.Code.Countable() {
			continue
		}
		m, ok := roster[v.MemberID]
		if !ok || m.Party == "" {
			continue
		}
		t, ok := tallies[m.Party]
		if !ok {
			t = &tally{}
			tallies[m.Party] = t
		}
		if v.Code == legis.VoteYea {
			t.yea++
		} else {
			t.nay++
		}
	}

	positions := make(map[string]partyPosition)
	for party, t := range tallies {
		total := t.yea + t.nay
		if total < minPartyVotes {
			continue
		}
		yeaPct := float64(t.yea) / float64(total)
		nayPct := float64(t.nay) / float64(total)
		switch {
		case yeaPct >= a.opts.DeviationThreshold:
			positions[party] = partyPosition{position: legis.VoteYea, yeaPct: yeaPct, nayPct: nayPct}
		case nayPct >= a.opts.DeviationThreshold:
			positions[party] = partyPosition{position: legis.VoteNay, yeaPct: yeaPct, nayPct: nayPct}
		}
	}
	return positions
}

// groupByMember rolls the deviation list up per member, most frequent
// defectors first, ties by member ID.
func groupByMember(deviations []Deviation) []MemberDeviations {
	byID := make(map[string]*MemberDeviations)
	order := make([]string, 0)
	for _, d := range deviations {
		agg, ok := byID[d.MemberID]
		if !ok {
			agg = &MemberDeviations{MemberID: d.MemberID, Name: d.MemberName, Party: d.Party}
			byID[d.MemberID] = agg
			order = append(order, d.MemberID)
		}
		agg.Count++
	}

	out := make([]MemberDeviations, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}
