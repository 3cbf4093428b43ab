// Package predict scores a pending bill: per-member probability of
// voting Yea and a ranking of likely defectors from the sponsor
// party's presumed position. The model is a staged heuristic built on
// party priors, the bill's cosponsor composition, each member's
// historical cross-party propensity, and their voting record on bills
// with the same policy area or subjects.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/store"
)

const (
	probFloor = 0.02
	probCeil  = 0.98

	samePartyPrior  = 0.85
	crossPartyPrior = 0.15
	neutralPrior    = 0.5

	compositionWeight = 0.3
	sponsorBoost      = 0.10
	cosponsorBoost    = 0.15

	// Below this cross-party cosponsor share a bill is treated as
	// strictly partisan and the floor/ceiling overrides apply.
	partisanShareMax = 0.05
	partyLineFloor   = 0.92
	cosponsorFloor   = 0.96
	oppositeCeiling  = 0.08

	// At or above this share the member's own cross-party propensity
	// starts pulling on the estimate.
	propensityShareMin = 0.15
	propensityWeight   = 0.2

	issueBlendMax     = 0.15
	issueSampleTarget = 30
)

// MemberForecast is one member's predicted position on the bill.
type MemberForecast struct {
	MemberID       string  `json:"member_id"`
	Name           string  `json:"name"`
	Party          string  `json:"party"`
	State          string  `json:"state"`
	Chamber        string  `json:"chamber"`
	ProbabilityYea float64 `json:"probability_yea"`
	IsSponsor      bool    `json:"is_sponsor"`
	IsCosponsor    bool    `json:"is_cosponsor"`
}

// BillForecast is the full prediction for one bill over its chamber's
// roster. LikelyDefectors stays empty unless the caller fills it from
// RankDefectors for the exported document.
type BillForecast struct {
	BillID          string           `json:"bill_id"`
	Title           string           `json:"title"`
	Congress        int              `json:"congress"`
	Chamber         legis.Chamber    `json:"chamber"`
	SponsorID       string           `json:"sponsor_id,omitempty"`
	SponsorParty    string           `json:"sponsor_party,omitempty"`
	CosponsorCount  int              `json:"cosponsor_count"`
	CrossPartyShare float64          `json:"cross_party_share"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Members         []MemberForecast `json:"members"`
	LikelyDefectors []Defector       `json:"likely_defectors,omitempty"`
}

// Defector is a member forecast annotated with a defection score:
// the likelihood of voting against their party's presumed position on
// this bill.
type Defector struct {
	MemberForecast
	DefectionScore float64 `json:"defection_score"`
}

// Predictor scores bills against a legislative corpus.
type Predictor struct {
	store store.Store
}

// New returns a Predictor reading from s.
func New(s store.Store) *Predictor {
	return &Predictor{store: s}
}

// ScoreBill predicts every chamber member's probability of voting Yea
// on the bill. An unknown bill ID surfaces store.ErrBillNotFound; the
// predictor cannot run without sponsor and cosponsor context.
func (p *Predictor) ScoreBill(ctx context.Context, billID string) (*BillForecast, error) {
	bill, err := p.store.Bill(ctx, billID)
	if err != nil {
		return nil, err
	}

	sponsorParty := ""
	if bill.SponsorID != "" {
		sponsor, err := p.store.Member(ctx, bill.SponsorID)
		if err != nil && !errors.Is(err, store.ErrMemberNotFound) {
			return nil, fmt.Errorf("fetch sponsor: %w", err)
		}
		if err == nil {
			sponsorParty = sponsor.Party
		}
	}

	members, err := p.store.Members(ctx, store.MemberFilter{Chamber: bill.Chamber})
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	partyByMember := make(map[string]string, len(members))
	for _, m := range members {
		partyByMember[m.ID] = m.Party
	}

	cosponsors, err := p.store.Cosponsors(ctx, []string{bill.ID})
	if err != nil {
		return nil, fmt.Errorf("fetch cosponsors: %w", err)
	}
	cosponsorIDs := make(map[string]struct{}, len(cosponsors))
	tally := partyTally{}
	for _, c := range cosponsors {
		cosponsorIDs[c.MemberID] = struct{}{}
		tally.add(partyByMember[c.MemberID])
	}
	share := crossPartyShare(sponsorParty, tally)

	propensity, err := p.crossPartyPropensity(ctx, bill.Chamber)
	if err != nil {
		return nil, fmt.Errorf("compute propensity: %w", err)
	}
	history, err := p.issueHistory(ctx, bill)
	if err != nil {
		return nil, fmt.Errorf("compute issue history: %w", err)
	}

	logger.Info("[Predict] Scoring bill",
		"bill_id", bill.ID,
		"sponsor_party", sponsorParty,
		"roster", len(members),
		"cosponsors", tally.total(),
		"cross_party_share", share,
	)

	forecast := &BillForecast{
		BillID:          bill.ID,
		Title:           bill.Title,
		Congress:        bill.Congress,
		Chamber:         bill.Chamber,
		SponsorID:       bill.SponsorID,
		SponsorParty:    sponsorParty,
		CosponsorCount:  tally.total(),
		CrossPartyShare: round4(share),
		GeneratedAt:     time.Now().UTC(),
		Members:         make([]MemberForecast, 0, len(members)),
	}

	for _, m := range members {
		_, isCosponsor := cosponsorIDs[m.ID]
		in := signals{
			memberParty:  m.Party,
			sponsorParty: sponsorParty,
			crossShare:   share,
			isSponsor:    bill.SponsorID != "" && bill.SponsorID == m.ID,
			isCosponsor:  isCosponsor,
		}
		if rate, ok := propensity[m.ID]; ok {
			in.propensity = &rate
		}
		if hist, ok := history[m.ID]; ok {
			in.issueYeaRate = hist.yeaRate
			in.issueSamples = hist.n
		}

		forecast.Members = append(forecast.Members, MemberForecast{
			MemberID:       m.ID,
			Name:           m.FullName(),
			Party:          m.Party,
			State:          m.State,
			Chamber:        m.Chamber().Display(),
			ProbabilityYea: round4(score(in)),
			IsSponsor:      in.isSponsor,
			IsCosponsor:    in.isCosponsor,
		})
	}
	return forecast, nil
}

// RankDefectors orders the forecast's members by likelihood of voting
// against their party's presumed position. With a D sponsor, Ds are
// presumed Yea (defection score 1-p) and everyone else Nay (score p);
// an R sponsor is symmetric. With an unknown sponsor party the presumed
// position itself is undefined, so the score falls back to |p - 0.5|.
func (f *BillForecast) RankDefectors() []Defector {
	sp := strings.ToUpper(f.SponsorParty)
	out := make([]Defector, 0, len(f.Members))
	for _, m := range f.Members {
		mp := strings.ToUpper(m.Party)
		p := m.ProbabilityYea
		var ds float64
		switch sp {
		case "D", "R":
			if mp == sp {
				ds = 1.0 - p
			} else {
				ds = p
			}
		default:
			ds = math.Abs(p - 0.5)
		}
		out = append(out, Defector{MemberForecast: m, DefectionScore: round4(ds)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DefectionScore != out[j].DefectionScore {
			return out[i].DefectionScore > out[j].DefectionScore
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// signals carries everything the staged model needs for one member.
// A nil propensity means the member has no countable cosponsorship
// history and the propensity stage is skipped entirely.
type signals struct {
	memberParty  string
	sponsorParty string
	crossShare   float64
	isSponsor    bool
	isCosponsor  bool
	propensity   *float64
	issueYeaRate float64
	issueSamples int
}

// score runs the staged probability model.
func score(in signals) float64 {
	sp := strings.ToUpper(in.sponsorParty)
	mp := strings.ToUpper(in.memberParty)
	known := sp != "" && mp != ""

	// Stage 1: party prior.
	p := neutralPrior
	if known {
		if sp == mp {
			p = samePartyPrior
		} else {
			p = crossPartyPrior
		}
	}

	// Stage 2: cosponsor-composition shift.
	p += compositionWeight * (in.crossShare - 0.5)

	// Stage 3: direct participation.
	if in.isSponsor {
		p += sponsorBoost
	}
	if in.isCosponsor {
		p += cosponsorBoost
	}

	// Stage 4: strict party-line floor/ceiling on nearly partisan
	// bills; overrides the stages above for known-party members.
	if known && in.crossShare <= partisanShareMax {
		if sp == mp {
			floor := partyLineFloor
			if in.isCosponsor {
				floor = cosponsorFloor
			}
			p = math.Max(p, floor)
		} else if !in.isCosponsor {
			p = math.Min(p, oppositeCeiling)
		}
	}
	p = clamp(p)

	// Stage 5: the member's own cross-party record, once the bill has
	// meaningful cross-party cosponsorship. Same-party members drift
	// toward defection, opposite-party members toward crossing over.
	if known && in.crossShare >= propensityShareMin && in.propensity != nil {
		shift := propensityWeight * (*in.propensity - 0.5)
		if sp == mp {
			p -= shift
		} else {
			p += shift
		}
		p = clamp(p)
	}

	// Stage 6: blend toward the member's Yea rate on same-issue bills,
	// weighted by sample size.
	if in.issueSamples > 0 {
		n := math.Min(float64(in.issueSamples), issueSampleTarget)
		w := issueBlendMax * n / issueSampleTarget
		p = (1-w)*p + w*in.issueYeaRate
		p = clamp(p)
	}

	return p
}

// partyTally counts cosponsors by party bucket. Members with a party
// other than D or R, or with no resolvable party, land in other.
type partyTally struct {
	dem, rep, other int
}

func (t *partyTally) add(party string) {
	switch strings.ToUpper(party) {
	case "D":
		t.dem++
	case "R":
		t.rep++
	default:
		t.other++
	}
}

func (t partyTally) total() int {
	return t.dem + t.rep + t.other
}

// crossPartyShare computes the share of cosponsors from the party
// opposite the sponsor's. Unknown sponsor party uses the smaller of the
// two major-party counts; a bill with no cosponsors has share 0.
func crossPartyShare(sponsorParty string, t partyTally) float64 {
	total := t.total()
	if total == 0 {
		return 0.0
	}
	var cross int
	switch strings.ToUpper(sponsorParty) {
	case "D":
		cross = t.rep
	case "R":
		cross = t.dem
	default:
		cross = min(t.dem, t.rep)
	}
	return float64(cross) / float64(total)
}

// crossPartyPropensity computes, per member, the share of their past
// cosponsorships made on bills sponsored by the opposite party. Records
// with an unknown member or sponsor party are skipped; members with no
// countable records are absent from the map.
func (p *Predictor) crossPartyPropensity(ctx context.Context, chamber legis.Chamber) (map[string]float64, error) {
	records, err := p.store.CosponsorshipHistory(ctx, chamber)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	cross := make(map[string]int)
	for _, rec := range records {
		mp := strings.ToUpper(rec.MemberParty)
		sp := strings.ToUpper(rec.SponsorParty)
		if mp == "" || sp == "" {
			continue
		}
		totals[rec.MemberID]++
		if mp != sp {
			cross[rec.MemberID]++
		}
	}

	out := make(map[string]float64, len(totals))
	for id, total := range totals {
		out[id] = float64(cross[id]) / float64(total)
	}
	return out, nil
}

type issueStats struct {
	yeaRate float64
	n       int
}

// issueHistory computes each member's Yea rate on roll calls tied to
// bills sharing the target bill's policy area or any subject term.
func (p *Predictor) issueHistory(ctx context.Context, bill legis.Bill) (map[string]issueStats, error) {
	similar, err := p.store.SimilarBills(ctx, bill)
	if err != nil {
		return nil, err
	}
	if len(similar) == 0 {
		return nil, nil
	}
	billIDs := make([]string, len(similar))
	for i, b := range similar {
		billIDs[i] = b.ID
	}

	rollcalls, err := p.store.RollcallsForBills(ctx, billIDs)
	if err != nil {
		return nil, err
	}
	if len(rollcalls) == 0 {
		return nil, nil
	}
	rcIDs := make([]string, len(rollcalls))
	for i, rc := range rollcalls {
		rcIDs[i] = rc.ID
	}

	votes, err := p.store.Votes(ctx, rcIDs)
	if err != nil {
		return nil, err
	}

	yea := make(map[string]int)
	total := make(map[string]int)
	for _, v := range votes {
		if !v.Code.Countable() {
			continue
		}
		total[v.MemberID]++
		if v.Code == legis.VoteYea {
			yea[v.MemberID]++
		}
	}

	out := make(map[string]issueStats, len(total))
	for id, n := range total {
		out[id] = issueStats{yeaRate: float64(yea[id]) / float64(n), n: n}
	}
	return out, nil
}

func clamp(p float64) float64 {
	return math.Max(probFloor, math.Min(probCeil, p))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
