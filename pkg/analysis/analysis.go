// Package analysis orchestrates the engine over a window of the
// legislative corpus: it fetches the raw records, builds the similarity
// layers, fuses them into one network, runs coalition detection, and
// characterizes the result into exportable reports. The package also
// carries the two scan reports derived from the same window: party-line
// deviations and bipartisan hotspots.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/civicsignal/legisnet/pkg/graph"
	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/matrix"
	"github.com/civicsignal/legisnet/pkg/store"
)

const (
	// DefaultTopSubjects is the number of subject terms reported per
	// coalition.
	DefaultTopSubjects = 5

	// DefaultDeviationThreshold is the party-position supermajority: a
	// party takes a position on a roll call only when at least this
	// share of its countable votes lands on one side.
	DefaultDeviationThreshold = 0.8

	// minPartyVotes is the smallest countable-vote group that can
	// establish a party position on a roll call.
	minPartyVotes = 5

	// minHotspotCosponsors is the smallest cosponsor list considered
	// for the bipartisan hotspot report.
	minHotspotCosponsors = 5

	maxHotspotBills     = 20
	hotspotSubjectLimit = 10
)

// Options tune an Analyzer. Zero values fall back to the defaults.
type Options struct {
	// Weights blends the three similarity layers into edge weights.
	Weights graph.LayerWeights

	// TopSubjects caps the subject terms reported per coalition.
	TopSubjects int

	// DeviationThreshold is the party-position supermajority share.
	DeviationThreshold float64
}

// Analyzer runs window-scoped analyses against a corpus store.
type Analyzer struct {
	store    store.Store
	detector graph.Detector
	opts     Options
}

// New returns an Analyzer reading from s and partitioning with d. A nil
// detector falls back to modularity detection with default settings.
func New(s store.Store, d graph.Detector, opts Options) *Analyzer {
	if d == nil {
		d = graph.NewModularityDetector(graph.DefaultModularityConfig())
	}
	if opts.Weights == (graph.LayerWeights{}) {
		opts.Weights = graph.DefaultLayerWeights()
	}
	if opts.TopSubjects <= 0 {
		opts.TopSubjects = DefaultTopSubjects
	}
	if opts.DeviationThreshold <= 0 {
		opts.DeviationThreshold = DefaultDeviationThreshold
	}
	return &Analyzer{store: s, detector: d, opts: opts}
}

// MemberDetail is the roster entry embedded in exported reports.
type MemberDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Party    string `json:"party"`
	State    string `json:"state"`
	District *int   `json:"district,omitempty"`
}

// SubjectCount is one subject term with its bill frequency.
type SubjectCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Coalition characterizes one detected community of two or more
// members.
type Coalition struct {
	Size             int            `json:"size"`
	Members          []string       `json:"members"`
	MemberDetails    []MemberDetail `json:"member_details"`
	PartyComposition map[string]int `json:"party_composition"`
	Bipartisan       bool           `json:"bipartisan"`
	AvgVoteAgreement float64        `json:"avg_vote_agreement"`
	AvgCosponsorship float64        `json:"avg_cosponsorship"`
	TopSubjects      []SubjectCount `json:"top_subjects"`
}

// NetworkStats summarizes the fused network.
type NetworkStats struct {
	Nodes   int     `json:"nodes"`
	Edges   int     `json:"edges"`
	Density float64 `json:"density"`
}

// CoalitionReport is the exported result of one coalition analysis run.
// Coalition keys are "coalition_1", "coalition_2", ... in detector
// output order.
type CoalitionReport struct {
	Congress     int                   `json:"congress"`
	Chamber      legis.Chamber         `json:"chamber"`
	AnalysisDate time.Time             `json:"analysis_date"`
	StartDate    *time.Time            `json:"start_date"`
	EndDate      *time.Time            `json:"end_date"`
	TotalMembers int                   `json:"total_members"`
	Coalitions   map[string]*Coalition `json:"coalitions"`
	NetworkStats NetworkStats          `json:"network_stats"`
}

// AnalyzeCoalitions runs the full pipeline for one window. An empty
// window produces an empty coalition map and zero network stats, not an
// error.
func (a *Analyzer) AnalyzeCoalitions(ctx context.Context, window legis.Window) (*CoalitionReport, error) {
	logger.Info("[Analysis] Starting coalition analysis",
		"congress", window.Congress, "chamber", window.Chamber)

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

	votes, err := a.windowVotes(ctx, window, roster)
	if err != nil {
		return nil, err
	}
	bills, cosponsors, err := a.windowCosponsors(ctx, window, roster)
	if err != nil {
		return nil, err
	}
	amendments, err := a.windowAmendments(ctx, window, roster)
	if err != nil {
		return nil, err
	}

	voteM := matrix.VoteAgreement(members, votes)
	cosponsorM := matrix.CosponsorshipJaccard(cosponsors)
	amendmentM := matrix.AmendmentJaccard(amendments)

	g, err := graph.Fuse(voteM, cosponsorM, amendmentM, a.opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("fuse layers: %w", err)
	}
	communities, err := a.detector.Detect(g)
	if err != nil {
		return nil, fmt.Errorf("detect coalitions: %w", err)
	}

	report := &CoalitionReport{
		Congress:     window.Congress,
		Chamber:      window.Chamber,
		AnalysisDate: time.Now().UTC(),
		StartDate:    window.Start,
		EndDate:      window.End,
		TotalMembers: len(members),
		Coalitions:   make(map[string]*Coalition),
		NetworkStats: NetworkStats{
			Nodes:   g.NodeCount(),
			Edges:   g.EdgeCount(),
			Density: g.Density(),
		},
	}

	n := 0
	for _, community := range communities {
		if len(community) < 2 {
			continue
		}
		n++
		key := fmt.Sprintf("coalition_%d", n)
		report.Coalitions[key] = a.characterize(community, roster, voteM, cosponsorM, bills, cosponsors)
	}

	logger.Info("[Analysis] Coalition analysis finished",
		"coalitions", len(report.Coalitions),
		"nodes", report.NetworkStats.Nodes,
		"edges", report.NetworkStats.Edges,
	)
	return report, nil
}

// windowVotes fetches the window's votes restricted to roster members.
func (a *Analyzer) windowVotes(ctx context.Context, window legis.Window, roster map[string]legis.Member) ([]legis.Vote, error) {
	rollcalls, err := a.store.Rollcalls(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("fetch rollcalls: %w", err)
	}
	if len(rollcalls) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rollcalls))
	for i, rc := range rollcalls {
		ids[i] = rc.ID
	}
	votes, err := a.store.Votes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch votes: %w", err)
	}
	kept := votes[:0]
	for _, v := range votes {
		if _, ok := roster[v.MemberID]; ok {
			kept = append(kept, v)
		}
	}
	return kept, nil
}

// windowCosponsors fetches the window's bills and their cosponsorships
// restricted to roster members. Bills are returned too; the subject and
// hotspot analyses reuse them.
func (a *Analyzer) windowCosponsors(ctx context.Context, window legis.Window, roster map[string]legis.Member) ([]legis.Bill, []legis.Cosponsor, error) {
	bills, err := a.store.Bills(ctx, window)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch bills: %w", err)
	}
	if len(bills) == 0 {
		return nil, nil, nil
	}
	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	cosponsors, err := a.store.Cosponsors(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch cosponsors: %w", err)
	}
	kept := cosponsors[:0]
	for _, c := range cosponsors {
		if _, ok := roster[c.MemberID]; ok {
			kept = append(kept, c)
		}
	}
	return bills, kept, nil
}

// windowAmendments fetches the window's amendments restricted to roster
// sponsors.
func (a *Analyzer) windowAmendments(ctx context.Context, window legis.Window, roster map[string]legis.Member) ([]legis.Amendment, error) {
	amendments, err := a.store.Amendments(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("fetch amendments: %w", err)
	}
	kept := amendments[:0]
	for _, am := range amendments {
		if _, ok := roster[am.SponsorID]; ok {
			kept = append(kept, am)
		}
	}
	return kept, nil
}

// characterize builds the exported stats for one community.
func (a *Analyzer) characterize(community graph.Community, roster map[string]legis.Member, voteM, cosponsorM *matrix.Symmetric, bills []legis.Bill, cosponsors []legis.Cosponsor) *Coalition {
	ids := append([]string(nil), community...)
	sort.Strings(ids)

	details := make([]MemberDetail, 0, len(ids))
	parties := make(map[string]int)
	for _, id := range ids {
		m := roster[id]
		details = append(details, MemberDetail{
			ID:       m.ID,
			Name:     m.FullName(),
			Party:    m.Party,
			State:    m.State,
			District: m.District,
		})
		if m.Party != "" {
			parties[m.Party]++
		}
	}

	return &Coalition{
		Size:             len(ids),
		Members:          ids,
		MemberDetails:    details,
		PartyComposition: parties,
		Bipartisan:       len(parties) > 1,
		AvgVoteAgreement: meanPairwise(voteM, ids),
		AvgCosponsorship: meanPairwise(cosponsorM, ids),
		TopSubjects:      topSubjects(ids, bills, cosponsors, a.opts.TopSubjects),
	}
}

// meanPairwise averages the matrix cells over the unordered pairs of
// ids that are present in the matrix. Pairs with absent members are
// skipped; no pairs at all means 0.
func meanPairwise(m *matrix.Symmetric, ids []string) float64 {
	sum, n := 0.0, 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if v, ok := m.Get(ids[i], ids[j]); ok {
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// topSubjects counts the subject terms of the window bills cosponsored
// by any of the given members and returns the top n.
func topSubjects(memberIDs []string, bills []legis.Bill, cosponsors []legis.Cosponsor, n int) []SubjectCount {
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}
	wanted := make(map[string]struct{})
	for _, c := range cosponsors {
		if _, ok := members[c.MemberID]; ok {
			wanted[c.BillID] = struct{}{}
		}
	}

	selected := make([]legis.Bill, 0, len(wanted))
	for _, b := range bills {
		if _, ok := wanted[b.ID]; ok {
			selected = append(selected, b)
		}
	}
	return countSubjectTerms(selected, n)
}

// countSubjectTerms tallies subject terms over the given bills and
// returns the n most frequent. Each occurrence on a bill counts once;
// ties keep first-seen order.
func countSubjectTerms(bills []legis.Bill, n int) []SubjectCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, b := range bills {
		for _, term := range b.Subjects {
			if _, seen := counts[term]; !seen {
				order = append(order, term)
			}
			counts[term]++
		}
	}

	out := make([]SubjectCount, 0, len(order))
	for _, term := range order {
		out = append(out, SubjectCount{Term: term, Count: counts[term]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
