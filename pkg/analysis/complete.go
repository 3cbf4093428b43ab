package analysis

import (
	"context"
	"time"

	"github.com/civicsignal/legisnet/pkg/legis"
)

// Metadata identifies one complete analysis run.
type Metadata struct {
	Congress     int           `json:"congress"`
	Chamber      legis.Chamber `json:"chamber"`
	AnalysisDate time.Time     `json:"analysis_date"`
	StartDate    *time.Time    `json:"start_date"`
	EndDate      *time.Time    `json:"end_date"`
}

// Summary is the headline numbers of a complete run.
type Summary struct {
	TotalCoalitions int `json:"total_coalitions"`
	TotalDeviations int `json:"total_deviations"`
	BipartisanBills int `json:"bipartisan_bills"`
	TotalMembers    int `json:"total_members"`
}

// CompleteReport bundles the three window analyses into one document.
type CompleteReport struct {
	Metadata   Metadata         `json:"analysis_metadata"`
	Coalitions *CoalitionReport `json:"coalition_analysis"`
	Deviations *DeviationReport `json:"deviation_analysis"`
	Hotspots   *HotspotReport   `json:"bipartisan_analysis"`
	Summary    Summary          `json:"summary"`
}

// Complete runs coalition detection, the deviation scan, and the
// hotspot scan over the same window and combines the results.
func (a *Analyzer) Complete(ctx context.Context, window legis.Window) (*CompleteReport, error) {
	coalitions, err := a.AnalyzeCoalitions(ctx, window)
	if err != nil {
		return nil, err
	}
	deviations, err := a.Deviations(ctx, window)
	if err != nil {
		return nil, err
	}
	hotspots, err := a.Hotspots(ctx, window)
	if err != nil {
		return nil, err
	}

	return &CompleteReport{
		Metadata: Metadata{
			Congress:     window.Congress,
			Chamber:      window.Chamber,
			AnalysisDate: time.Now().UTC(),
			StartDate:    window.Start,
			EndDate:      window.End,
		},
		Coalitions: coalitions,
		Deviations: deviations,
		Hotspots:   hotspots,
		Summary: Summary{
			TotalCoalitions: len(coalitions.Coalitions),
			TotalDeviations: deviations.TotalDeviations,
			BipartisanBills: len(hotspots.Bills),
			TotalMembers:    coalitions.TotalMembers,
		},
	}, nil
}
