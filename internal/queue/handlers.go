package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicsignal/legisnet/internal/config"
	"github.com/civicsignal/legisnet/internal/export"
	"github.com/civicsignal/legisnet/pkg/analysis"
	"github.com/civicsignal/legisnet/pkg/graph"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/predict"
	"github.com/civicsignal/legisnet/pkg/runlock"
	"github.com/civicsignal/legisnet/pkg/store"
)

// ProcessAnalysisMessage runs one complete coalition analysis job: it
// takes the run lock for the job's identity, runs the engine over the
// window, and exports the four report documents. A second delivery of
// the same run while one is in flight is dropped as a duplicate.
func ProcessAnalysisMessage(
	ctx context.Context,
	st store.Store,
	locks *runlock.Client,
	sink export.Sink,
	cfg *config.Config,
	msg string,
) error {
	job, err := DecodeAnalysisJob([]byte(msg))
	if err != nil {
		return err
	}

	method := job.DetectorMethod()
	window := job.Window()

	var detector graph.Detector
	switch method {
	case MethodEdgeDensity:
		detector = graph.NewEdgeDensityDetector(graph.DefaultEdgeDensityConfig())
	default:
		mcfg := graph.DefaultModularityConfig()
		mcfg.Resolution = cfg.AnalysisResolution
		mcfg.Seed = cfg.AnalysisSeed
		if job.Seed != 0 {
			mcfg.Seed = job.Seed
		}
		detector = graph.NewModularityDetector(mcfg)
	}

	key := runlock.AnalysisKey(job.Congress, job.Chamber, method)
	lease, err := locks.Acquire(ctx, key, runlock.Options{
		TokenPrefix: fmt.Sprintf("analysis/%d-%s/", job.Congress, job.Chamber),
	})
	if err != nil {
		if errors.Is(err, runlock.ErrBusy) {
			logger.Info("[Queue] Dropping duplicate analysis job: run already in progress", "key", key)
			return nil
		}
		return err
	}
	defer func() {
		if relErr := lease.Release(context.Background()); relErr != nil {
			logger.Warn("[Queue] Failed to release run lock", "key", key, "err", relErr)
		}
	}()

	analyzer := analysis.New(st, detector, analysis.Options{TopSubjects: cfg.SubjectTopN})
	report, err := analyzer.Complete(lease.Context, window)
	if err != nil {
		return err
	}

	docs := []export.Document{
		{Name: export.CoalitionFile(job.Congress, job.Chamber), Body: report.Coalitions},
		{Name: export.DeviationsFile(job.Congress, job.Chamber), Body: report.Deviations},
		{Name: export.HotspotsFile(job.Congress, job.Chamber), Body: report.Hotspots},
		{Name: export.CompleteFile(job.Congress, job.Chamber), Body: report},
	}
	if err := export.WriteAll(lease.Context, sink, docs); err != nil {
		return err
	}

	logger.Info("[Queue] Analysis job completed",
		"congress", job.Congress,
		"chamber", job.Chamber,
		"method", method,
		"coalitions", report.Summary.TotalCoalitions,
		"deviations", report.Summary.TotalDeviations,
		"bipartisan_bills", report.Summary.BipartisanBills,
	)
	return nil
}

// ProcessForecastMessage runs one vote forecast job under the bill's
// run lock and exports the forecast document.
func ProcessForecastMessage(
	ctx context.Context,
	st store.Store,
	locks *runlock.Client,
	sink export.Sink,
	msg string,
) error {
	job, err := DecodeForecastJob([]byte(msg))
	if err != nil {
		return err
	}

	key := runlock.ForecastKey(job.BillID)
	lease, err := locks.Acquire(ctx, key, runlock.Options{
		TokenPrefix: fmt.Sprintf("forecast/%s/", job.BillID),
	})
	if err != nil {
		if errors.Is(err, runlock.ErrBusy) {
			logger.Info("[Queue] Dropping duplicate forecast job: run already in progress", "key", key)
			return nil
		}
		return err
	}
	defer func() {
		if relErr := lease.Release(context.Background()); relErr != nil {
			logger.Warn("[Queue] Failed to release run lock", "key", key, "err", relErr)
		}
	}()

	forecast, err := predict.New(st).ScoreBill(lease.Context, job.BillID)
	if err != nil {
		return err
	}
	if job.RankDefectors {
		forecast.LikelyDefectors = forecast.RankDefectors()
	}

	doc := export.Document{Name: export.ForecastFile(job.BillID), Body: forecast}
	if err := sink.Write(lease.Context, doc.Name, doc.Body); err != nil {
		return fmt.Errorf("write %s: %w", doc.Name, err)
	}

	logger.Info("[Queue] Forecast job completed",
		"bill_id", job.BillID,
		"members", len(forecast.Members),
		"cross_party_share", forecast.CrossPartyShare,
	)
	return nil
}
