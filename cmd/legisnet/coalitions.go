package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/civicsignal/legisnet/internal/export"
	"github.com/civicsignal/legisnet/internal/queue"
	"github.com/civicsignal/legisnet/pkg/analysis"
	"github.com/civicsignal/legisnet/pkg/graph"
	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
	storepgx "github.com/civicsignal/legisnet/pkg/store/pgx"
)

func coalitionsCmd() *cobra.Command {
	var (
		congress       int
		chamber        string
		start          string
		end            string
		method         string
		seed           int64
		resolution     float64
		eps            float64
		minEdges       int
		weightsFlag    string
		topSubjects    int
		outDir         string
		useS3          bool
		withDeviations bool
		withHotspots   bool
		withComplete   bool
	)

	cmd := &cobra.Command{
		Use:   "coalitions",
		Short: "Detect voting coalitions for one congress and chamber",
		Long: `Builds the fused member similarity network from roll-call votes,
cosponsorships, and amendment activity, detects communities, and
exports the coalition report. Additional scans attach with
--deviations, --hotspots, or --complete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			// Unset tuning flags fall back to the environment.
			if !cmd.Flags().Changed("seed") {
				seed = cfg.AnalysisSeed
			}
			if !cmd.Flags().Changed("resolution") {
				resolution = cfg.AnalysisResolution
			}
			if !cmd.Flags().Changed("top-subjects") {
				topSubjects = cfg.SubjectTopN
			}

			job := queue.AnalysisJob{
				Congress:  congress,
				Chamber:   legis.Chamber(strings.ToLower(chamber)),
				Method:    method,
				Seed:      seed,
				StartDate: start,
				EndDate:   end,
			}
			if err := job.Validate(); err != nil {
				return err
			}

			weights, err := parseWeights(weightsFlag)
			if err != nil {
				return err
			}

			var detector graph.Detector
			switch job.DetectorMethod() {
			case queue.MethodEdgeDensity:
				detector = graph.NewEdgeDensityDetector(graph.EdgeDensityConfig{
					Eps:      eps,
					MinEdges: minEdges,
				})
			default:
				mcfg := graph.DefaultModularityConfig()
				mcfg.Resolution = resolution
				mcfg.Seed = seed
				detector = graph.NewModularityDetector(mcfg)
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			analyzer := analysis.New(storepgx.New(pool), detector, analysis.Options{
				Weights:     weights,
				TopSubjects: topSubjects,
			})

			sink, err := buildSink(ctx, cfg, outDir, useS3)
			if err != nil {
				return err
			}
			defer sink.Close()

			window := job.Window()
			var docs []export.Document

			if withComplete {
				report, err := analyzer.Complete(ctx, window)
				if err != nil {
					return err
				}
				docs = append(docs,
					export.Document{Name: export.CoalitionFile(congress, job.Chamber), Body: report.Coalitions},
					export.Document{Name: export.DeviationsFile(congress, job.Chamber), Body: report.Deviations},
					export.Document{Name: export.HotspotsFile(congress, job.Chamber), Body: report.Hotspots},
					export.Document{Name: export.CompleteFile(congress, job.Chamber), Body: report},
				)
			} else {
				report, err := analyzer.AnalyzeCoalitions(ctx, window)
				if err != nil {
					return err
				}
				docs = append(docs, export.Document{
					Name: export.CoalitionFile(congress, job.Chamber),
					Body: report,
				})

				if withDeviations {
					deviations, err := analyzer.Deviations(ctx, window)
					if err != nil {
						return err
					}
					docs = append(docs, export.Document{
						Name: export.DeviationsFile(congress, job.Chamber),
						Body: deviations,
					})
				}
				if withHotspots {
					hotspots, err := analyzer.Hotspots(ctx, window)
					if err != nil {
						return err
					}
					docs = append(docs, export.Document{
						Name: export.HotspotsFile(congress, job.Chamber),
						Body: hotspots,
					})
				}
			}

			if err := export.WriteAll(ctx, sink, docs); err != nil {
				return err
			}

			logger.Info("[Analysis] Export complete",
				"congress", congress,
				"chamber", job.Chamber,
				"method", job.DetectorMethod(),
				"documents", len(docs),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&congress, "congress", 0, "Congress number, e.g. 118 (required)")
	cmd.Flags().StringVar(&chamber, "chamber", "", "Chamber: house or senate (required)")
	cmd.Flags().StringVar(&start, "start", "", "Window start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Window end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&method, "method", "", "Detection method: modularity or edge_density (default modularity)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Node-visit seed for modularity detection")
	cmd.Flags().Float64Var(&resolution, "resolution", 1.0, "Modularity resolution")
	cmd.Flags().Float64Var(&eps, "eps", 0.1, "Edge-density neighborhood distance")
	cmd.Flags().IntVar(&minEdges, "min-edges", 2, "Edge-density minimum neighborhood size")
	cmd.Flags().StringVar(&weightsFlag, "weights", "", "Layer weights as vote,cosponsor,amendment (default 0.6,0.3,0.1)")
	cmd.Flags().IntVar(&topSubjects, "top-subjects", analysis.DefaultTopSubjects, "Subject terms reported per coalition")
	cmd.Flags().StringVar(&outDir, "out", "exports", "Local export directory")
	cmd.Flags().BoolVar(&useS3, "s3", false, "Export to S3 instead of a local directory")
	cmd.Flags().BoolVar(&withDeviations, "deviations", false, "Also run the party-line deviation scan")
	cmd.Flags().BoolVar(&withHotspots, "hotspots", false, "Also run the bipartisan hotspot scan")
	cmd.Flags().BoolVar(&withComplete, "complete", false, "Run every analysis and export the combined document")
	cmd.MarkFlagRequired("congress")
	cmd.MarkFlagRequired("chamber")

	return cmd
}

// parseWeights reads a vote,cosponsor,amendment triple like
// "0.6,0.3,0.1". An empty string selects the default mix.
func parseWeights(s string) (graph.LayerWeights, error) {
	if s == "" {
		return graph.DefaultLayerWeights(), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return graph.LayerWeights{}, fmt.Errorf("weights must be vote,cosponsor,amendment, got %q", s)
	}
	vals := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return graph.LayerWeights{}, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		vals[i] = v
	}
	weights := graph.LayerWeights{Vote: vals[0], Cosponsor: vals[1], Amendment: vals[2]}
	if err := weights.Validate(); err != nil {
		return graph.LayerWeights{}, err
	}
	return weights, nil
}
