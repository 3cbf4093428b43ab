package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/civicsignal/legisnet/internal/export"
	"github.com/civicsignal/legisnet/internal/queue"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/predict"
	storepgx "github.com/civicsignal/legisnet/pkg/store/pgx"
)

func predictCmd() *cobra.Command {
	var (
		billID        string
		rankDefectors bool
		outDir        string
		useS3         bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast a bill's vote outcome across its chamber",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			job := queue.ForecastJob{BillID: billID, RankDefectors: rankDefectors}
			if err := job.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			forecast, err := predict.New(storepgx.New(pool)).ScoreBill(ctx, job.BillID)
			if err != nil {
				return err
			}
			if job.RankDefectors {
				forecast.LikelyDefectors = forecast.RankDefectors()
			}

			sink, err := buildSink(ctx, cfg, outDir, useS3)
			if err != nil {
				return err
			}
			defer sink.Close()

			name := export.ForecastFile(job.BillID)
			if err := sink.Write(ctx, name, forecast); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}

			logger.Info("[Predict] Forecast exported",
				"bill_id", job.BillID,
				"members", len(forecast.Members),
				"cross_party_share", forecast.CrossPartyShare,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&billID, "bill", "", "Bill ID, e.g. hr-2617-117 (required)")
	cmd.Flags().BoolVar(&rankDefectors, "rank-defectors", false, "Include the likely-defector ranking in the document")
	cmd.Flags().StringVar(&outDir, "out", "exports", "Local export directory")
	cmd.Flags().BoolVar(&useS3, "s3", false, "Export to S3 instead of a local directory")
	cmd.MarkFlagRequired("bill")

	return cmd
}
