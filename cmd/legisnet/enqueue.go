package main

import (
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/civicsignal/legisnet/internal/config"
	"github.com/civicsignal/legisnet/internal/queue"
	"github.com/civicsignal/legisnet/pkg/legis"
	"github.com/civicsignal/legisnet/pkg/logger"
)

func enqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish a background job for the worker instead of running inline",
	}
	cmd.AddCommand(enqueueAnalysisCmd(), enqueueForecastCmd())
	return cmd
}

func enqueueAnalysisCmd() *cobra.Command {
	var (
		congress int
		chamber  string
		method   string
		seed     int64
		start    string
		end      string
	)

	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Queue a coalition analysis run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			job := queue.AnalysisJob{
				Congress:  congress,
				Chamber:   legis.Chamber(strings.ToLower(chamber)),
				Method:    method,
				Seed:      seed,
				StartDate: start,
				EndDate:   end,
			}

			ch, cleanup, err := openChannel(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := queue.EnqueueAnalysis(ch, job); err != nil {
				return err
			}
			logger.Info("[Queue] Analysis job queued",
				"congress", congress,
				"chamber", job.Chamber,
				"method", job.DetectorMethod(),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&congress, "congress", 0, "Congress number, e.g. 118 (required)")
	cmd.Flags().StringVar(&chamber, "chamber", "", "Chamber: house or senate (required)")
	cmd.Flags().StringVar(&method, "method", "", "Detection method: modularity or edge_density (default modularity)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Node-visit seed override for modularity detection")
	cmd.Flags().StringVar(&start, "start", "", "Window start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Window end date, YYYY-MM-DD")
	cmd.MarkFlagRequired("congress")
	cmd.MarkFlagRequired("chamber")

	return cmd
}

func enqueueForecastCmd() *cobra.Command {
	var (
		billID        string
		rankDefectors bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Queue a bill vote forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			job := queue.ForecastJob{BillID: billID, RankDefectors: rankDefectors}

			ch, cleanup, err := openChannel(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := queue.EnqueueForecast(ch, job); err != nil {
				return err
			}
			logger.Info("[Queue] Forecast job queued", "bill_id", billID)
			return nil
		},
	}

	cmd.Flags().StringVar(&billID, "bill", "", "Bill ID, e.g. hr-2617-117 (required)")
	cmd.Flags().BoolVar(&rankDefectors, "rank-defectors", false, "Include the likely-defector ranking in the document")
	cmd.MarkFlagRequired("bill")

	return cmd
}

// openChannel connects to the broker, declares the work queues, and
// returns a publishing channel with a cleanup closing both it and the
// connection.
func openChannel(cfg *config.Config) (*amqp.Channel, func(), error) {
	if err := cfg.RequireQueue(); err != nil {
		return nil, nil, err
	}

	conn, err := queue.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := queue.SetupQueues(ch, queue.WorkQueues); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}

	cleanup := func() {
		ch.Close()
		conn.Close()
	}
	return ch, cleanup, nil
}
