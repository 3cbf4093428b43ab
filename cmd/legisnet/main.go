// Package main provides the legisnet binary: inline analysis runs,
// background job publishing, export schemas, and schema migrations for
// the legislative network analysis engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"

	"github.com/civicsignal/legisnet/internal/config"
	"github.com/civicsignal/legisnet/internal/export"
	"github.com/civicsignal/legisnet/pkg/logger"
	"github.com/civicsignal/legisnet/pkg/logger/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legisnet",
		Short: "Legislative network analysis engine",
		Long: `Legisnet detects voting coalitions, scans for party-line deviations
and bipartisan hotspots, and forecasts bill vote outcomes from a
legislative corpus in Postgres.

Analyses run inline and export JSON documents to a directory or S3;
the enqueue commands publish the same runs to RabbitMQ for the worker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		coalitionsCmd(),
		predictCmd(),
		enqueueCmd(),
		schemaCmd(),
		migrateCmd(),
	)
	return cmd
}

// setup loads configuration and initializes the console logger; every
// command that touches infrastructure calls it first.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	}))
	return cfg, nil
}

// buildSink picks the export destination: S3 when requested, a local
// directory otherwise.
func buildSink(ctx context.Context, cfg *config.Config, outDir string, useS3 bool) (export.Sink, error) {
	if useS3 {
		if err := cfg.RequireS3(); err != nil {
			return nil, err
		}
		client, err := export.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return export.NewS3Sink(client, cfg.AWSBucket, ""), nil
	}
	return export.NewDirSink(outDir)
}
