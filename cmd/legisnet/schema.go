package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicsignal/legisnet/internal/export"
	"github.com/civicsignal/legisnet/pkg/analysis"
	"github.com/civicsignal/legisnet/pkg/predict"
)

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [report|forecast|deviations|hotspots|complete]",
		Short:     "Print the JSON Schema of an export document",
		Long:      "Prints the JSON Schema of an export document so downstream consumers can validate what the engine writes. Defaults to the coalition report.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"report", "forecast", "deviations", "hotspots", "complete"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "report"
			if len(args) > 0 {
				kind = args[0]
			}

			var doc any
			switch kind {
			case "report":
				doc = analysis.CoalitionReport{}
			case "forecast":
				doc = predict.BillForecast{}
			case "deviations":
				doc = analysis.DeviationReport{}
			case "hotspots":
				doc = analysis.HotspotReport{}
			case "complete":
				doc = analysis.CompleteReport{}
			default:
				return fmt.Errorf("unknown document kind %q", kind)
			}

			data, err := json.MarshalIndent(export.Schema(doc), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
