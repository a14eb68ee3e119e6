// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/internal/pipeline"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Emit the downstream report schema for a completed run",
	Long: `Report assembles the stable downstream schema — category list, full
matrix cell list, calibrated score, and grade band — from a completed
run's artifacts. Defaults to the most recent completed run.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("run", "", "run ID (default: most recent completed run)")
	reportCmd.Flags().String("format", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		ledger, err := artifact.OpenLedger(cfg.Store)
		if err != nil {
			return err
		}
		runID, err = latestCompletedRun(cmd, ledger)
		ledger.Close()
		if err != nil {
			return err
		}
	}

	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	report, err := pipeline.BuildReport(store, runID)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func latestCompletedRun(cmd *cobra.Command, ledger *artifact.Ledger) (string, error) {
	runs, err := ledger.Runs(cmd.Context())
	if err != nil {
		return "", err
	}
	for _, r := range runs {
		if r.Status == artifact.StatusCompleted {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("no completed runs recorded: run the pipeline first")
}
