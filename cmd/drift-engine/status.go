// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/drift-engine/internal/artifact"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List runs and their artifacts from the ledger",
	Long: `Status lists past pipeline runs with their outcome. With --run it
lists that run's stage artifacts instead.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("run", "", "show artifacts for this run ID")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ledger, err := artifact.OpenLedger(cfg.Store)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID != "" {
		return printArtifacts(cmd, ledger, runID)
	}

	runs, err := ledger.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-10s  %s\n", "Run", "Started", "Status", "Detail")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range runs {
		detail := ""
		if r.Status == artifact.StatusFailed {
			detail = fmt.Sprintf("stage %d: %s", r.FailedStage, r.Reason)
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-10s  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, detail)
	}
	return nil
}

func printArtifacts(cmd *cobra.Command, ledger *artifact.Ledger, runID string) error {
	artifacts, err := ledger.Artifacts(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Printf("No artifacts recorded for run %s.\n", runID)
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-10s  %-20s  %s\n", "Stage", "Label", "Produced", "Path")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, a := range artifacts {
		fmt.Fprintf(os.Stdout, "%-5d  %-10s  %-20s  %s\n",
			a.StageIndex, a.Label, a.ProducedAt.Local().Format(time.DateTime), a.Path)
	}
	return nil
}
