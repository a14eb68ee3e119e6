// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/internal/pipeline"
	"github.com/pdiddy/drift-engine/pkg/types"
)

var stageCmd = &cobra.Command{
	Use:   "stage <index>",
	Short: "Run a single pipeline stage by index",
	Long: `Stage executes exactly one pipeline stage. Stage 0 starts a new run;
later stages require --run naming the run holding the prior artifacts.`,
	Args: cobra.ExactArgs(1),
	RunE: runStage,
}

func init() {
	stageCmd.Flags().String("run", "", "run ID holding the prior stage artifacts")
	stageCmd.Flags().String("root", "", "repository root to measure")
	stageCmd.Flags().String("commit-log", "", "exported commit-log text file for the reality corpus")
	stageCmd.Flags().StringSlice("intent-glob", nil, "intent source glob (repeatable)")
	stageCmd.Flags().StringSlice("reality-glob", nil, "reality source glob (repeatable)")

	rootCmd.AddCommand(stageCmd)
}

func runStage(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 || index > pipeline.LastStage {
		return fmt.Errorf("stage index must be 0..%d, got %q", pipeline.LastStage, args[0])
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyCorpusFlags(cmd, &cfg)

	runID, _ := cmd.Flags().GetString("run")
	switch {
	case index == 0 && runID == "":
		runID = uuid.NewString()
	case index > 0 && runID == "":
		return fmt.Errorf("stage %d requires --run naming an existing run", index)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	ledger, err := artifact.OpenLedger(cfg.Store)
	if err != nil {
		return err
	}
	defer ledger.Close()

	p := pipeline.New(cfg, store, ledger, os.Stderr)
	if err := p.Run(ctx, runID, index, index); err != nil {
		if f, ok := types.FailureOf(err); ok {
			return fmt.Errorf("stage %d failed (%s): %s", f.Stage, f.Code, f.Detail)
		}
		return err
	}

	fmt.Println(runID)
	return nil
}
