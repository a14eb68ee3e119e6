// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/internal/pipeline"
	"github.com/pdiddy/drift-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline from a stage through completion",
	Long: `Run executes all pipeline stages from the given index through the
final grade. A fresh run (--from 0, the default) gets a new run ID and
a new artifact directory; resuming from a later stage requires --run
naming an existing run whose earlier artifacts are present.

Exit code is 0 when the run completes; on failure the failing stage
index and reason are reported and the exit code is non-zero.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("from", 0, "first stage index to execute")
	runCmd.Flags().String("run", "", "existing run ID (required with --from > 0)")
	runCmd.Flags().String("root", "", "repository root to measure")
	runCmd.Flags().String("commit-log", "", "exported commit-log text file for the reality corpus")
	runCmd.Flags().StringSlice("intent-glob", nil, "intent source glob (repeatable)")
	runCmd.Flags().StringSlice("reality-glob", nil, "reality source glob (repeatable)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyCorpusFlags(cmd, &cfg)

	from, _ := cmd.Flags().GetInt("from")
	runID, _ := cmd.Flags().GetString("run")
	switch {
	case from == 0 && runID == "":
		runID = uuid.NewString()
	case from > 0 && runID == "":
		return fmt.Errorf("--from %d requires --run naming an existing run", from)
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

	fmt.Fprintf(os.Stderr, "run %s: stages %d..%d\n", runID, from, pipeline.LastStage)

	p := pipeline.New(cfg, store, ledger, os.Stderr)
	if err := p.Run(ctx, runID, from, pipeline.LastStage); err != nil {
		if f, ok := types.FailureOf(err); ok {
			return fmt.Errorf("run %s failed at stage %d (%s): %s",
				runID, f.Stage, f.Code, f.Detail)
		}
		return err
	}

	fmt.Println(runID)
	return nil
}

// applyCorpusFlags layers corpus flags over the loaded configuration.
func applyCorpusFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Corpus.RootDir = root
	}
	if commitLog, _ := cmd.Flags().GetString("commit-log"); commitLog != "" {
		cfg.Corpus.CommitLog = commitLog
	}
	if globs, _ := cmd.Flags().GetStringSlice("intent-glob"); len(globs) > 0 {
		cfg.Corpus.IntentGlobs = globs
	}
	if globs, _ := cmd.Flags().GetStringSlice("reality-glob"); len(globs) > 0 {
		cfg.Corpus.RealityGlobs = globs
	}
}
