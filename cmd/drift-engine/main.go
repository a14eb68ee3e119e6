// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the drift-engine CLI. The CLI
// wraps the measurement pipeline: run executes stages through
// completion, stage executes a single stage, status inspects the run
// ledger, and report emits the downstream schema.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the drift-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "drift-engine",
	Short: "Measure documentation/implementation drift for a repository",
	Long: `drift-engine ingests a repository's documentation (Intent) and its
implementation artifacts (Reality), derives an orthogonal category
taxonomy, builds an asymmetric per-category drift matrix, and reduces
it to a calibrated grade.

The pipeline runs as numbered stages, each persisting an immutable
YAML artifact consumed by the next stage. Use run for a full run,
stage for a single stage, status to inspect past runs, and report to
emit the downstream schema.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./drift-engine.yaml or ~/.config/drift-engine/config.yaml)")
	rootCmd.PersistentFlags().String("state-dir", "", "base directory for run artifacts and the ledger")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("drift-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "drift-engine"))
		}
	}

	viper.SetEnvPrefix("DRIFT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults,
// then applies shared flags.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	cfg := types.DefaultConfig()

	// Config keys follow the yaml tags of PipelineConfig.
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	if stateDir, _ := cmd.Flags().GetString("state-dir"); stateDir != "" {
		cfg.Store.StateDir = stateDir
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
