//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Measure builds the binary and runs the full pipeline against the
// current directory.
func Measure() error {
	mg.Deps(Build)
	return engine("run")
}

// Stage builds the binary and runs a single pipeline stage. The run ID
// comes from the DRIFT_ENGINE_RUN environment variable for stages
// after the first.
func Stage(index string) error {
	mg.Deps(Build)
	args := []string{"stage", index}
	if runID := os.Getenv("DRIFT_ENGINE_RUN"); runID != "" {
		args = append(args, "--run", runID)
	}
	return engine(args...)
}

// Report builds the binary and prints the latest completed run's
// downstream report.
func Report() error {
	mg.Deps(Build)
	return engine("report")
}

func engine(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}
