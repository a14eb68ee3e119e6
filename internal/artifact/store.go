// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact persists immutable, schema-validated stage outputs.
// Each pipeline run owns a directory of YAML stage documents named by
// stage index and label; documents are written once and never
// overwritten. A SQLite ledger records runs and their artifacts for
// the status surface.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// SchemaVersion is the current artifact envelope version. Readers
// reject documents from other versions.
const SchemaVersion = 1

const runsDir = "runs"

// Envelope is the metadata wrapper shared by every stage document.
type Envelope struct {
	SchemaVersion int       `yaml:"schema_version" json:"schema_version"`
	StageIndex    int       `yaml:"stage_index" json:"stage_index"`
	Label         string    `yaml:"label" json:"label"`
	RunID         string    `yaml:"run_id" json:"run_id"`
	ProducedAt    time.Time `yaml:"produced_at" json:"produced_at"`
}

// document pairs the envelope with a stage-specific payload.
type document[T any] struct {
	Envelope `yaml:",inline"`
	Payload  T `yaml:"payload"`
}

// Store reads and writes stage documents under the state directory.
type Store struct {
	stateDir string
}

// NewStore prepares the state directory layout.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = "state"
	}
	if err := os.MkdirAll(filepath.Join(stateDir, runsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating runs directory: %w", err)
	}
	return &Store{stateDir: stateDir}, nil
}

// StateDir returns the store's base directory.
func (s *Store) StateDir() string {
	return s.stateDir
}

// RunDir returns the directory holding one run's artifacts.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.stateDir, runsDir, runID)
}

// Path returns the artifact file path for a stage of a run.
func (s *Store) Path(runID string, stage int, label string) string {
	return filepath.Join(s.RunDir(runID), fmt.Sprintf("%02d-%s.yaml", stage, label))
}

// Write persists a stage document. Artifacts are append-only: writing
// over an existing document is an error, and the document lands via a
// temp file and rename so a crashed write never leaves a partial
// artifact as the stage's current output.
func Write[T any](s *Store, runID string, stage int, label string, payload T) (string, error) {
	dir := s.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	path := s.Path(runID, stage, label)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("artifact %s already exists: artifacts are append-only", path)
	}

	doc := document[T]{
		Envelope: Envelope{
			SchemaVersion: SchemaVersion,
			StageIndex:    stage,
			Label:         label,
			RunID:         runID,
			ProducedAt:    time.Now().UTC(),
		},
		Payload: payload,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling %s artifact: %w", label, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publishing %s: %w", path, err)
	}
	return path, nil
}

// Read loads and validates the stage document for (runID, stage,
// label). An envelope that does not match the expected schema version,
// stage index, or label is a schema-validation stage failure.
func Read[T any](s *Store, runID string, stage int, label string) (T, Envelope, error) {
	var doc document[T]

	path := s.Path(runID, stage, label)
	data, err := os.ReadFile(path)
	if err != nil {
		return doc.Payload, Envelope{}, fmt.Errorf("reading artifact: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc.Payload, Envelope{}, types.Failf(stage, types.FailSchemaValidation,
			"artifact %s does not parse: %v", path, err)
	}

	env := doc.Envelope
	switch {
	case env.SchemaVersion != SchemaVersion:
		return doc.Payload, env, types.Failf(stage, types.FailSchemaValidation,
			"artifact %s has schema version %d, want %d", path, env.SchemaVersion, SchemaVersion)
	case env.StageIndex != stage:
		return doc.Payload, env, types.Failf(stage, types.FailSchemaValidation,
			"artifact %s records stage %d, want %d", path, env.StageIndex, stage)
	case env.Label != label:
		return doc.Payload, env, types.Failf(stage, types.FailSchemaValidation,
			"artifact %s records label %q, want %q", path, env.Label, label)
	}

	return doc.Payload, env, nil
}
