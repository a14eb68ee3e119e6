// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CorpusConfig holds settings for corpus collection.
type CorpusConfig struct {
	// RootDir is the repository root the globs are resolved against.
	RootDir string `json:"root_dir" yaml:"root_dir"`

	// IntentGlobs select documentation sources (doublestar patterns).
	IntentGlobs []string `json:"intent_globs" yaml:"intent_globs"`

	// RealityGlobs select implementation sources (doublestar patterns).
	RealityGlobs []string `json:"reality_globs" yaml:"reality_globs"`

	// CommitLog is an optional path to an exported commit-log text file,
	// appended to the reality corpus when present.
	CommitLog string `json:"commit_log,omitempty" yaml:"commit_log,omitempty"`
}

// ExtractionConfig holds settings for the keyword extraction stage.
type ExtractionConfig struct {
	// MinTokenLength drops tokens shorter than this many runes (default 3).
	MinTokenLength int `json:"min_token_length" yaml:"min_token_length"`

	// Denylist lists syntax-noise tokens excluded from counting.
	Denylist []string `json:"denylist" yaml:"denylist"`

	// Workers bounds the tokenization worker pool (default GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers"`
}

// TaxonomyConfig holds settings for the category taxonomy builder.
type TaxonomyConfig struct {
	// RootCount is the number of top-level clusters (default 4).
	RootCount int `json:"root_count" yaml:"root_count"`

	// MaxChildren bounds the number of children per category (default 3).
	MaxChildren int `json:"max_children" yaml:"max_children"`

	// MaxDepth is the deepest child level; 0 means roots only (default 1).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
}

// OrthogonalityConfig holds settings for the orthogonality validator.
type OrthogonalityConfig struct {
	// Threshold is the maximum allowed absolute sibling correlation
	// (default 0.10).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// MaxRepairPasses bounds the re-projection loop (default 3).
	MaxRepairPasses int `json:"max_repair_passes" yaml:"max_repair_passes"`

	// Workers bounds the pair-correlation worker pool.
	Workers int `json:"workers" yaml:"workers"`
}

// BalanceConfig holds settings for the balance validator.
type BalanceConfig struct {
	// MaxCV is the maximum allowed coefficient of variation of sibling
	// units (default 0.30).
	MaxCV float64 `json:"max_cv" yaml:"max_cv"`

	// ShrinkFactor scales deviations from the mean each iteration
	// (default 0.7).
	ShrinkFactor float64 `json:"shrink_factor" yaml:"shrink_factor"`

	// MaxIterations bounds the redistribution loop (default 10).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// MatrixConfig holds settings for the drift matrix builder.
type MatrixConfig struct {
	// SelfDriftScale multiplies diagonal self-consistency drift
	// (default 100).
	SelfDriftScale float64 `json:"self_drift_scale" yaml:"self_drift_scale"`

	// Workers bounds the per-row cell computation pool.
	Workers int `json:"workers" yaml:"workers"`
}

// GradingConfig holds settings for the grading engine.
type GradingConfig struct {
	// SophisticationDiscount credits architectural complexity; the
	// calibrated score is totalDrift × (1 − discount). Default 0.30.
	// This is a disclosed calibration constant, not a hidden adjustment.
	SophisticationDiscount float64 `json:"sophistication_discount" yaml:"sophistication_discount"`

	// AMax, BMax, CMax are the inclusive upper bounds of bands A, B, C.
	// Scores above CMax grade D.
	AMax float64 `json:"a_max" yaml:"a_max"`
	BMax float64 `json:"b_max" yaml:"b_max"`
	CMax float64 `json:"c_max" yaml:"c_max"`
}

// StoreConfig holds settings for the artifact store.
type StoreConfig struct {
	// StateDir is the base directory for runs and the ledger
	// (contains runs/, index/).
	StateDir string `json:"state_dir" yaml:"state_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Corpus        CorpusConfig        `json:"corpus" yaml:"corpus"`
	Extraction    ExtractionConfig    `json:"extraction" yaml:"extraction"`
	Taxonomy      TaxonomyConfig      `json:"taxonomy" yaml:"taxonomy"`
	Orthogonality OrthogonalityConfig `json:"orthogonality" yaml:"orthogonality"`
	Balance       BalanceConfig       `json:"balance" yaml:"balance"`
	Matrix        MatrixConfig        `json:"matrix" yaml:"matrix"`
	Grading       GradingConfig       `json:"grading" yaml:"grading"`
	Store         StoreConfig         `json:"store" yaml:"store"`
}

// DefaultConfig returns the pipeline configuration defaults. Flags and
// the config file layer on top of these.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Corpus: CorpusConfig{
			RootDir:      ".",
			IntentGlobs:  []string{"*.md", "docs/**/*.md", "specs/**/*.md"},
			RealityGlobs: []string{"**/*.go"},
		},
		Extraction: ExtractionConfig{
			MinTokenLength: 3,
			Denylist:       DefaultDenylist(),
		},
		Taxonomy: TaxonomyConfig{
			RootCount:   4,
			MaxChildren: 3,
			MaxDepth:    1,
		},
		Orthogonality: OrthogonalityConfig{
			Threshold:       0.10,
			MaxRepairPasses: 3,
		},
		Balance: BalanceConfig{
			MaxCV:         0.30,
			ShrinkFactor:  0.7,
			MaxIterations: 10,
		},
		Matrix: MatrixConfig{
			SelfDriftScale: 100,
		},
		Grading: GradingConfig{
			SophisticationDiscount: 0.30,
			AMax:                   500,
			BMax:                   1500,
			CMax:                   3000,
		},
		Store: StoreConfig{
			StateDir: "state",
		},
	}
}

// DefaultDenylist returns the built-in syntax-noise token list. Short
// operators and punctuation never survive tokenization; this list
// removes the word-shaped noise common to prose and source code.
func DefaultDenylist() []string {
	return []string{
		"the", "and", "for", "with", "that", "this", "from", "are", "was",
		"were", "has", "have", "will", "can", "not", "but", "its", "into",
		"func", "var", "const", "type", "return", "nil", "err", "error",
		"string", "int", "bool", "true", "false", "package", "import",
		"range", "case", "default", "struct", "interface", "map", "chan",
	}
}
