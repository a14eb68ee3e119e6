// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// FailureCode is the machine-readable reason for a stage failure.
type FailureCode string

const (
	// FailEmptyCorpus: both corpora produced zero tokens.
	FailEmptyCorpus FailureCode = "empty_corpus"

	// FailDegenerateCategory: a category ended up with no tokens and
	// re-clustering could not repair it.
	FailDegenerateCategory FailureCode = "degenerate_category"

	// FailOrthogonality: a sibling pair's correlation stayed above the
	// threshold after the repair budget was spent.
	FailOrthogonality FailureCode = "orthogonality_violation"

	// FailBalance: sibling unit variation stayed above the bound after
	// the redistribution budget was spent.
	FailBalance FailureCode = "balance_violation"

	// FailDimensionMismatch: the taxonomy size changed between
	// validation and matrix construction.
	FailDimensionMismatch FailureCode = "dimension_mismatch"

	// FailSchemaValidation: a stage artifact did not match the expected
	// envelope or payload schema.
	FailSchemaValidation FailureCode = "schema_validation_error"
)

// StageFailure is a typed pipeline failure carrying the failing stage
// index and a machine-readable reason code. Every stage violation
// surfaces as a StageFailure rather than a bare error so the
// orchestrator can report exactly which stage failed and why.
type StageFailure struct {
	// Stage is the zero-based index of the failing stage.
	Stage int

	// Code is the failure reason.
	Code FailureCode

	// Detail is a human-readable elaboration (offending pair, measured
	// value, expected dimension, ...).
	Detail string
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %d: %s: %s", f.Stage, f.Code, f.Detail)
}

// Failf builds a StageFailure with a formatted detail message.
func Failf(stage int, code FailureCode, format string, args ...any) error {
	return &StageFailure{Stage: stage, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// FailureOf extracts the StageFailure from err's chain, if any.
func FailureOf(err error) (*StageFailure, bool) {
	var f *StageFailure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsCode reports whether err carries the given failure code.
func IsCode(err error, code FailureCode) bool {
	f, ok := FailureOf(err)
	return ok && f.Code == code
}
