// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GradeBand is the ordered grade assigned to a calibrated drift score.
type GradeBand string

const (
	GradeA GradeBand = "A"
	GradeB GradeBand = "B"
	GradeC GradeBand = "C"
	GradeD GradeBand = "D"
)

// GradeReport is the payload of the final grading artifact and the
// scalar summary consumed by downstream reporting.
type GradeReport struct {
	// TotalDrift is the raw matrix drift sum.
	TotalDrift float64 `json:"total_drift" yaml:"total_drift"`

	// SophisticationDiscount is the disclosed calibration constant
	// applied to the raw drift.
	SophisticationDiscount float64 `json:"sophistication_discount" yaml:"sophistication_discount"`

	// CalibratedScore is totalDrift × (1 − discount).
	CalibratedScore float64 `json:"calibrated_score" yaml:"calibrated_score"`

	// Band is the grade for the calibrated score. Band boundaries are
	// inclusive on the stricter side: a score exactly on a boundary
	// takes the lower band.
	Band GradeBand `json:"band" yaml:"band"`
}
