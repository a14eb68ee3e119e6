// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grade reduces total drift to a calibrated score and an
// ordered grade band. The sophistication discount is a disclosed
// calibration constant crediting architectural complexity; band
// boundaries are fixed and non-overlapping, with boundary values
// belonging to the stricter band.
package grade

import (
	"fmt"
	"io"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// Grade applies the calibration and maps the score to its band.
func Grade(totalDrift float64, cfg types.GradingConfig, w io.Writer) (types.GradeReport, error) {
	if err := validate(cfg); err != nil {
		return types.GradeReport{}, err
	}
	if totalDrift < 0 {
		return types.GradeReport{}, fmt.Errorf("total drift is negative: %g", totalDrift)
	}

	score := totalDrift * (1 - cfg.SophisticationDiscount)
	report := types.GradeReport{
		TotalDrift:             totalDrift,
		SophisticationDiscount: cfg.SophisticationDiscount,
		CalibratedScore:        score,
		Band:                   BandFor(score, cfg),
	}

	fmt.Fprintf(w, "drift %.2f, calibrated %.2f, grade %s\n",
		totalDrift, score, report.Band)
	return report, nil
}

// BandFor maps a calibrated score to its grade band. The mapping is
// total over [0, ∞); a score exactly on a boundary takes the lower
// (stricter) band, so AMax itself grades A.
func BandFor(score float64, cfg types.GradingConfig) types.GradeBand {
	switch {
	case score <= cfg.AMax:
		return types.GradeA
	case score <= cfg.BMax:
		return types.GradeB
	case score <= cfg.CMax:
		return types.GradeC
	default:
		return types.GradeD
	}
}

func validate(cfg types.GradingConfig) error {
	if cfg.SophisticationDiscount < 0 || cfg.SophisticationDiscount >= 1 {
		return fmt.Errorf("sophistication discount %g outside [0, 1)", cfg.SophisticationDiscount)
	}
	if !(cfg.AMax < cfg.BMax && cfg.BMax < cfg.CMax) {
		return fmt.Errorf("band boundaries must increase: A %g, B %g, C %g",
			cfg.AMax, cfg.BMax, cfg.CMax)
	}
	return nil
}
