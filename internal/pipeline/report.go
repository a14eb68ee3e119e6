// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/pkg/types"
)

// CategorySummary is the per-category slice of the downstream report
// schema.
type CategorySummary struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Units    int    `json:"units" yaml:"units"`
	Position int    `json:"position" yaml:"position"`
}

// Report is the stable schema handed to downstream renderers: the
// finalized category list, the full matrix cell list, and the scalar
// grade. Rendering beyond this document is out of scope.
type Report struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	Categories []CategorySummary `json:"categories" yaml:"categories"`
	Cells      []types.MatrixCell `json:"cells" yaml:"cells"`
	Score      float64           `json:"score" yaml:"score"`
	Grade      types.GradeBand   `json:"grade" yaml:"grade"`
}

// BuildReport assembles the report from a completed run's balance,
// matrix, and grade artifacts.
func BuildReport(store *artifact.Store, runID string) (Report, error) {
	balanced, _, err := artifact.Read[types.ValidatedTaxonomy](store, runID, StageBalance, StageLabel(StageBalance))
	if err != nil {
		return Report{}, err
	}
	m, _, err := artifact.Read[types.DriftMatrix](store, runID, StageMatrix, StageLabel(StageMatrix))
	if err != nil {
		return Report{}, err
	}
	g, _, err := artifact.Read[types.GradeReport](store, runID, StageGrade, StageLabel(StageGrade))
	if err != nil {
		return Report{}, err
	}

	categories := make([]CategorySummary, 0, balanced.Taxonomy.Len())
	for _, c := range balanced.Taxonomy.Categories {
		categories = append(categories, CategorySummary{
			ID:       c.ID,
			Name:     c.Name,
			Units:    c.Units,
			Position: c.Position,
		})
	}

	return Report{
		RunID:      runID,
		Categories: categories,
		Cells:      m.Cells,
		Score:      g.CalibratedScore,
		Grade:      g.Band,
	}, nil
}
