// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatrixCell is one cell of the drift matrix, indexed by the row and
// column category codes. The matrix is deliberately asymmetric: the
// cell (i, j) and its transpose (j, i) are computed from independent
// directional measures and are not expected to agree.
type MatrixCell struct {
	Row string `json:"row" yaml:"row"`
	Col string `json:"col" yaml:"col"`

	// Intent and Reality are the directional strength of the pair as
	// promised by documentation and as delivered by implementation.
	Intent  float64 `json:"intent" yaml:"intent"`
	Reality float64 `json:"reality" yaml:"reality"`

	// Contribution is the cell's share of total drift, always >= 0.
	Contribution float64 `json:"contribution" yaml:"contribution"`
}

// DriftMatrix is the N×N category drift matrix in row-major order,
// rows and columns both following the taxonomy's ShortLex order.
// Diagonal cells measure a category's internal intent/reality
// consistency; the upper triangle captures reality exceeding
// documented intent and the lower triangle intent exceeding delivered
// reality.
type DriftMatrix struct {
	// Dimension is the validated category count N.
	Dimension int `json:"dimension" yaml:"dimension"`

	// Categories lists the N category codes in ShortLex order.
	Categories []string `json:"categories" yaml:"categories"`

	// Cells holds all N² cells, row-major.
	Cells []MatrixCell `json:"cells" yaml:"cells"`

	// TotalDrift is the sum of all cell contributions.
	TotalDrift float64 `json:"total_drift" yaml:"total_drift"`
}

// At returns the cell at row i, column j.
func (m *DriftMatrix) At(i, j int) *MatrixCell {
	return &m.Cells[i*m.Dimension+j]
}

// Diagonal returns the N diagonal cells in order.
func (m *DriftMatrix) Diagonal() []MatrixCell {
	diag := make([]MatrixCell, 0, m.Dimension)
	for i := 0; i < m.Dimension; i++ {
		diag = append(diag, *m.At(i, i))
	}
	return diag
}
