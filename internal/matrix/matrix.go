// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package matrix builds the N×N asymmetric drift matrix over the
// finalized taxonomy. Diagonal cells measure a category's internal
// intent/reality consistency; an off-diagonal cell (i, j) measures the
// directional interaction of category i with category j, computed
// independently of its transpose. Every value derives deterministically
// from the category token weights.
package matrix

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/drift-engine/internal/taxonomy"
	"github.com/pdiddy/drift-engine/pkg/types"
)

// stageIndex is the matrix builder's position in the pipeline.
const stageIndex = 4

// representativeTokens bounds how many high-weight keywords stand in
// for a category when computing cross-category affinity.
const representativeTokens = 8

// Build constructs the drift matrix. expectedDim is the category count
// recorded by the validators; a taxonomy whose size changed since
// validation is rejected with a dimension mismatch, never silently
// accepted.
func Build(ctx context.Context, tax types.Taxonomy, expectedDim int, cfg types.MatrixConfig, w io.Writer) (types.DriftMatrix, error) {
	n := tax.Len()
	if n != expectedDim {
		return types.DriftMatrix{}, types.Failf(stageIndex, types.FailDimensionMismatch,
			"taxonomy has %d categories, validation recorded %d", n, expectedDim)
	}
	if n == 0 {
		return types.DriftMatrix{}, types.Failf(stageIndex, types.FailDimensionMismatch,
			"taxonomy is empty")
	}

	scale := cfg.SelfDriftScale
	if scale <= 0 {
		scale = 100
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	codes := make([]string, n)
	reps := make([][]string, n)
	for i, c := range tax.Categories {
		codes[i] = c.ID
		reps[i] = representatives(c)
	}

	m := types.DriftMatrix{
		Dimension:  n,
		Categories: codes,
		Cells:      make([]types.MatrixCell, n*n),
	}

	// Rows are independent; each worker fills its own slice segment.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := tax.Categories[i]
			for j := 0; j < n; j++ {
				cell := &m.Cells[i*n+j]
				cell.Row = codes[i]
				cell.Col = codes[j]
				if i == j {
					fillDiagonal(cell, row, scale)
				} else {
					cell.Intent = directionalStrength(row.IntentWeights, reps[j])
					cell.Reality = directionalStrength(row.RealityWeights, reps[j])
					diff := cell.Intent - cell.Reality
					cell.Contribution = diff * diff
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.DriftMatrix{}, err
	}

	// Sum in row-major order so the total is bit-identical across runs
	// regardless of worker scheduling.
	var total float64
	for _, cell := range m.Cells {
		total += cell.Contribution
	}
	m.TotalDrift = total

	fmt.Fprintf(w, "built %d×%d matrix, total drift %.2f\n", n, n, total)
	return m, nil
}

// fillDiagonal scores a category against itself. Self-consistency is
// 1 − |I−R|/(I+R) over the category's intent and reality mass, so a
// category documented and delivered in equal measure contributes
// nothing.
func fillDiagonal(cell *types.MatrixCell, c types.Category, scale float64) {
	intent := c.IntentMass()
	reality := c.RealityMass()
	cell.Intent = intent
	cell.Reality = reality

	selfConsistency := 1.0
	if intent+reality > 0 {
		selfConsistency = 1 - math.Abs(intent-reality)/(intent+reality)
	}
	drift := 1 - selfConsistency
	cell.Contribution = drift * drift * scale
}

// directionalStrength measures how strongly the weighted tokens reach
// toward the target category's representative keywords. The measure is
// directional: swapping source and target gives a different value.
// Tokens are summed in lexicographic order so float rounding cannot
// vary between runs.
func directionalStrength(weights map[string]float64, targetReps []string) float64 {
	tokens := make([]string, 0, len(weights))
	for token := range weights {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var strength float64
	for _, token := range tokens {
		weight := weights[token]
		if weight == 0 {
			continue
		}
		ts := taxonomy.Stem(token)
		best := 0.0
		for _, rep := range targetReps {
			if sim := taxonomy.Similarity(ts, rep); sim > best {
				best = sim
			}
		}
		strength += weight * best
	}
	return strength
}

// representatives returns up to representativeTokens of the category's
// highest-weight keyword stems, deduplicated, in deterministic order.
func representatives(c types.Category) []string {
	keywords := append([]string(nil), c.Keywords...)
	sort.SliceStable(keywords, func(a, b int) bool {
		wa := c.IntentWeights[keywords[a]] + c.RealityWeights[keywords[a]]
		wb := c.IntentWeights[keywords[b]] + c.RealityWeights[keywords[b]]
		if wa != wb {
			return wa > wb
		}
		return keywords[a] < keywords[b]
	})

	seen := map[string]bool{}
	var reps []string
	for _, kw := range keywords {
		s := taxonomy.Stem(kw)
		if seen[s] {
			continue
		}
		seen[s] = true
		reps = append(reps, s)
		if len(reps) == representativeTokens {
			break
		}
	}
	return reps
}
