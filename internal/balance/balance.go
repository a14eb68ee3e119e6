// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package balance bounds the spread of unit allocation across sibling
// categories so no category dominates the measurement. Redistribution
// shrinks deviations toward the sibling mean without reordering the
// ShortLex positions and without changing any parent-level total,
// inside a fixed iteration budget.
package balance

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// stageIndex is the balance validator's position in the pipeline.
const stageIndex = 3

// Validate rebalances every sibling group whose unit coefficient of
// variation exceeds the bound. It fails with a balance violation when
// a group cannot be brought under the bound within MaxIterations.
func Validate(tax types.Taxonomy, cfg types.BalanceConfig, w io.Writer) (types.Taxonomy, error) {
	maxCV := cfg.MaxCV
	if maxCV <= 0 {
		maxCV = 0.30
	}
	shrink := cfg.ShrinkFactor
	if shrink <= 0 || shrink >= 1 {
		shrink = 0.7
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	for _, group := range tax.SiblingGroups() {
		units := make([]int, len(group))
		for i, idx := range group {
			units[i] = tax.Categories[idx].Units
		}

		cv := coefficientOfVariation(units)
		if cv <= maxCV {
			continue
		}

		parent := tax.Categories[group[0]].ParentID
		label := parent
		if label == "" {
			label = "roots"
		}
		fmt.Fprintf(w, "rebalancing %s: unit CV %.3f exceeds %.3f\n", label, cv, maxCV)

		balanced, ok := redistribute(units, maxCV, shrink, maxIterations)
		if !ok {
			return types.Taxonomy{}, types.Failf(stageIndex, types.FailBalance,
				"children of %s keep unit CV %.3f above %.3f after %d iteration(s)",
				label, coefficientOfVariation(balanced), maxCV, maxIterations)
		}

		for i, idx := range group {
			tax.Categories[idx].Units = balanced[i]
		}
	}

	return tax, nil
}

// redistribute pulls units toward the group mean by the shrink factor
// each iteration. The mapping is affine with positive slope so the
// sibling rank order survives; largest-remainder rounding preserves
// the group total exactly.
func redistribute(units []int, maxCV, shrink float64, maxIterations int) ([]int, bool) {
	total := 0
	for _, u := range units {
		total += u
	}
	mean := float64(total) / float64(len(units))

	current := append([]int(nil), units...)
	for iter := 0; iter < maxIterations; iter++ {
		targets := make([]float64, len(current))
		for i, u := range current {
			targets[i] = mean + shrink*(float64(u)-mean)
		}
		current = roundPreservingTotal(targets, total)

		if coefficientOfVariation(current) <= maxCV {
			return current, true
		}
	}
	return current, false
}

// roundPreservingTotal converts targets to integers summing to total,
// assigning leftover units to the largest fractional remainders (ties
// to the earlier index).
func roundPreservingTotal(targets []float64, total int) []int {
	n := len(targets)
	floors := make([]int, n)
	remainders := make([]float64, n)
	allocated := 0
	for i, t := range targets {
		if t < 0 {
			t = 0
		}
		floors[i] = int(t)
		remainders[i] = t - float64(floors[i])
		allocated += floors[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for i := 0; i < total-allocated; i++ {
		floors[order[i%n]]++
	}
	return floors
}

// coefficientOfVariation returns stdev/mean of the units; 0 for a
// zero mean.
func coefficientOfVariation(units []int) float64 {
	if len(units) == 0 {
		return 0
	}
	var sum float64
	for _, u := range units {
		sum += float64(u)
	}
	mean := sum / float64(len(units))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, u := range units {
		d := float64(u) - mean
		variance += d * d
	}
	variance /= float64(len(units))
	return math.Sqrt(variance) / mean
}
