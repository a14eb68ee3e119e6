// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"sort"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// Apportion recomputes integer units from the categories' weighted
// masses, preserving the taxonomy's total via largest-remainder
// rounding. The validators call this after re-projecting weights so
// unit allocation keeps tracking measured mass.
func Apportion(tax *types.Taxonomy) {
	n := len(tax.Categories)
	if n == 0 {
		return
	}

	var sumMass float64
	masses := make([]float64, n)
	for i, c := range tax.Categories {
		masses[i] = c.Mass()
		sumMass += masses[i]
	}
	if sumMass == 0 {
		return
	}

	total := tax.TotalUnits
	floors := make([]int, n)
	remainders := make([]float64, n)
	allocated := 0
	for i, m := range masses {
		quota := float64(total) * m / sumMass
		floors[i] = int(quota)
		remainders[i] = quota - float64(floors[i])
		allocated += floors[i]
	}

	// Hand leftover units to the largest remainders; ties go to the
	// earlier ShortLex position so the result is deterministic.
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

	for i := range tax.Categories {
		tax.Categories[i].Units = floors[i]
	}
}
