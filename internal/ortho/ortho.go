// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ortho validates that sibling categories measure independent
// axes. It computes pairwise cosine correlation between sibling token
// weight vectors and repairs correlated pairs by orthogonal
// re-projection, within a fixed pass budget. The repair loop is a
// bounded fixed-point iteration: it terminates with either a validated
// taxonomy or a typed orthogonality failure naming the worst pair.
package ortho

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

// stageIndex is the orthogonality validator's position in the pipeline.
const stageIndex = 2

// pairCorrelation is the measured correlation between two sibling
// categories, identified by their indices in the taxonomy.
type pairCorrelation struct {
	a, b  int
	value float64
}

// Validate checks every sibling pair's correlation against the
// threshold, re-projecting the lower-mass sibling of each violating
// pair for up to MaxRepairPasses passes. On success the returned
// taxonomy carries the repaired weights and re-apportioned units.
func Validate(ctx context.Context, tax types.Taxonomy, cfg types.OrthogonalityConfig, w io.Writer) (types.Taxonomy, error) {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 0.10
	}
	passes := cfg.MaxRepairPasses
	if passes < 0 {
		passes = 0
	}

	groups := tax.SiblingGroups()
	repaired := false

	for pass := 0; ; pass++ {
		correlations, err := measure(ctx, &tax, groups, cfg.Workers)
		if err != nil {
			return types.Taxonomy{}, err
		}

		violations := violating(correlations, threshold)
		if len(violations) == 0 {
			if repaired {
				taxonomy.Apportion(&tax)
				fmt.Fprintf(w, "orthogonality restored after %d repair pass(es)\n", pass)
			}
			return tax, nil
		}

		if pass >= passes {
			worst := violations[0]
			return types.Taxonomy{}, types.Failf(stageIndex, types.FailOrthogonality,
				"siblings %s and %s correlate at %.3f (threshold %.3f) after %d repair pass(es)",
				tax.Categories[worst.a].ID, tax.Categories[worst.b].ID,
				worst.value, threshold, pass)
		}

		for _, v := range violations {
			fmt.Fprintf(w, "warning: siblings %s and %s correlate at %.3f, re-projecting\n",
				tax.Categories[v.a].ID, tax.Categories[v.b].ID, v.value)
			repair(&tax.Categories[v.a], &tax.Categories[v.b])
		}
		repaired = true
	}
}

// measure computes all sibling-pair correlations on a worker pool.
// Results land in a pre-sized slice by pair index, so worker
// scheduling cannot affect the outcome.
func measure(ctx context.Context, tax *types.Taxonomy, groups [][]int, workers int) ([]pairCorrelation, error) {
	type pair struct{ a, b int }
	var pairs []pair
	for _, group := range groups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				pairs = append(pairs, pair{group[i], group[j]})
			}
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]pairCorrelation, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a := combinedVector(tax.Categories[p.a])
			b := combinedVector(tax.Categories[p.b])
			results[i] = pairCorrelation{a: p.a, b: p.b, value: Cosine(a, b)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// violating filters and sorts the violations, worst first.
func violating(correlations []pairCorrelation, threshold float64) []pairCorrelation {
	var out []pairCorrelation
	for _, c := range correlations {
		if math.Abs(c.value) > threshold {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].value) > math.Abs(out[j].value)
	})
	return out
}

// repair orthogonally re-projects the lower-mass category of the pair
// against the higher-mass one: the shared component is removed from
// its weight vectors, with negative residuals clamped to zero. The
// clamp means one projection may not fully decorrelate the pair, which
// is why the caller iterates.
func repair(a, b *types.Category) {
	lower, higher := a, b
	if lower.Mass() > higher.Mass() {
		lower, higher = higher, lower
	}

	lv := combinedVector(*lower)
	hv := combinedVector(*higher)

	dot := dotProduct(lv, hv)
	norm := dotProduct(hv, hv)
	if norm == 0 || dot == 0 {
		return
	}
	coeff := dot / norm

	for token, old := range lv {
		projected := old - coeff*hv[token]
		if projected < 0 {
			projected = 0
		}
		scale := 0.0
		if old > 0 {
			scale = projected / old
		}
		lower.IntentWeights[token] *= scale
		lower.RealityWeights[token] *= scale
	}
}

// combinedVector returns the category's intent+reality token weights.
func combinedVector(c types.Category) map[string]float64 {
	v := make(map[string]float64, len(c.IntentWeights))
	for token, w := range c.IntentWeights {
		v[token] += w
	}
	for token, w := range c.RealityWeights {
		v[token] += w
	}
	return v
}

// Cosine computes the cosine correlation of two sparse vectors over
// the union of their token universes, zero-padded for non-overlap.
// Either vector being empty or all-zero yields 0.
func Cosine(a, b map[string]float64) float64 {
	na := math.Sqrt(dotProduct(a, a))
	nb := math.Sqrt(dotProduct(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	return dotProduct(a, b) / (na * nb)
}

func dotProduct(a, b map[string]float64) float64 {
	var sum float64
	for token, wa := range a {
		if wb, ok := b[token]; ok {
			sum += wa * wb
		}
	}
	return sum
}
