// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taxonomy clusters extracted keywords into a ShortLex-ordered
// category tree and allocates each category's unit share of the
// observed token mass. Building is a pure function of the keyword
// table and the configuration, so re-running on the same table always
// reproduces the same tree.
package taxonomy

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// stageIndex is the taxonomy builder's position in the pipeline.
const stageIndex = 1

// maxRoots caps the top-level cluster count at the single-letter code
// space.
const maxRoots = 26

// Build clusters the keyword table into a finalized taxonomy. A
// category left without tokens raises a degenerate-category warning
// and triggers one re-clustering with a smaller root count before the
// stage fails.
func Build(table types.KeywordTable, cfg types.TaxonomyConfig, w io.Writer) (types.Taxonomy, error) {
	if table.TotalMass() == 0 {
		return types.Taxonomy{}, types.Failf(stageIndex, types.FailEmptyCorpus,
			"keyword table holds no token mass")
	}

	rootCount := cfg.RootCount
	if rootCount < 1 {
		rootCount = 1
	}
	if rootCount > maxRoots {
		rootCount = maxRoots
	}

	tax := build(table, rootCount, cfg)
	if code := degenerateCategory(tax); code != "" {
		fmt.Fprintf(w, "warning: degenerate category %s, re-clustering with %d roots\n",
			code, rootCount-1)
		if rootCount <= 1 {
			return types.Taxonomy{}, types.Failf(stageIndex, types.FailDegenerateCategory,
				"category %s has no token mass and no smaller clustering remains", code)
		}
		tax = build(table, rootCount-1, cfg)
		if code := degenerateCategory(tax); code != "" {
			return types.Taxonomy{}, types.Failf(stageIndex, types.FailDegenerateCategory,
				"category %s still has no token mass after re-clustering", code)
		}
	}

	fmt.Fprintf(w, "built taxonomy: %d categories, %d units\n", tax.Len(), tax.TotalUnits)
	return tax, nil
}

// build performs one clustering pass. Tokens partition across the
// whole tree: a subdivided parent keeps its dominant sub-cluster and
// spins the rest off as children, so every category owns tokens and
// the tree's units sum to the total token mass.
func build(table types.KeywordTable, rootCount int, cfg types.TaxonomyConfig) types.Taxonomy {
	maxChildren := cfg.MaxChildren
	if maxChildren < 1 {
		maxChildren = 3
	}

	tokens := table.Tokens()
	roots := clusterTokens(table, tokens, rootCount)

	var categories []types.Category
	for i, root := range roots {
		code := string(rune('A' + i))
		categories = append(categories, subdivide(table, root, code, "", 0, maxChildren, cfg.MaxDepth)...)
	}

	sort.Slice(categories, func(i, j int) bool {
		return Compare(categories[i].ID, categories[j].ID) < 0
	})

	total := 0
	for i := range categories {
		categories[i].Position = i
		total += categories[i].Units
	}

	return types.Taxonomy{Categories: categories, TotalUnits: total}
}

// subdivide materializes one cluster as a category, recursively
// splitting off child categories while the cluster is large enough and
// the depth budget allows.
func subdivide(table types.KeywordTable, c cluster, code, parentID string, depth, maxChildren, maxDepth int) []types.Category {
	// Splitting needs the parent's retained share plus at least two
	// tokens per prospective child to be worthwhile.
	splittable := depth < maxDepth && len(c.tokens) >= 2*(maxChildren+1)
	if !splittable {
		return []types.Category{newCategory(table, c, code, parentID, depth)}
	}

	parts := clusterTokens(table, c.tokens, maxChildren+1)
	if len(parts) < 2 {
		return []types.Category{newCategory(table, c, code, parentID, depth)}
	}

	// The dominant sub-cluster stays with the parent.
	retained := parts[0]
	retained.seed = c.seed
	categories := []types.Category{newCategory(table, retained, code, parentID, depth)}

	for i, part := range parts[1:] {
		childCode := fmt.Sprintf("%s.%d", code, i+1)
		categories = append(categories,
			subdivide(table, part, childCode, code, depth+1, maxChildren, maxDepth)...)
	}
	return categories
}

func newCategory(table types.KeywordTable, c cluster, code, parentID string, depth int) types.Category {
	keywords := append([]string(nil), c.tokens...)
	sort.Strings(keywords)

	intent := make(map[string]float64, len(keywords))
	reality := make(map[string]float64, len(keywords))
	units := 0
	for _, token := range keywords {
		count := table[token]
		intent[token] = float64(count.Intent)
		reality[token] = float64(count.Reality)
		units += count.Total()
	}

	return types.Category{
		ID:             code,
		Name:           categoryName(c.seed),
		Description:    fmt.Sprintf("keywords grouped around %q", c.seed),
		ParentID:       parentID,
		Depth:          depth,
		Keywords:       keywords,
		Units:          units,
		IntentWeights:  intent,
		RealityWeights: reality,
	}
}

func categoryName(seed string) string {
	if seed == "" {
		return "Unnamed"
	}
	return strings.ToUpper(seed[:1]) + seed[1:]
}

// degenerateCategory returns the code of the first category without
// token mass, or "".
func degenerateCategory(tax types.Taxonomy) string {
	for _, c := range tax.Categories {
		if len(c.Keywords) == 0 || c.Units == 0 {
			return c.ID
		}
	}
	return ""
}
