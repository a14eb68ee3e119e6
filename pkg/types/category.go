// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// Category is one node of the drift measurement taxonomy. Categories
// are created once per run by the taxonomy builder and are immutable
// afterwards, except for Units rebalancing and weight re-projection
// performed by the validators before the taxonomy is finalized.
type Category struct {
	// ID is the ShortLex code: one root letter, optionally followed by
	// "." and a child ordinal (e.g. "A", "B", "A.1", "C.2").
	ID string `json:"id" yaml:"id"`

	// Name and Description are human-readable metadata; they play no
	// part in computation.
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// ParentID references the parent category; empty for roots.
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// Depth is 0 for roots and parent depth + 1 otherwise.
	Depth int `json:"depth" yaml:"depth"`

	// Keywords lists the tokens assigned to this category, sorted.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Units is the category's allocated share of the total token mass.
	Units int `json:"units" yaml:"units"`

	// Position is the category's rank in the ShortLex total order.
	Position int `json:"position" yaml:"position"`

	// IntentWeights and RealityWeights give the per-token weighted mass
	// of the category in each corpus. They start as raw counts and may
	// be re-projected by the orthogonality validator.
	IntentWeights  map[string]float64 `json:"intent_weights" yaml:"intent_weights"`
	RealityWeights map[string]float64 `json:"reality_weights" yaml:"reality_weights"`
}

// IntentMass returns the sum of the category's intent token weights.
func (c Category) IntentMass() float64 {
	return sumWeights(c.IntentWeights)
}

// RealityMass returns the sum of the category's reality token weights.
func (c Category) RealityMass() float64 {
	return sumWeights(c.RealityWeights)
}

// sumWeights adds token weights in lexicographic token order; summing
// in map order would let float rounding vary between runs.
func sumWeights(weights map[string]float64) float64 {
	tokens := make([]string, 0, len(weights))
	for token := range weights {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var m float64
	for _, token := range tokens {
		m += weights[token]
	}
	return m
}

// Mass returns the category's combined weighted mass.
func (c Category) Mass() float64 {
	return c.IntentMass() + c.RealityMass()
}

// Taxonomy is the finalized, ShortLex-ordered category list produced by
// the taxonomy builder and refined by the validators.
type Taxonomy struct {
	// Categories is sorted by ShortLex order; Position matches the index.
	Categories []Category `json:"categories" yaml:"categories"`

	// TotalUnits is the full tree's unit allocation, equal to the total
	// observed token mass.
	TotalUnits int `json:"total_units" yaml:"total_units"`
}

// Len returns the number of categories.
func (t Taxonomy) Len() int {
	return len(t.Categories)
}

// ByID returns the category with the given code, or nil.
func (t *Taxonomy) ByID(id string) *Category {
	for i := range t.Categories {
		if t.Categories[i].ID == id {
			return &t.Categories[i]
		}
	}
	return nil
}

// Children returns the indices of parentID's children in order.
// parentID "" selects the roots.
func (t Taxonomy) Children(parentID string) []int {
	var idx []int
	for i := range t.Categories {
		if t.Categories[i].ParentID == parentID {
			idx = append(idx, i)
		}
	}
	return idx
}

// ValidatedTaxonomy is the payload of the validator stages. It pins
// the category count observed at validation time so the matrix builder
// can reject a taxonomy whose size drifted after validation.
type ValidatedTaxonomy struct {
	Taxonomy Taxonomy `json:"taxonomy" yaml:"taxonomy"`

	// ValidatedCount is the category count recorded by the validator.
	ValidatedCount int `json:"validated_count" yaml:"validated_count"`
}

// SiblingGroups returns the category index groups that share a parent,
// including the root group, ordered by parent code. Groups of fewer
// than two members are omitted.
func (t Taxonomy) SiblingGroups() [][]int {
	parents := []string{""}
	seen := map[string]bool{"": true}
	for _, c := range t.Categories {
		if !seen[c.ParentID] {
			seen[c.ParentID] = true
			parents = append(parents, c.ParentID)
		}
	}
	sort.Strings(parents)

	var groups [][]int
	for _, p := range parents {
		g := t.Children(p)
		if len(g) >= 2 {
			groups = append(groups, g)
		}
	}
	return groups
}
