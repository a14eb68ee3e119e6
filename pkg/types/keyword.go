// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the drift-engine
// pipeline: keyword tables, the category taxonomy, the drift matrix,
// grade reports, stage configuration, and typed stage failures.
package types

import "sort"

// KeywordCount holds per-corpus occurrence counts for one token.
type KeywordCount struct {
	// Intent is the occurrence count in the documentation corpus.
	Intent int `json:"intent" yaml:"intent"`

	// Reality is the occurrence count in the implementation corpus.
	Reality int `json:"reality" yaml:"reality"`
}

// Total returns the combined occurrence count across both corpora.
func (c KeywordCount) Total() int {
	return c.Intent + c.Reality
}

// KeywordTable maps normalized tokens to their per-corpus counts.
// Tokens with a zero combined count never appear in the table.
type KeywordTable map[string]KeywordCount

// Add accumulates counts for token. Merging partial tables with Add is
// commutative and associative, so a table built from any partition of
// the corpus equals the table built from the whole.
func (t KeywordTable) Add(token string, intent, reality int) {
	c := t[token]
	c.Intent += intent
	c.Reality += reality
	t[token] = c
}

// Merge folds other into t.
func (t KeywordTable) Merge(other KeywordTable) {
	for token, c := range other {
		t.Add(token, c.Intent, c.Reality)
	}
}

// TotalMass returns the combined occurrence count over all tokens.
func (t KeywordTable) TotalMass() int {
	total := 0
	for _, c := range t {
		total += c.Total()
	}
	return total
}

// Tokens returns the table's tokens in lexicographic order.
func (t KeywordTable) Tokens() []string {
	tokens := make([]string, 0, len(t))
	for token := range t {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// KeywordRecord is the serialized form of one table entry, used in the
// stage artifact so the document is stable across runs.
type KeywordRecord struct {
	// Token is the normalized keyword.
	Token string `json:"token" yaml:"token"`

	// Intent and Reality are the per-corpus counts.
	Intent  int `json:"intent" yaml:"intent"`
	Reality int `json:"reality" yaml:"reality"`
}

// KeywordArtifact is the payload of the extraction stage artifact.
type KeywordArtifact struct {
	// Records lists all extracted keywords in lexicographic token order.
	Records []KeywordRecord `json:"records" yaml:"records"`

	// IntentSources and RealitySources count the processed inputs.
	IntentSources  int `json:"intent_sources" yaml:"intent_sources"`
	RealitySources int `json:"reality_sources" yaml:"reality_sources"`
}

// Table rebuilds the in-memory keyword table from the artifact records.
func (a KeywordArtifact) Table() KeywordTable {
	t := make(KeywordTable, len(a.Records))
	for _, r := range a.Records {
		t.Add(r.Token, r.Intent, r.Reality)
	}
	return t
}

// NewKeywordArtifact converts a table to its artifact form with records
// in deterministic order.
func NewKeywordArtifact(t KeywordTable, intentSources, realitySources int) KeywordArtifact {
	records := make([]KeywordRecord, 0, len(t))
	for _, token := range t.Tokens() {
		c := t[token]
		records = append(records, KeywordRecord{Token: token, Intent: c.Intent, Reality: c.Reality})
	}
	return KeywordArtifact{
		Records:        records,
		IntentSources:  intentSources,
		RealitySources: realitySources,
	}
}
