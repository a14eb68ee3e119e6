// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"sort"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// cluster is one deterministic grouping of tokens around a seed stem.
type cluster struct {
	seed   string
	tokens []string
	mass   int
}

// clusterTokens partitions tokens into at most k groups. Seeds are the
// k highest-mass stems (ties broken lexicographically); every token
// joins the seed with the highest character-bigram Dice similarity to
// its stem, ties again broken by seed order. The procedure is fully
// deterministic: identical input always yields identical clusters.
func clusterTokens(table types.KeywordTable, tokens []string, k int) []cluster {
	if k < 1 {
		k = 1
	}

	// Aggregate mass per stem.
	stemMass := map[string]int{}
	for _, token := range tokens {
		stemMass[Stem(token)] += table[token].Total()
	}
	if k > len(stemMass) {
		k = len(stemMass)
	}

	stems := make([]string, 0, len(stemMass))
	for s := range stemMass {
		stems = append(stems, s)
	}
	sort.Slice(stems, func(i, j int) bool {
		if stemMass[stems[i]] != stemMass[stems[j]] {
			return stemMass[stems[i]] > stemMass[stems[j]]
		}
		return stems[i] < stems[j]
	})
	seeds := stems[:k]

	clusters := make([]cluster, k)
	for i, s := range seeds {
		clusters[i] = cluster{seed: s}
	}

	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)

	for _, token := range sorted {
		best := 0
		bestSim := -1.0
		ts := Stem(token)
		for i, c := range clusters {
			sim := Similarity(ts, c.seed)
			if sim > bestSim {
				bestSim = sim
				best = i
			}
		}
		clusters[best].tokens = append(clusters[best].tokens, token)
		clusters[best].mass += table[token].Total()
	}

	// Dominant cluster first; the caller assigns codes in this order.
	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].mass != clusters[j].mass {
			return clusters[i].mass > clusters[j].mass
		}
		return clusters[i].seed < clusters[j].seed
	})
	return clusters
}

// Stem strips common English suffixes so related word forms share a
// grouping root ("measure", "measured", "measurement" ...).
func Stem(token string) string {
	for _, suffix := range []string{"ments", "ment", "tions", "tion", "ings", "ing", "ies", "ers", "er", "es", "ed", "s"} {
		if len(token) > len(suffix)+2 && token[len(token)-len(suffix):] == suffix {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}

// Similarity computes the Sørensen–Dice coefficient over the two
// strings' character-bigram sets. Identical strings score 1, disjoint
// bigram sets score 0. Single-character strings compare by equality.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	shared := 0
	for g := range ba {
		if bb[g] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ba)+len(bb))
}

func bigrams(s string) map[string]bool {
	set := map[string]bool{}
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}
