// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns the Intent and Reality corpora into a weighted
// keyword frequency table. Extraction is pure and order-independent:
// sources are tokenized on a worker pool, each worker accumulates a
// partial table, and the commutative merge makes the result identical
// for any worker count or scheduling order.
package extract

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/drift-engine/internal/corpus"
	"github.com/pdiddy/drift-engine/pkg/types"
)

// stageIndex is the extractor's position in the pipeline.
const stageIndex = 0

// Extract tokenizes both corpora and returns the merged keyword table.
// When neither corpus yields a single token the run cannot measure
// anything and Extract fails with an empty-corpus stage failure rather
// than handing an empty taxonomy downstream.
func Extract(ctx context.Context, corpora corpus.Corpora, cfg types.ExtractionConfig, w io.Writer) (types.KeywordTable, error) {
	tk := NewTokenizer(cfg.MinTokenLength, cfg.Denylist)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	intentTable, err := extractCorpus(ctx, tk, corpora.Intent, true, workers)
	if err != nil {
		return nil, fmt.Errorf("extracting intent corpus: %w", err)
	}

	realityTable, err := extractCorpus(ctx, tk, corpora.Reality, false, workers)
	if err != nil {
		return nil, fmt.Errorf("extracting reality corpus: %w", err)
	}

	table := make(types.KeywordTable)
	table.Merge(intentTable)
	table.Merge(realityTable)

	if table.TotalMass() == 0 {
		return nil, types.Failf(stageIndex, types.FailEmptyCorpus,
			"no tokens in %d intent and %d reality sources",
			len(corpora.Intent), len(corpora.Reality))
	}

	fmt.Fprintf(w, "extracted %d keywords from %d intent + %d reality sources\n",
		len(table), len(corpora.Intent), len(corpora.Reality))
	return table, nil
}

// extractCorpus tokenizes one corpus on the worker pool. Each worker
// builds a private partial table; partials merge through a channel so
// no shared accumulator needs locking.
func extractCorpus(ctx context.Context, tk *Tokenizer, sources []corpus.Source, intent bool, workers int) (types.KeywordTable, error) {
	partials := make(chan types.KeywordTable, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partial := make(types.KeywordTable)
			for _, token := range tk.Tokenize(src.Text) {
				if intent {
					partial.Add(token, 1, 0)
				} else {
					partial.Add(token, 0, 1)
				}
			}
			partials <- partial
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(partials)

	table := make(types.KeywordTable)
	for partial := range partials {
		table.Merge(partial)
	}
	return table, nil
}
