package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/drift-engine/internal/corpus"
	"github.com/pdiddy/drift-engine/pkg/types"
)

func testCfg() types.ExtractionConfig {
	return types.ExtractionConfig{
		MinTokenLength: 3,
		Denylist:       []string{"the", "and"},
	}
}

// --- tokenizer ---

func TestTokenizeFiltersNoise(t *testing.T) {
	tk := NewTokenizer(3, []string{"func", "the"})

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases", "Trust DEBT", []string{"trust", "debt"}},
		{"splits on punctuation", "drift(matrix).score", []string{"drift", "matrix", "score"}},
		{"drops short tokens", "a be sea deep", []string{"sea", "deep"}},
		{"drops pure numerals", "1024 v2 route66", []string{"route66"}},
		{"drops denylist", "func the measure", []string{"measure"}},
		{"keeps identifiers", "total_drift cellValue", []string{"total_drift", "cellvalue"}},
		{"empty", "  \n\t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tk.Tokenize(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

// --- extraction ---

func TestExtractCountsPerCorpus(t *testing.T) {
	corpora := corpus.Corpora{
		Intent:  []corpus.Source{{ID: "spec.md", Text: "trust debt measurement"}},
		Reality: []corpus.Source{{ID: "calc.go", Text: "debt calculation function function"}},
	}

	table, err := Extract(context.Background(), corpora, testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := types.KeywordTable{
		"trust":       {Intent: 1, Reality: 0},
		"debt":        {Intent: 1, Reality: 1},
		"measurement": {Intent: 1, Reality: 0},
		"calculation": {Intent: 0, Reality: 1},
		"function":    {Intent: 0, Reality: 2},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

// TestExtractAssociative splits a corpus into chunks and checks the
// summed partial tables equal the whole-corpus table, for several
// worker counts.
func TestExtractAssociative(t *testing.T) {
	text := strings.Repeat("orthogonal category drift matrix balance units grade ", 40)
	words := strings.Fields(text)

	whole := corpus.Corpora{
		Intent: []corpus.Source{{ID: "all", Text: text}},
	}
	var chunked corpus.Corpora
	for i := 0; i < len(words); i += 7 {
		end := min(i+7, len(words))
		chunked.Intent = append(chunked.Intent, corpus.Source{
			ID:   string(rune('a' + i%26)),
			Text: strings.Join(words[i:end], " "),
		})
	}

	cfg := testCfg()
	wholeTable, err := Extract(context.Background(), whole, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Extract(whole): %v", err)
	}

	for _, workers := range []int{1, 2, 8} {
		cfg.Workers = workers
		chunkTable, err := Extract(context.Background(), chunked, cfg, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("Extract(chunked, %d workers): %v", workers, err)
		}
		if diff := cmp.Diff(wholeTable, chunkTable); diff != "" {
			t.Errorf("chunked table with %d workers differs (-whole +chunked):\n%s", workers, diff)
		}
	}
}

func TestExtractEmptyCorpusFails(t *testing.T) {
	corpora := corpus.Corpora{
		Intent:  []corpus.Source{{ID: "a", Text: "... 123 !!"}},
		Reality: []corpus.Source{{ID: "b", Text: ""}},
	}

	_, err := Extract(context.Background(), corpora, testCfg(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected empty-corpus failure")
	}
	if !types.IsCode(err, types.FailEmptyCorpus) {
		t.Errorf("error = %v, want failure code %s", err, types.FailEmptyCorpus)
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	corpora := corpus.Corpora{
		Intent: []corpus.Source{{ID: "a", Text: "some intent text"}},
	}
	if _, err := Extract(ctx, corpora, testCfg(), &bytes.Buffer{}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
