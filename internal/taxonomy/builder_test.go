package taxonomy

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/drift-engine/pkg/types"
)

func testCfg() types.TaxonomyConfig {
	return types.TaxonomyConfig{RootCount: 3, MaxChildren: 3, MaxDepth: 1}
}

// sampleTable builds a keyword table with a few clear stem families.
func sampleTable() types.KeywordTable {
	table := make(types.KeywordTable)
	for token, counts := range map[string][2]int{
		"measure":     {4, 2},
		"measurement": {3, 1},
		"measuring":   {1, 2},
		"drift":       {5, 5},
		"drifting":    {1, 1},
		"grade":       {2, 3},
		"grading":     {2, 2},
		"balance":     {3, 0},
		"balanced":    {0, 3},
	} {
		table.Add(token, counts[0], counts[1])
	}
	return table
}

func TestBuildDeterministic(t *testing.T) {
	first, err := Build(sampleTable(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(sampleTable(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build (second): %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated build differs (-first +second):\n%s", diff)
	}
}

func TestBuildUnitsSumToTokenMass(t *testing.T) {
	table := sampleTable()
	tax, err := Build(table, testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sum := 0
	for _, c := range tax.Categories {
		sum += c.Units
	}
	if sum != table.TotalMass() {
		t.Errorf("units sum = %d, want total mass %d", sum, table.TotalMass())
	}
	if tax.TotalUnits != sum {
		t.Errorf("TotalUnits = %d, want %d", tax.TotalUnits, sum)
	}
}

func TestBuildPositionsFollowShortLex(t *testing.T) {
	tax, err := Build(sampleTable(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i, c := range tax.Categories {
		if c.Position != i {
			t.Errorf("category %s: position %d at index %d", c.ID, c.Position, i)
		}
		if i > 0 && Compare(tax.Categories[i-1].ID, c.ID) >= 0 {
			t.Errorf("codes out of ShortLex order: %s before %s",
				tax.Categories[i-1].ID, c.ID)
		}
	}
}

func TestBuildTreeStructure(t *testing.T) {
	tax, err := Build(sampleTable(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, c := range tax.Categories {
		if c.ParentID != ParentOf(c.ID) {
			t.Errorf("category %s: parent %q, want %q", c.ID, c.ParentID, ParentOf(c.ID))
		}
		if c.Depth != DepthOf(c.ID) {
			t.Errorf("category %s: depth %d, want %d", c.ID, c.Depth, DepthOf(c.ID))
		}
		if c.ParentID != "" {
			if parent := tax.ByID(c.ParentID); parent == nil {
				t.Errorf("category %s: parent %s missing", c.ID, c.ParentID)
			} else if parent.Depth != c.Depth-1 {
				t.Errorf("category %s: depth %d, parent depth %d", c.ID, c.Depth, parent.Depth)
			}
		}
	}
}

func TestBuildNoDegenerateCategories(t *testing.T) {
	tax, err := Build(sampleTable(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, c := range tax.Categories {
		if c.Units == 0 || len(c.Keywords) == 0 {
			t.Errorf("category %s is degenerate: %d units, %d keywords",
				c.ID, c.Units, len(c.Keywords))
		}
	}
}

func TestBuildEachTokenOwnedOnce(t *testing.T) {
	table := sampleTable()
	tax, err := Build(table, testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	owner := map[string]string{}
	for _, c := range tax.Categories {
		for _, kw := range c.Keywords {
			if prev, ok := owner[kw]; ok {
				t.Errorf("token %q owned by %s and %s", kw, prev, c.ID)
			}
			owner[kw] = c.ID
		}
	}
	for token := range table {
		if _, ok := owner[token]; !ok {
			t.Errorf("token %q unassigned", token)
		}
	}
}

func TestBuildSubdivides(t *testing.T) {
	// A single root with a large vocabulary must split into children.
	table := make(types.KeywordTable)
	for i := 0; i < 30; i++ {
		table.Add(fmt.Sprintf("token%02d", i), i+1, 1)
	}

	cfg := types.TaxonomyConfig{RootCount: 1, MaxChildren: 3, MaxDepth: 1}
	tax, err := Build(table, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if children := tax.Children("A"); len(children) == 0 {
		t.Error("root A was not subdivided")
	}
	for _, c := range tax.Categories {
		if c.Depth > 1 {
			t.Errorf("category %s exceeds max depth: %d", c.ID, c.Depth)
		}
	}
}

func TestBuildEmptyTableFails(t *testing.T) {
	_, err := Build(make(types.KeywordTable), testCfg(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected failure on empty table")
	}
	if !types.IsCode(err, types.FailEmptyCorpus) {
		t.Errorf("error = %v, want failure code %s", err, types.FailEmptyCorpus)
	}
}
