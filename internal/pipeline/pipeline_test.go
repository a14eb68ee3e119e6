package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/pkg/types"
)

func TestMachineTransitions(t *testing.T) {
	t.Run("stages run in order", func(t *testing.T) {
		m := newMachine()
		if err := m.start(0); err != nil {
			t.Fatalf("start(0): %v", err)
		}
		if err := m.start(1); err != nil {
			t.Fatalf("start(1): %v", err)
		}
		if err := m.start(3); err == nil {
			t.Error("start(3) after stage 1 should be illegal")
		}
	})

	t.Run("may begin mid-pipeline", func(t *testing.T) {
		m := newMachine()
		if err := m.start(2); err != nil {
			t.Fatalf("start(2) from pending: %v", err)
		}
		if err := m.start(3); err != nil {
			t.Fatalf("start(3): %v", err)
		}
	})

	t.Run("fail only while running", func(t *testing.T) {
		m := newMachine()
		if err := m.fail("boom"); err == nil {
			t.Error("fail from pending should be illegal")
		}
		if err := m.start(0); err != nil {
			t.Fatal(err)
		}
		if err := m.fail("boom"); err != nil {
			t.Fatalf("fail from running: %v", err)
		}
		if err := m.start(1); err == nil {
			t.Error("start after failure should be illegal")
		}
	})

	t.Run("complete only from last stage", func(t *testing.T) {
		m := newMachine()
		if err := m.start(3); err != nil {
			t.Fatal(err)
		}
		if err := m.complete(); err == nil {
			t.Error("complete from stage 3 should be illegal")
		}

		m = newMachine()
		if err := m.start(LastStage); err != nil {
			t.Fatal(err)
		}
		if err := m.complete(); err != nil {
			t.Fatalf("complete from last stage: %v", err)
		}
		if err := m.fail("boom"); err == nil {
			t.Error("fail after completion should be illegal")
		}
	})
}

func TestStageLabels(t *testing.T) {
	want := []string{"keywords", "taxonomy", "orthogonal", "balance", "matrix", "grade"}
	for stage, label := range want {
		if got := StageLabel(stage); got != label {
			t.Errorf("StageLabel(%d) = %q, want %q", stage, got, label)
		}
	}
	if got := StageLabel(StageCount); got != "unknown" {
		t.Errorf("StageLabel(%d) = %q, want unknown", StageCount, got)
	}
}

// testConfig builds a pipeline configuration over a small repository
// checkout: one documentation file on the intent side and one source
// file on the reality side.
func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"docs/vision.md": "trust debt measurement",
		"src/calc.go":    "debt calculation function function",
	}
	for name, text := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := types.DefaultConfig()
	cfg.Corpus.RootDir = root
	cfg.Corpus.IntentGlobs = []string{"docs/**/*.md"}
	cfg.Corpus.RealityGlobs = []string{"src/**/*.go"}
	cfg.Taxonomy.RootCount = 2
	cfg.Balance.MaxCV = 0.45
	cfg.Store.StateDir = t.TempDir()
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}
	ledger, err := artifact.OpenLedger(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()

	var out bytes.Buffer
	p := New(cfg, store, ledger, &out)
	ctx := context.Background()

	if err := p.Run(ctx, "run-e2e", 0, LastStage); err != nil {
		t.Fatalf("Run: %v\noutput:\n%s", err, out.String())
	}

	// Every stage leaves one durable artifact.
	for stage := 0; stage <= LastStage; stage++ {
		path := store.Path("run-e2e", stage, StageLabel(stage))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stage %d artifact missing: %v", stage, err)
		}
	}

	runs, err := ledger.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != artifact.StatusCompleted {
		t.Fatalf("ledger runs = %+v, want one completed run", runs)
	}
	artifacts, err := ledger.Artifacts(ctx, "run-e2e")
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != StageCount {
		t.Errorf("ledger catalogued %d artifacts, want %d", len(artifacts), StageCount)
	}

	// The two corpora disagree, so self-consistency drift must show up
	// on the diagonal and push the total above zero.
	m, _, err := artifact.Read[types.DriftMatrix](store, "run-e2e", StageMatrix, StageLabel(StageMatrix))
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalDrift <= 0 {
		t.Errorf("total drift = %g, want > 0", m.TotalDrift)
	}
	diagonalDrift := 0.0
	for _, cell := range m.Diagonal() {
		diagonalDrift += cell.Contribution
	}
	if diagonalDrift <= 0 {
		t.Errorf("diagonal drift = %g, want > 0", diagonalDrift)
	}

	g, _, err := artifact.Read[types.GradeReport](store, "run-e2e", StageGrade, StageLabel(StageGrade))
	if err != nil {
		t.Fatal(err)
	}
	wantScore := m.TotalDrift * (1 - cfg.Grading.SophisticationDiscount)
	if diff := g.CalibratedScore - wantScore; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("calibrated score = %g, want %g", g.CalibratedScore, wantScore)
	}
	if g.Band == "" {
		t.Error("grade band not assigned")
	}
}

func TestRunResumesFromStage(t *testing.T) {
	cfg := testConfig(t)
	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}
	ledger, err := artifact.OpenLedger(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()

	var out bytes.Buffer
	p := New(cfg, store, ledger, &out)
	ctx := context.Background()

	if err := p.Run(ctx, "run-resume", 0, StageTaxonomy); err != nil {
		t.Fatalf("first half: %v", err)
	}
	if err := p.Run(ctx, "run-resume", StageOrthogonality, LastStage); err != nil {
		t.Fatalf("second half: %v", err)
	}

	runs, err := ledger.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != artifact.StatusCompleted {
		t.Fatalf("ledger runs = %+v, want one completed run", runs)
	}
}

func TestRunEmptyCorpusFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Corpus.RootDir = t.TempDir() // nothing to match
	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}
	ledger, err := artifact.OpenLedger(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()

	var out bytes.Buffer
	p := New(cfg, store, ledger, &out)
	ctx := context.Background()

	err = p.Run(ctx, "run-empty", 0, LastStage)
	if !types.IsCode(err, types.FailEmptyCorpus) {
		t.Fatalf("Run error = %v, want empty_corpus failure", err)
	}

	runs, lerr := ledger.Runs(ctx)
	if lerr != nil {
		t.Fatal(lerr)
	}
	if len(runs) != 1 || runs[0].Status != artifact.StatusFailed {
		t.Fatalf("ledger runs = %+v, want one failed run", runs)
	}
	if runs[0].FailedStage != StageExtract {
		t.Errorf("failed stage = %d, want %d", runs[0].FailedStage, StageExtract)
	}
	if !strings.Contains(runs[0].Reason, string(types.FailEmptyCorpus)) {
		t.Errorf("reason = %q, want the failure code recorded", runs[0].Reason)
	}
}

func TestRunRejectsBadStageRange(t *testing.T) {
	p := New(types.DefaultConfig(), nil, nil, &bytes.Buffer{})
	ctx := context.Background()

	for _, r := range [][2]int{{-1, 2}, {0, StageCount}, {3, 1}} {
		if err := p.Run(ctx, "x", r[0], r[1]); err == nil {
			t.Errorf("Run(%d, %d) should reject the range", r[0], r[1])
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := testConfig(t)
	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(cfg, store, nil, &bytes.Buffer{})
	if err := p.Run(ctx, "run-cancel", 0, LastStage); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if _, statErr := os.Stat(store.Path("run-cancel", 0, StageLabel(0))); statErr == nil {
		t.Error("cancelled run should not have written the stage 0 artifact")
	}
}

func TestBuildReport(t *testing.T) {
	cfg := testConfig(t)
	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p := New(cfg, store, nil, &out)
	if err := p.Run(context.Background(), "run-report", 0, LastStage); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := BuildReport(store, "run-report")
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if report.RunID != "run-report" {
		t.Errorf("run id = %q", report.RunID)
	}
	if len(report.Categories) == 0 {
		t.Fatal("report has no categories")
	}
	for i, c := range report.Categories {
		if c.Position != i {
			t.Errorf("category %s at index %d has position %d", c.ID, i, c.Position)
		}
	}
	n := len(report.Categories)
	if len(report.Cells) != n*n {
		t.Errorf("report has %d cells, want %d", len(report.Cells), n*n)
	}
	if report.Score <= 0 {
		t.Errorf("score = %g, want > 0", report.Score)
	}
	if report.Grade == "" {
		t.Error("grade not assigned")
	}
}

func TestBuildReportIncompleteRun(t *testing.T) {
	cfg := testConfig(t)
	store, err := artifact.NewStore(cfg.Store)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p := New(cfg, store, nil, &out)
	if err := p.Run(context.Background(), "run-partial", 0, StageBalance); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := BuildReport(store, "run-partial"); err == nil {
		t.Error("expected error for a run without matrix and grade artifacts")
	}
}
