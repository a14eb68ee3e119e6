package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/drift-engine/pkg/types"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := OpenLedger(types.StoreConfig{StateDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestLedgerRunLifecycle(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.BeginRun(ctx, "run-1", started))

	runs, err := ledger.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.Equal(t, -1, runs[0].FailedStage)
	assert.True(t, runs[0].StartedAt.Equal(started))

	require.NoError(t, ledger.CompleteRun(ctx, "run-1", started.Add(time.Minute)))

	runs, err = ledger.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusCompleted, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.Equal(started.Add(time.Minute)))
}

func TestLedgerFailedRun(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	started := time.Now()

	require.NoError(t, ledger.BeginRun(ctx, "run-2", started))
	require.NoError(t, ledger.FailRun(ctx, "run-2", 2, "siblings A and B correlate at 0.500", started.Add(time.Second)))

	runs, err := ledger.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Equal(t, 2, runs[0].FailedStage)
	assert.Contains(t, runs[0].Reason, "correlate")
}

func TestLedgerDuplicateRunID(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.BeginRun(ctx, "run-3", time.Now()))
	assert.Error(t, ledger.BeginRun(ctx, "run-3", time.Now()))
}

func TestLedgerArtifacts(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, ledger.BeginRun(ctx, "run-4", now))
	// Record out of stage order to check the listing sorts.
	require.NoError(t, ledger.RecordArtifact(ctx, "run-4", 1, "taxonomy", "state/runs/run-4/01-taxonomy.yaml", now))
	require.NoError(t, ledger.RecordArtifact(ctx, "run-4", 0, "keywords", "state/runs/run-4/00-keywords.yaml", now))

	artifacts, err := ledger.Artifacts(ctx, "run-4")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, 0, artifacts[0].StageIndex)
	assert.Equal(t, "keywords", artifacts[0].Label)
	assert.Equal(t, 1, artifacts[1].StageIndex)
	assert.Equal(t, "taxonomy", artifacts[1].Label)

	// One catalogue row per stage of a run.
	assert.Error(t, ledger.RecordArtifact(ctx, "run-4", 0, "keywords", "elsewhere.yaml", now))
}

func TestLedgerLatestRun(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, ok, err := ledger.LatestRun(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.BeginRun(ctx, "older", base))
	require.NoError(t, ledger.BeginRun(ctx, "newer", base.Add(time.Hour)))

	latest, ok, err := ledger.LatestRun(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "newer", latest.ID)
}
