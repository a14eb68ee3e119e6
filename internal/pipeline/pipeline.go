// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the measurement stages. Each stage is a
// pure function from the prior artifact and the configuration to a new
// artifact; the orchestrator owns the state machine, writes every
// stage output through the append-only store, and records progress in
// the run ledger. No state crosses a stage boundary outside the
// artifact documents.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/pkg/types"
)

// Phase is the orchestrator's lifecycle phase.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseRunning   Phase = "running"
	PhaseFailed    Phase = "failed"
	PhaseCompleted Phase = "completed"
)

// machine enforces the legal phase transitions: Pending → Running(k),
// Running(k) → Running(k+1), Running(k) → Failed(k, reason), and
// Running(last) → Completed. Stages cannot run out of order.
type machine struct {
	phase  Phase
	stage  int
	reason string
}

func newMachine() *machine {
	return &machine{phase: PhasePending, stage: -1}
}

func (m *machine) start(stage int) error {
	switch {
	case m.phase == PhasePending:
		// A run may begin at any stage index (the run-from contract);
		// ordering is enforced from there on.
	case m.phase == PhaseRunning && stage == m.stage+1:
	default:
		return fmt.Errorf("illegal transition: %s(stage %d) -> running(stage %d)",
			m.phase, m.stage, stage)
	}
	m.phase = PhaseRunning
	m.stage = stage
	return nil
}

func (m *machine) fail(reason string) error {
	if m.phase != PhaseRunning {
		return fmt.Errorf("illegal transition: %s -> failed", m.phase)
	}
	m.phase = PhaseFailed
	m.reason = reason
	return nil
}

func (m *machine) complete() error {
	if m.phase != PhaseRunning || m.stage != LastStage {
		return fmt.Errorf("illegal transition: %s(stage %d) -> completed", m.phase, m.stage)
	}
	m.phase = PhaseCompleted
	return nil
}

// Pipeline wires the stages to the artifact store and the run ledger.
type Pipeline struct {
	cfg    types.PipelineConfig
	store  *artifact.Store
	ledger *artifact.Ledger
	w      io.Writer
}

// New builds a pipeline. The ledger may be nil, in which case runs are
// not catalogued (used by tests exercising stage flow only).
func New(cfg types.PipelineConfig, store *artifact.Store, ledger *artifact.Ledger, w io.Writer) *Pipeline {
	return &Pipeline{cfg: cfg, store: store, ledger: ledger, w: w}
}

// Run executes stages from through to (inclusive) for runID. A new
// run (from == 0) is registered in the ledger; stage k+1 starts only
// after stage k's artifact is durably written. On any stage error the
// run transitions to Failed and the error carries the stage index and
// reason. Cancelling ctx aborts in-progress stage work; completed
// artifacts are never touched.
func (p *Pipeline) Run(ctx context.Context, runID string, from, through int) error {
	if from < 0 || through > LastStage || from > through {
		return fmt.Errorf("stage range %d..%d outside 0..%d", from, through, LastStage)
	}

	if p.ledger != nil && from == 0 {
		if err := p.ledger.BeginRun(ctx, runID, time.Now()); err != nil {
			return err
		}
	}

	m := newMachine()
	for stage := from; stage <= through; stage++ {
		if err := ctx.Err(); err != nil {
			return p.abort(ctx, m, runID, stage, err)
		}
		if err := m.start(stage); err != nil {
			return err
		}
		fmt.Fprintf(p.w, "stage %d (%s): running\n", stage, StageLabel(stage))

		if err := p.runStage(ctx, runID, stage); err != nil {
			return p.abort(ctx, m, runID, stage, err)
		}
	}

	if through == LastStage {
		if err := m.complete(); err != nil {
			return err
		}
		if p.ledger != nil {
			if err := p.ledger.CompleteRun(ctx, runID, time.Now()); err != nil {
				return err
			}
		}
		fmt.Fprintf(p.w, "run %s completed\n", runID)
	}
	return nil
}

// abort records the failure in the machine and the ledger and returns
// an error naming the failing stage and reason.
func (p *Pipeline) abort(ctx context.Context, m *machine, runID string, stage int, err error) error {
	reason := err.Error()
	if f, ok := types.FailureOf(err); ok {
		reason = fmt.Sprintf("%s: %s", f.Code, f.Detail)
	}
	_ = m.fail(reason)

	if p.ledger != nil {
		// Ledger bookkeeping is best-effort on the failure path; the
		// stage error is the one the caller needs.
		_ = p.ledger.FailRun(context.WithoutCancel(ctx), runID, stage, reason, time.Now())
	}

	if _, ok := types.FailureOf(err); ok {
		return err
	}
	return fmt.Errorf("stage %d (%s): %w", stage, StageLabel(stage), err)
}
