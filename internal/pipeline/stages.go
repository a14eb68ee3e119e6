// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/drift-engine/internal/artifact"
	"github.com/pdiddy/drift-engine/internal/balance"
	"github.com/pdiddy/drift-engine/internal/corpus"
	"github.com/pdiddy/drift-engine/internal/extract"
	"github.com/pdiddy/drift-engine/internal/grade"
	"github.com/pdiddy/drift-engine/internal/matrix"
	"github.com/pdiddy/drift-engine/internal/ortho"
	"github.com/pdiddy/drift-engine/internal/taxonomy"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// Stage indices. Stage k consumes artifact k−1 and produces artifact k.
const (
	StageExtract = iota
	StageTaxonomy
	StageOrthogonality
	StageBalance
	StageMatrix
	StageGrade

	StageCount = 6
	LastStage  = StageCount - 1
)

var stageLabels = [StageCount]string{
	"keywords", "taxonomy", "orthogonal", "balance", "matrix", "grade",
}

// StageLabel returns the fixed artifact label of a stage index.
func StageLabel(stage int) string {
	if stage < 0 || stage >= StageCount {
		return "unknown"
	}
	return stageLabels[stage]
}

// runStage executes one stage: read prior artifact, compute, write the
// new artifact, record it in the ledger.
func (p *Pipeline) runStage(ctx context.Context, runID string, stage int) error {
	switch stage {
	case StageExtract:
		corpora, err := corpus.Collect(p.cfg.Corpus)
		if err != nil {
			return err
		}
		table, err := extract.Extract(ctx, corpora, p.cfg.Extraction, p.w)
		if err != nil {
			return err
		}
		payload := types.NewKeywordArtifact(table, len(corpora.Intent), len(corpora.Reality))
		return p.persist(ctx, runID, stage, payload)

	case StageTaxonomy:
		prior, _, err := artifact.Read[types.KeywordArtifact](p.store, runID, StageExtract, StageLabel(StageExtract))
		if err != nil {
			return err
		}
		tax, err := taxonomy.Build(prior.Table(), p.cfg.Taxonomy, p.w)
		if err != nil {
			return err
		}
		return p.persist(ctx, runID, stage, tax)

	case StageOrthogonality:
		tax, _, err := artifact.Read[types.Taxonomy](p.store, runID, StageTaxonomy, StageLabel(StageTaxonomy))
		if err != nil {
			return err
		}
		validated, err := ortho.Validate(ctx, tax, p.cfg.Orthogonality, p.w)
		if err != nil {
			return err
		}
		payload := types.ValidatedTaxonomy{Taxonomy: validated, ValidatedCount: validated.Len()}
		return p.persist(ctx, runID, stage, payload)

	case StageBalance:
		prior, _, err := artifact.Read[types.ValidatedTaxonomy](p.store, runID, StageOrthogonality, StageLabel(StageOrthogonality))
		if err != nil {
			return err
		}
		rebalanced, err := balance.Validate(prior.Taxonomy, p.cfg.Balance, p.w)
		if err != nil {
			return err
		}
		payload := types.ValidatedTaxonomy{Taxonomy: rebalanced, ValidatedCount: prior.ValidatedCount}
		return p.persist(ctx, runID, stage, payload)

	case StageMatrix:
		prior, _, err := artifact.Read[types.ValidatedTaxonomy](p.store, runID, StageBalance, StageLabel(StageBalance))
		if err != nil {
			return err
		}
		m, err := matrix.Build(ctx, prior.Taxonomy, prior.ValidatedCount, p.cfg.Matrix, p.w)
		if err != nil {
			return err
		}
		return p.persist(ctx, runID, stage, m)

	case StageGrade:
		m, _, err := artifact.Read[types.DriftMatrix](p.store, runID, StageMatrix, StageLabel(StageMatrix))
		if err != nil {
			return err
		}
		report, err := grade.Grade(m.TotalDrift, p.cfg.Grading, p.w)
		if err != nil {
			return err
		}
		return p.persist(ctx, runID, stage, report)

	default:
		return fmt.Errorf("unknown stage index %d", stage)
	}
}

func (p *Pipeline) persist(ctx context.Context, runID string, stage int, payload any) error {
	path, err := artifact.Write(p.store, runID, stage, StageLabel(stage), payload)
	if err != nil {
		return err
	}
	if p.ledger != nil {
		if err := p.ledger.RecordArtifact(ctx, runID, stage, StageLabel(stage), path, time.Now()); err != nil {
			return err
		}
	}
	fmt.Fprintf(p.w, "stage %d (%s): wrote %s\n", stage, StageLabel(stage), path)
	return nil
}
