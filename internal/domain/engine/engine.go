// Package engine computes expected fantasy points for a whole player set:
// per-player evaluation in parallel, then population classification.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/okian/xfpl/internal/adapters/mq/queue"
	"github.com/okian/xfpl/internal/adapters/mq/worker"
	"github.com/okian/xfpl/internal/domain/dedupe"
	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/pkg/logger"
)

// Engine is stateless between runs and safe for concurrent Compute calls.
type Engine struct {
	cfg       Config
	workers   int
	evaluator *scoring.FormulaEvaluator
	logger    logger.Logger
}

// New creates an engine. It fails with ErrInvalidConfig on bad rules or thresholds.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:     DefaultConfig(),
		workers: runtime.NumCPU(),
		logger:  logger.Default().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	e.evaluator = scoring.NewFormulaEvaluator(scoring.WithRules(e.cfg.Rules))
	return e, nil
}

// Config returns the rules and thresholds in use.
func (e *Engine) Config() Config {
	return e.cfg
}

// Workers returns the upper bound on evaluation workers per run.
func (e *Engine) Workers() int {
	return e.workers
}

// Compute evaluates records and classifies the valid ones. Per-record
// problems are collected in Result.Failures; an error is returned only when
// ctx is done.
func (e *Engine) Compute(ctx context.Context, records []model.PlayerStatRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}

	valid, failures := e.admit(ctx, records)

	out, evalFailures, err := e.evaluate(ctx, valid)
	if err != nil {
		return nil, err
	}
	failures = append(failures, evalFailures...)

	outcome := ranking.Classify(out, e.cfg.Thresholds)

	e.logger.Debug(ctx, "compute finished",
		logger.Int("input", len(records)),
		logger.Int("evaluated", len(out)),
		logger.Int("failures", len(failures)),
	)

	return &Result{
		Records:    out,
		Failures:   failures,
		Views:      outcome.Views,
		Population: outcome.Population,
		Summary:    outcome.Summary,
	}, nil
}

// admit validates every record and rejects later duplicates of a player id.
// The first occurrence of an id claims it even when that record is invalid.
func (e *Engine) admit(ctx context.Context, records []model.PlayerStatRecord) ([]model.PlayerStatRecord, []*scoring.ValidationError) {
	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacityHint(len(records)))
	valid := make([]model.PlayerStatRecord, 0, len(records))
	var failures []*scoring.ValidationError

	for i := range records {
		rec := records[i]
		if seen.SeenAndRecord(ctx, rec.PlayerID) {
			failures = append(failures, scoring.NewValidationError(rec.PlayerID, "player_id", scoring.ErrDuplicatePlayer, "duplicate player id"))
			continue
		}
		if verr := scoring.Validate(rec); verr != nil {
			failures = append(failures, verr)
			continue
		}
		valid = append(valid, rec)
	}
	return valid, failures
}

// evaluate fans valid records out to the worker pool and gathers results by
// input index, so output order does not depend on scheduling.
func (e *Engine) evaluate(ctx context.Context, valid []model.PlayerStatRecord) ([]model.ExpectedPointsRecord, []*scoring.ValidationError, error) {
	if len(valid) == 0 {
		return []model.ExpectedPointsRecord{}, nil, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(valid)))
	for i := range valid {
		if err := q.Enqueue(ctx, model.Job{Index: i, Record: valid[i]}); err != nil {
			_ = q.Close()
			return nil, nil, fmt.Errorf("compute: enqueue: %w", err)
		}
	}
	_ = q.Close()

	sink := newIndexSink(len(valid))
	pool := worker.NewPool(min(e.workers, len(valid)), q, e.evaluator, sink)
	pool.Start(ctx)
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("compute: %w", err)
	}

	out := make([]model.ExpectedPointsRecord, 0, len(valid))
	var failures []*scoring.ValidationError
	for i := range valid {
		if err := sink.errs[i]; err != nil {
			var verr *scoring.ValidationError
			if errors.As(err, &verr) {
				failures = append(failures, verr)
				continue
			}
			return nil, nil, fmt.Errorf("compute: player %d: %w", valid[i].PlayerID, err)
		}
		if !sink.done[i] {
			return nil, nil, fmt.Errorf("compute: player %d was not evaluated", valid[i].PlayerID)
		}
		out = append(out, sink.out[i])
	}
	return out, failures, nil
}

// indexSink stores results by input index. Each index is written by exactly
// one worker, and reads happen after Pool.Wait.
type indexSink struct {
	out  []model.ExpectedPointsRecord
	errs []error
	done []bool
}

func newIndexSink(n int) *indexSink {
	return &indexSink{
		out:  make([]model.ExpectedPointsRecord, n),
		errs: make([]error, n),
		done: make([]bool, n),
	}
}

func (s *indexSink) Store(i int, rec model.ExpectedPointsRecord) {
	s.out[i] = rec
	s.done[i] = true
}

func (s *indexSink) Fail(i int, err error) {
	s.errs[i] = err
}
