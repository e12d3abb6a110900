// Package scoring evaluates the expected fantasy points of a single player
// from their raw statistics.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/xfpl/internal/domain/model"
)

// Evaluator computes the expected point components of one record.
type Evaluator interface {
	// Evaluate validates rec and returns its expected points, honoring ctx for cancellation.
	Evaluate(ctx context.Context, rec model.PlayerStatRecord) (model.ExpectedPointsRecord, error)
}

// Option applies a configuration option to the FormulaEvaluator.
type Option func(*FormulaEvaluator)

// WithRules replaces the default lookup tables.
func WithRules(r Rules) Option {
	return func(e *FormulaEvaluator) {
		if r.GoalPoints != nil && r.CleanSheetPoints != nil {
			e.rules = r
		}
	}
}

// FormulaEvaluator implements Evaluator with fixed per-position tables.
// It has no side effects and is safe for concurrent use.
type FormulaEvaluator struct {
	rules Rules
}

// NewFormulaEvaluator creates an evaluator with the default rules unless overridden.
func NewFormulaEvaluator(opts ...Option) *FormulaEvaluator {
	e := &FormulaEvaluator{rules: DefaultRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the five expected point components, their total and xGI.
// Population-relative fields are left zero.
func (e *FormulaEvaluator) Evaluate(ctx context.Context, rec model.PlayerStatRecord) (model.ExpectedPointsRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.ExpectedPointsRecord{}, fmt.Errorf("context cancelled: %w", err)
	}
	if verr := Validate(rec); verr != nil {
		return model.ExpectedPointsRecord{}, verr
	}

	out := model.ExpectedPointsRecord{
		PlayerID:      rec.PlayerID,
		Name:          rec.Name,
		Team:          rec.Team,
		Position:      rec.Position,
		MinutesPlayed: rec.MinutesPlayed,
		MatchesPlayed: rec.MatchesPlayed,
		ActualPoints:  rec.ActualPoints,

		ExpectedGoals:   rec.ExpectedGoals,
		ExpectedAssists: rec.ExpectedAssists,

		ExpectedGoalPoints:       floor(rec.ExpectedGoals * e.rules.GoalPoints[rec.Position]),
		ExpectedAssistPoints:     floor(rec.ExpectedAssists * e.rules.AssistPoints),
		ExpectedCleanSheetPoints: floor(e.cleanSheetPoints(rec)),
		ExpectedBonusPoints:      floor(rec.BonusPointSystemScore / 100 * e.rules.BonusPer100BPS),
		ExpectedAppearancePoints: floor(e.appearancePoints(rec)),
		AttackingThreat:          rec.ExpectedGoals + rec.ExpectedAssists,
	}
	out.ExpectedPointsTotal = out.ExpectedGoalPoints +
		out.ExpectedAssistPoints +
		out.ExpectedCleanSheetPoints +
		out.ExpectedBonusPoints +
		out.ExpectedAppearancePoints

	return out, nil
}

// cleanSheetPoints treats goals conceded as Poisson, so P(0) = e^-xGC per match.
func (e *FormulaEvaluator) cleanSheetPoints(rec model.PlayerStatRecord) float64 {
	return math.Exp(-rec.ExpectedGoalsConcededPerMatch) * rec.MatchesPlayed * e.rules.CleanSheetPoints[rec.Position]
}

// appearancePoints uses the exact split when known. Otherwise every match is
// credited at the band of the player's average minutes per match.
func (e *FormulaEvaluator) appearancePoints(rec model.PlayerStatRecord) float64 {
	if a := rec.Appearances; a != nil {
		return float64(a.Over60)*e.rules.FullAppearance + float64(a.Under60)*e.rules.PartialAppearance
	}
	if rec.MatchesPlayed == 0 {
		return 0
	}
	if rec.MinutesPlayed/rec.MatchesPlayed >= e.rules.AppearanceMinutes {
		return rec.MatchesPlayed * e.rules.FullAppearance
	}
	return rec.MatchesPlayed * e.rules.PartialAppearance
}

func floor(v float64) float64 {
	return math.Max(0, v)
}
