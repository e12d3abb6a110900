package scoring

import (
	"math"
	"strconv"

	"github.com/okian/xfpl/internal/domain/model"
)

// Validate returns the first problem found in rec, or nil.
// Bonus point system score may be negative; its component floors at zero.
// Minutes, matches and actual points are counts and must be whole.
func Validate(rec model.PlayerStatRecord) *ValidationError {
	if !rec.Position.Valid() {
		return NewValidationError(rec.PlayerID, "position", ErrUnknownPosition, "unknown position "+strconv.Quote(string(rec.Position)))
	}

	fields := []struct {
		name   string
		value  float64
		nonNeg bool
		whole  bool
	}{
		{"minutes_played", rec.MinutesPlayed, true, true},
		{"matches_played", rec.MatchesPlayed, true, true},
		{"expected_goals", rec.ExpectedGoals, true, false},
		{"expected_assists", rec.ExpectedAssists, true, false},
		{"expected_goals_conceded_per_match", rec.ExpectedGoalsConcededPerMatch, true, false},
		{"bonus_point_system_score", rec.BonusPointSystemScore, false, false},
		{"actual_points", rec.ActualPoints, false, true},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return NewValidationError(rec.PlayerID, f.name, ErrNonFiniteValue, "must be a finite number")
		}
		if f.nonNeg && f.value < 0 {
			return NewValidationError(rec.PlayerID, f.name, ErrNegativeValue, "must not be negative")
		}
		if f.whole && f.value != math.Trunc(f.value) {
			return NewValidationError(rec.PlayerID, f.name, ErrNotWholeNumber, "must be a whole number")
		}
	}

	if a := rec.Appearances; a != nil && (a.Over60 < 0 || a.Under60 < 0) {
		return NewValidationError(rec.PlayerID, "appearances", ErrNegativeValue, "must not be negative")
	}
	return nil
}
