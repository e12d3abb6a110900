package scoring

import (
	"fmt"

	"github.com/okian/xfpl/internal/domain/model"
)

// Default rule constants.
const (
	defaultAssistPoints      = 3.0
	defaultBonusPer100BPS    = 3.5
	defaultAppearanceMinutes = 60.0
	defaultFullAppearance    = 2.0
	defaultPartialAppearance = 1.0
)

// Rules holds the fixed per-position lookup tables and scalar rates.
type Rules struct {
	// GoalPoints maps position to points per expected goal.
	GoalPoints map[model.Position]float64
	// CleanSheetPoints maps position to points per clean sheet.
	CleanSheetPoints map[model.Position]float64
	// AssistPoints is awarded per expected assist for every position.
	AssistPoints float64
	// BonusPer100BPS converts bonus point system score to points.
	BonusPer100BPS float64
	// AppearanceMinutes is the minutes threshold for a full appearance.
	AppearanceMinutes float64
	FullAppearance    float64
	PartialAppearance float64
}

// DefaultRules returns the standard fantasy scoring tables.
func DefaultRules() Rules {
	return Rules{
		GoalPoints: map[model.Position]float64{
			model.Goalkeeper: 10,
			model.Defender:   6,
			model.Midfielder: 5,
			model.Forward:    4,
		},
		CleanSheetPoints: map[model.Position]float64{
			model.Goalkeeper: 4,
			model.Defender:   4,
			model.Midfielder: 1,
			model.Forward:    0,
		},
		AssistPoints:      defaultAssistPoints,
		BonusPer100BPS:    defaultBonusPer100BPS,
		AppearanceMinutes: defaultAppearanceMinutes,
		FullAppearance:    defaultFullAppearance,
		PartialAppearance: defaultPartialAppearance,
	}
}

// Validate checks that every position has an entry in both tables and no rate is negative.
func (r Rules) Validate() error {
	for _, p := range []model.Position{model.Goalkeeper, model.Defender, model.Midfielder, model.Forward} {
		g, ok := r.GoalPoints[p]
		if !ok || g < 0 {
			return fmt.Errorf("%w: goal points for %s", ErrInvalidRules, p)
		}
		cs, ok := r.CleanSheetPoints[p]
		if !ok || cs < 0 {
			return fmt.Errorf("%w: clean sheet points for %s", ErrInvalidRules, p)
		}
	}
	if r.AssistPoints < 0 || r.BonusPer100BPS < 0 || r.FullAppearance < 0 || r.PartialAppearance < 0 {
		return fmt.Errorf("%w: negative rate", ErrInvalidRules)
	}
	if r.AppearanceMinutes <= 0 {
		return fmt.Errorf("%w: appearance minutes must be positive", ErrInvalidRules)
	}
	return nil
}
