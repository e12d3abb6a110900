package ranking

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/xfpl/internal/domain/model"
)

// Summary aggregates one classified population.
type Summary struct {
	Players           int     `json:"players"`
	RankedPlayers     int     `json:"ranked_players"`
	Percentile        float64 `json:"percentile"`
	PercentileDefined bool    `json:"percentile_defined"`
	MeanDelta         float64 `json:"mean_delta"`
	MaxDelta          float64 `json:"max_delta"`
	MinDelta          float64 `json:"min_delta"`
	MeanPer90         float64 `json:"mean_per_90"`
	Overperformers    int     `json:"overperformers"`
	Underperformers   int     `json:"underperformers"`
	Neutral           int     `json:"neutral"`
	Starters          int     `json:"starters"`
	RotationPlayers   int     `json:"rotation_players"`
	BuyTargets        int     `json:"buy_targets"`
	SellCandidates    int     `json:"sell_candidates"`
	// PercentileBelowSellThreshold is set when the buy percentile falls under
	// the sell per-90 ceiling, i.e. the two bands overlap on xFPL90.
	PercentileBelowSellThreshold bool `json:"percentile_below_sell_threshold"`
}

func summarize(records []model.ExpectedPointsRecord, pop Population, th Thresholds, views Views) Summary {
	s := Summary{
		Players:           pop.Size,
		RankedPlayers:     pop.Ranked,
		Percentile:        pop.Percentile,
		PercentileDefined: pop.PercentileDefined,
		BuyTargets:        len(views[ViewBuyTargets]),
		SellCandidates:    len(views[ViewSellCandidates]),
	}
	s.PercentileBelowSellThreshold = pop.PercentileDefined && pop.Percentile < th.SellMaxPer90

	if len(records) == 0 {
		return s
	}

	deltas := make([]float64, len(records))
	var ranked []float64
	for i := range records {
		r := &records[i]
		deltas[i] = r.Delta
		if r.MinutesPlayed > 0 {
			ranked = append(ranked, r.ExpectedPointsPer90)
		}
		switch r.Classification.Performance {
		case model.Overperformer:
			s.Overperformers++
		case model.Underperformer:
			s.Underperformers++
		default:
			s.Neutral++
		}
		if r.Classification.Segment == model.Starter {
			s.Starters++
		} else {
			s.RotationPlayers++
		}
	}

	s.MeanDelta = stat.Mean(deltas, nil)
	s.MaxDelta = floats.Max(deltas)
	s.MinDelta = floats.Min(deltas)
	if len(ranked) > 0 {
		s.MeanPer90 = stat.Mean(ranked, nil)
	}
	return s
}
