package ranking

import (
	"fmt"
	"math"
)

// Thresholds parameterizes the population classifier. Zero values of the
// optional minimum filters disable them.
type Thresholds struct {
	RegularMinutes        float64 `json:"regular_minutes"`
	BuyPercentile         float64 `json:"buy_percentile"`
	BuyMaxDelta           float64 `json:"buy_max_delta"`
	BuyMinActualPoints    float64 `json:"buy_min_actual_points"`
	SellMaxPer90          float64 `json:"sell_max_per90"`
	SellMinDelta          float64 `json:"sell_min_delta"`
	SellMinActualPoints   float64 `json:"sell_min_actual_points"`
	SellMinPerformancePct float64 `json:"sell_min_performance_pct"`
	NeutralBand           float64 `json:"neutral_band"`
}

// DefaultThresholds returns the standard classifier settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RegularMinutes: 900,
		BuyPercentile:  0.75,
		BuyMaxDelta:    0,
		SellMaxPer90:   4.0,
		SellMinDelta:   12,
		NeutralBand:    0,
	}
}

// Validate rejects out-of-range or non-finite thresholds.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"regular_minutes":          t.RegularMinutes,
		"buy_percentile":           t.BuyPercentile,
		"buy_max_delta":            t.BuyMaxDelta,
		"buy_min_actual_points":    t.BuyMinActualPoints,
		"sell_max_per90":           t.SellMaxPer90,
		"sell_min_delta":           t.SellMinDelta,
		"sell_min_actual_points":   t.SellMinActualPoints,
		"sell_min_performance_pct": t.SellMinPerformancePct,
		"neutral_band":             t.NeutralBand,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidThresholds, name)
		}
	}
	if t.BuyPercentile < 0 || t.BuyPercentile > 1 {
		return fmt.Errorf("%w: buy_percentile %v outside [0,1]", ErrInvalidThresholds, t.BuyPercentile)
	}
	if t.RegularMinutes < 0 {
		return fmt.Errorf("%w: regular_minutes must not be negative", ErrInvalidThresholds)
	}
	if t.NeutralBand < 0 {
		return fmt.Errorf("%w: neutral_band must not be negative", ErrInvalidThresholds)
	}
	return nil
}
