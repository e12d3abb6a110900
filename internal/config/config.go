// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"
)

// positionKeys are the accepted keys of the per-position scoring tables.
var positionKeys = []string{"GKP", "DEF", "MID", "FWD"} //nolint:gochecknoglobals // read-only lookup

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of per-player evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxListLimit caps the limit query parameter on list endpoints.
	MaxListLimit int `koanf:"max_list_limit"`

	// SourceURL is the bootstrap-static endpoint. SourceFile takes precedence when set.
	SourceURL  string `koanf:"source_url"`
	SourceFile string `koanf:"source_file"`
	UserAgent  string `koanf:"user_agent"`

	// FetchTimeoutMS bounds one upstream fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// FetchRPS limits upstream requests per second.
	FetchRPS float64 `koanf:"fetch_rps"`

	// BreakerFailures consecutive failures open the breaker for BreakerTimeoutS seconds.
	BreakerFailures int `koanf:"breaker_failures"`
	BreakerTimeoutS int `koanf:"breaker_timeout_s"`

	// RefreshIntervalS is the period of the background refresh. 0 disables it.
	RefreshIntervalS int `koanf:"refresh_interval_s"`

	// IncludeZeroMinutes keeps players who have not played in the population.
	IncludeZeroMinutes bool `koanf:"include_zero_minutes"`

	// Classification thresholds.
	RegularMinutes        float64 `koanf:"regular_minutes"`
	BuyPercentile         float64 `koanf:"buy_percentile"`
	BuyMaxDelta           float64 `koanf:"buy_max_delta"`
	BuyMinActualPoints    float64 `koanf:"buy_min_actual_points"`
	SellMaxPer90          float64 `koanf:"sell_max_per90"`
	SellMinDelta          float64 `koanf:"sell_min_delta"`
	SellMinActualPoints   float64 `koanf:"sell_min_actual_points"`
	SellMinPerformancePct float64 `koanf:"sell_min_performance_pct"`
	NeutralBand           float64 `koanf:"neutral_band"`

	// Scoring tables keyed by position (GKP, DEF, MID, FWD, any case).
	// Positions left out keep the standard points.
	GoalPoints       map[string]float64 `koanf:"goal_points"`
	CleanSheetPoints map[string]float64 `koanf:"clean_sheet_points"`

	// Scoring rates.
	AssistPoints            float64 `koanf:"assist_points"`
	BonusPer100BPS          float64 `koanf:"bonus_per_100_bps"`
	AppearanceMinutes       float64 `koanf:"appearance_minutes"`
	FullAppearancePoints    float64 `koanf:"full_appearance_points"`
	PartialAppearancePoints float64 `koanf:"partial_appearance_points"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		WorkerCount:      runtime.NumCPU() * 2,
		MaxListLimit:     100,
		SourceURL:        "https://fantasy.premierleague.com/api/bootstrap-static/",
		UserAgent:        "xfpl/1.0",
		FetchTimeoutMS:   15_000,
		FetchRPS:         1,
		BreakerFailures:  3,
		BreakerTimeoutS:  60,
		RefreshIntervalS: 3600,
		RegularMinutes:   900,
		BuyPercentile:    0.75,
		BuyMaxDelta:      0,
		SellMaxPer90:     4.0,
		SellMinDelta:     12,
		NeutralBand:      0,

		AssistPoints:            3,
		BonusPer100BPS:          3.5,
		AppearanceMinutes:       60,
		FullAppearancePoints:    2,
		PartialAppearancePoints: 1,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// BreakerTimeout returns BreakerTimeoutS as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutS) * time.Second
}

// RefreshInterval returns RefreshIntervalS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive, got %d", ErrInvalidConfig, c.MaxListLimit)
	case c.SourceURL == "" && c.SourceFile == "":
		return fmt.Errorf("%w: one of source_url or source_file is required", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive, got %d", ErrInvalidConfig, c.FetchTimeoutMS)
	case c.FetchRPS <= 0:
		return fmt.Errorf("%w: fetch_rps must be positive, got %v", ErrInvalidConfig, c.FetchRPS)
	case c.BreakerFailures <= 0:
		return fmt.Errorf("%w: breaker_failures must be positive, got %d", ErrInvalidConfig, c.BreakerFailures)
	case c.BreakerTimeoutS < 0:
		return fmt.Errorf("%w: breaker_timeout_s must not be negative, got %d", ErrInvalidConfig, c.BreakerTimeoutS)
	case c.RefreshIntervalS < 0:
		return fmt.Errorf("%w: refresh_interval_s must not be negative, got %d", ErrInvalidConfig, c.RefreshIntervalS)
	case c.RegularMinutes < 0:
		return fmt.Errorf("%w: regular_minutes must not be negative, got %v", ErrInvalidConfig, c.RegularMinutes)
	case c.BuyPercentile < 0 || c.BuyPercentile > 1:
		return fmt.Errorf("%w: buy_percentile must be within [0,1], got %v", ErrInvalidConfig, c.BuyPercentile)
	case c.NeutralBand < 0:
		return fmt.Errorf("%w: neutral_band must not be negative, got %v", ErrInvalidConfig, c.NeutralBand)
	case c.AssistPoints < 0 || c.BonusPer100BPS < 0 || c.FullAppearancePoints < 0 || c.PartialAppearancePoints < 0:
		return fmt.Errorf("%w: scoring rates must not be negative", ErrInvalidConfig)
	case c.AppearanceMinutes <= 0:
		return fmt.Errorf("%w: appearance_minutes must be positive, got %v", ErrInvalidConfig, c.AppearanceMinutes)
	}
	if err := validateTable("goal_points", c.GoalPoints); err != nil {
		return err
	}
	return validateTable("clean_sheet_points", c.CleanSheetPoints)
}

func validateTable(name string, table map[string]float64) error {
	for pos, pts := range table {
		if !slices.Contains(positionKeys, strings.ToUpper(pos)) {
			return fmt.Errorf("%w: %s has unknown position %q", ErrInvalidConfig, name, pos)
		}
		if pts < 0 {
			return fmt.Errorf("%w: %s.%s must not be negative, got %v", ErrInvalidConfig, name, pos, pts)
		}
	}
	return nil
}
