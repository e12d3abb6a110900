package service

import (
	"strings"

	"github.com/okian/xfpl/internal/adapters/provider"
	"github.com/okian/xfpl/internal/config"
	"github.com/okian/xfpl/internal/domain/engine"
	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/pkg/logger"
)

// NewProvider builds the stats source described by cfg. A source file takes
// precedence over the URL.
func NewProvider(cfg *config.Config, l logger.Logger) provider.Provider {
	opts := []provider.Option{
		provider.WithIncludeZeroMinutes(cfg.IncludeZeroMinutes),
		provider.WithLogger(l),
	}
	if cfg.SourceFile != "" {
		return provider.NewFileProvider(cfg.SourceFile, opts...)
	}
	opts = append(opts,
		provider.WithUserAgent(cfg.UserAgent),
		provider.WithTimeout(cfg.FetchTimeout()),
		provider.WithRateLimit(cfg.FetchRPS, 1),
		provider.WithBreaker(cfg.BreakerFailures, cfg.BreakerTimeout()),
	)
	return provider.NewHTTPProvider(cfg.SourceURL, opts...)
}

// Thresholds maps the classifier settings of cfg.
func Thresholds(cfg *config.Config) ranking.Thresholds {
	return ranking.Thresholds{
		RegularMinutes:        cfg.RegularMinutes,
		BuyPercentile:         cfg.BuyPercentile,
		BuyMaxDelta:           cfg.BuyMaxDelta,
		BuyMinActualPoints:    cfg.BuyMinActualPoints,
		SellMaxPer90:          cfg.SellMaxPer90,
		SellMinDelta:          cfg.SellMinDelta,
		SellMinActualPoints:   cfg.SellMinActualPoints,
		SellMinPerformancePct: cfg.SellMinPerformancePct,
		NeutralBand:           cfg.NeutralBand,
	}
}

// Rules overlays the scoring settings of cfg on the standard tables.
func Rules(cfg *config.Config) scoring.Rules {
	r := scoring.DefaultRules()
	for pos, pts := range cfg.GoalPoints {
		r.GoalPoints[model.Position(strings.ToUpper(pos))] = pts
	}
	for pos, pts := range cfg.CleanSheetPoints {
		r.CleanSheetPoints[model.Position(strings.ToUpper(pos))] = pts
	}
	r.AssistPoints = cfg.AssistPoints
	r.BonusPer100BPS = cfg.BonusPer100BPS
	r.AppearanceMinutes = cfg.AppearanceMinutes
	r.FullAppearance = cfg.FullAppearancePoints
	r.PartialAppearance = cfg.PartialAppearancePoints
	return r
}

// NewEngine builds an engine with the scoring rules, thresholds and worker
// count of cfg.
func NewEngine(cfg *config.Config, l logger.Logger) (*engine.Engine, error) {
	return engine.New(
		engine.WithConfig(engine.Config{Rules: Rules(cfg), Thresholds: Thresholds(cfg)}),
		engine.WithWorkerCount(cfg.WorkerCount),
		engine.WithLogger(l),
	)
}
