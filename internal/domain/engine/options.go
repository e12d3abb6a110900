package engine

import (
	"fmt"

	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/pkg/logger"
)

// Config bundles the scoring tables and the classifier thresholds.
type Config struct {
	Rules      scoring.Rules
	Thresholds ranking.Thresholds
}

// DefaultConfig returns the standard rules and thresholds.
func DefaultConfig() Config {
	return Config{
		Rules:      scoring.DefaultRules(),
		Thresholds: ranking.DefaultThresholds(),
	}
}

// Validate checks both halves of the config.
func (c Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConfig replaces the default rules and thresholds.
func WithConfig(c Config) Option {
	return func(e *Engine) {
		e.cfg = c
	}
}

// WithWorkerCount sets the number of evaluation workers per run.
func WithWorkerCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
