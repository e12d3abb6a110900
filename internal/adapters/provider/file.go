package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/pkg/logger"
)

// FileProvider reads a bootstrap-static document or a records array from disk.
type FileProvider struct {
	path   string
	opts   options
	logger logger.Logger
}

// NewFileProvider creates a provider for path.
func NewFileProvider(path string, opts ...Option) *FileProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := o.logger
	if l == nil {
		l = logger.Default().Named("provider")
	}
	return &FileProvider{path: path, opts: o, logger: l}
}

// Fetch reads and decodes the file on every call.
func (p *FileProvider) Fetch(ctx context.Context) ([]model.PlayerStatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	records, err := Decode(data, p.opts.includeZeroMinutes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.path, err)
	}
	p.logger.Debug(ctx, "read raw stats", logger.String("path", p.path), logger.Int("records", len(records)))
	return records, nil
}
