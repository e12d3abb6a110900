package engine

import (
	"errors"

	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
)

// Result is the output of one Compute call. Views index into Records.
type Result struct {
	Records    []model.ExpectedPointsRecord `json:"records"`
	Failures   []*scoring.ValidationError   `json:"failures"`
	Views      ranking.Views                `json:"views"`
	Population ranking.Population           `json:"population"`
	Summary    ranking.Summary              `json:"summary"`
}

// View resolves a named view to its records in view order.
func (r *Result) View(name string) ([]model.ExpectedPointsRecord, bool) {
	idx, ok := r.Views[name]
	if !ok {
		return nil, false
	}
	out := make([]model.ExpectedPointsRecord, len(idx))
	for i, j := range idx {
		out[i] = r.Records[j]
	}
	return out, true
}

// Record finds a player's record by id.
func (r *Result) Record(playerID int) (model.ExpectedPointsRecord, bool) {
	for i := range r.Records {
		if r.Records[i].PlayerID == playerID {
			return r.Records[i], true
		}
	}
	return model.ExpectedPointsRecord{}, false
}

// Err joins every validation failure, or returns nil when there are none.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
