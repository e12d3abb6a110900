package provider

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/xfpl/internal/domain/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	fullMatchMinutes = 90.0
	// subStintMinutes is the assumed length of one appearance off the bench.
	subStintMinutes = 30.0
)

// flexFloat accepts a JSON number or a numeric string. FPL sends the
// expected_* statistics as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type bootstrap struct {
	Elements []element `json:"elements"`
	Teams    []team    `json:"teams"`
}

type team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type element struct {
	ID                         int        `json:"id"`
	WebName                    string     `json:"web_name"`
	Team                       int        `json:"team"`
	ElementType                int        `json:"element_type"`
	Minutes                    flexFloat  `json:"minutes"`
	Starts                     *flexFloat `json:"starts"`
	ExpectedGoals              flexFloat  `json:"expected_goals"`
	ExpectedAssists            flexFloat  `json:"expected_assists"`
	ExpectedGoalsConcededPer90 flexFloat  `json:"expected_goals_conceded_per_90"`
	BPS                        flexFloat  `json:"bps"`
	TotalPoints                flexFloat  `json:"total_points"`
}

var positionByElementType = map[int]model.Position{
	1: model.Goalkeeper,
	2: model.Defender,
	3: model.Midfielder,
	4: model.Forward,
}

// Decode parses either a bootstrap-static document or a JSON array of
// player records. Bootstrap players without minutes are dropped unless
// includeZeroMinutes is set.
func Decode(data []byte, includeZeroMinutes bool) ([]model.PlayerStatRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}

	switch trimmed[0] {
	case '[':
		var records []model.PlayerStatRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: records: %w", ErrDecode, err)
		}
		return records, nil
	case '{':
		var doc bootstrap
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: bootstrap: %w", ErrDecode, err)
		}
		if doc.Elements == nil {
			return nil, fmt.Errorf("%w: bootstrap has no elements", ErrDecode)
		}
		return fromBootstrap(doc, includeZeroMinutes), nil
	default:
		return nil, fmt.Errorf("%w: unexpected leading %q", ErrDecode, trimmed[0])
	}
}

func fromBootstrap(doc bootstrap, includeZeroMinutes bool) []model.PlayerStatRecord {
	teams := make(map[int]string, len(doc.Teams))
	for _, t := range doc.Teams {
		teams[t.ID] = t.ShortName
	}

	out := make([]model.PlayerStatRecord, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		minutes := float64(el.Minutes)
		if minutes <= 0 && !includeZeroMinutes {
			continue
		}
		out = append(out, model.PlayerStatRecord{
			PlayerID:                      el.ID,
			Name:                          el.WebName,
			Team:                          teams[el.Team],
			Position:                      position(el.ElementType),
			MinutesPlayed:                 minutes,
			MatchesPlayed:                 matchesFromMinutes(minutes),
			ExpectedGoals:                 float64(el.ExpectedGoals),
			ExpectedAssists:               float64(el.ExpectedAssists),
			ExpectedGoalsConcededPerMatch: float64(el.ExpectedGoalsConcededPer90),
			BonusPointSystemScore:         float64(el.BPS),
			ActualPoints:                  float64(el.TotalPoints),
			Appearances:                   appearancesFromStarts(minutes, el.Starts),
		})
	}
	return out
}

// position passes unknown element types through so the engine reports them.
func position(elementType int) model.Position {
	if p, ok := positionByElementType[elementType]; ok {
		return p
	}
	return model.Position("element_type_" + strconv.Itoa(elementType))
}

// appearancesFromStarts splits appearances when the document carries starts.
// Each start counts as a 60+ minute appearance covering up to a full match;
// minutes left over are read as substitute stints of subStintMinutes, any
// remainder rounding up to one more stint. Without starts it returns nil and
// the evaluator falls back to the average-minutes approximation.
func appearancesFromStarts(minutes float64, starts *flexFloat) *model.AppearanceSplit {
	if starts == nil {
		return nil
	}
	started := math.Max(0, math.Round(float64(*starts)))
	rest := math.Max(0, minutes-started*fullMatchMinutes)
	return &model.AppearanceSplit{
		Over60:  int(started),
		Under60: int(math.Ceil(rest / subStintMinutes)),
	}
}

// matchesFromMinutes approximates full-match equivalents; anyone with minutes
// counts as at least one match.
func matchesFromMinutes(minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return math.Max(1, math.Round(minutes/fullMatchMinutes))
}
