// Package ranking normalizes evaluated players per 90 minutes and classifies
// them against the population.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/xfpl/internal/domain/model"
)

const minutesPer90 = 90.0

// View names.
const (
	ViewAll            = "all"
	ViewBuyTargets     = "buy_targets"
	ViewSellCandidates = "sell_candidates"
	ViewStartersOver   = "starters_over"
	ViewStartersUnder  = "starters_under"
	ViewRotationOver   = "rotation_over"
	ViewRotationUnder  = "rotation_under"
)

// ViewNames lists every view in a stable order.
func ViewNames() []string {
	return []string{
		ViewAll, ViewBuyTargets, ViewSellCandidates,
		ViewStartersOver, ViewStartersUnder, ViewRotationOver, ViewRotationUnder,
	}
}

// Views maps a view name to indexes into the classified record slice.
type Views map[string][]int

// Population describes the set the percentile was taken over.
type Population struct {
	Size              int     `json:"size"`
	Ranked            int     `json:"ranked"`
	Percentile        float64 `json:"percentile"`
	PercentileDefined bool    `json:"percentile_defined"`
}

// Outcome is the result of classifying a record set.
type Outcome struct {
	Population Population
	Views      Views
	Summary    Summary
}

// Normalize fills the per-90, delta and performance fields of rec.
func Normalize(rec *model.ExpectedPointsRecord) {
	rec.Delta = rec.ActualPoints - rec.ExpectedPointsTotal
	rec.ExpectedPointsPer90 = per90(rec.ExpectedPointsTotal, rec.MinutesPlayed)
	rec.ExpectedGoalsPer90 = per90(rec.ExpectedGoals, rec.MinutesPlayed)
	rec.ExpectedAssistsPer90 = per90(rec.ExpectedAssists, rec.MinutesPlayed)
	rec.AttackingThreatPer90 = per90(rec.AttackingThreat, rec.MinutesPlayed)
	rec.PerformancePct = 0
	if rec.ExpectedPointsTotal != 0 {
		rec.PerformancePct = rec.ActualPoints / rec.ExpectedPointsTotal * 100
	}
}

func per90(v, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return v / minutes * minutesPer90
}

// Classify runs two passes over records: it normalizes every record, then
// takes the per-90 percentile over players with minutes and tags each
// record. Records are updated in place; views index into the same slice.
func Classify(records []model.ExpectedPointsRecord, th Thresholds) Outcome {
	for i := range records {
		Normalize(&records[i])
	}

	ranked := make([]float64, 0, len(records))
	for i := range records {
		if records[i].MinutesPlayed > 0 {
			ranked = append(ranked, records[i].ExpectedPointsPer90)
		}
	}
	slices.Sort(ranked)
	pct, defined := Percentile(ranked, th.BuyPercentile)

	pop := Population{Size: len(records), Ranked: len(ranked), Percentile: pct, PercentileDefined: defined}

	for i := range records {
		records[i].Classification = classifyOne(&records[i], th, pop)
	}

	views := buildViews(records)
	return Outcome{
		Population: pop,
		Views:      views,
		Summary:    summarize(records, pop, th, views),
	}
}

func classifyOne(rec *model.ExpectedPointsRecord, th Thresholds, pop Population) model.Classification {
	c := model.Classification{Performance: model.Neutral, Segment: model.Rotation}
	switch {
	case rec.Delta > th.NeutralBand:
		c.Performance = model.Overperformer
	case rec.Delta < -th.NeutralBand:
		c.Performance = model.Underperformer
	}
	if rec.MinutesPlayed >= th.RegularMinutes {
		c.Segment = model.Starter
	}

	c.BuyTarget = pop.PercentileDefined &&
		rec.MinutesPlayed > 0 &&
		rec.ExpectedPointsPer90 >= pop.Percentile &&
		rec.Delta < th.BuyMaxDelta &&
		(th.BuyMinActualPoints == 0 || rec.ActualPoints >= th.BuyMinActualPoints)

	c.SellCandidate = rec.ExpectedPointsPer90 < th.SellMaxPer90 &&
		rec.Delta > th.SellMinDelta &&
		(th.SellMinActualPoints == 0 || rec.ActualPoints >= th.SellMinActualPoints) &&
		(th.SellMinPerformancePct == 0 || rec.PerformancePct >= th.SellMinPerformancePct)

	return c
}

func buildViews(records []model.ExpectedPointsRecord) Views {
	views := make(Views, len(ViewNames()))
	for _, name := range ViewNames() {
		views[name] = []int{}
	}
	for i := range records {
		c := records[i].Classification
		views[ViewAll] = append(views[ViewAll], i)
		if c.BuyTarget {
			views[ViewBuyTargets] = append(views[ViewBuyTargets], i)
		}
		if c.SellCandidate {
			views[ViewSellCandidates] = append(views[ViewSellCandidates], i)
		}
		switch {
		case c.Segment == model.Starter && c.Performance == model.Overperformer:
			views[ViewStartersOver] = append(views[ViewStartersOver], i)
		case c.Segment == model.Starter && c.Performance == model.Underperformer:
			views[ViewStartersUnder] = append(views[ViewStartersUnder], i)
		case c.Segment == model.Rotation && c.Performance == model.Overperformer:
			views[ViewRotationOver] = append(views[ViewRotationOver], i)
		case c.Segment == model.Rotation && c.Performance == model.Underperformer:
			views[ViewRotationUnder] = append(views[ViewRotationUnder], i)
		}
	}

	byID := func(a, b int) int { return cmp.Compare(records[a].PlayerID, records[b].PlayerID) }
	per90Desc := func(a, b int) int {
		return cmp.Compare(records[b].ExpectedPointsPer90, records[a].ExpectedPointsPer90)
	}
	deltaAsc := func(a, b int) int { return cmp.Compare(records[a].Delta, records[b].Delta) }
	deltaDesc := func(a, b int) int { return cmp.Compare(records[b].Delta, records[a].Delta) }

	sortBy(views[ViewAll], per90Desc, byID)
	sortBy(views[ViewBuyTargets], deltaAsc, per90Desc, byID)
	sortBy(views[ViewSellCandidates], deltaDesc, byID)
	sortBy(views[ViewStartersOver], deltaDesc, byID)
	sortBy(views[ViewRotationOver], deltaDesc, byID)
	sortBy(views[ViewStartersUnder], deltaAsc, byID)
	sortBy(views[ViewRotationUnder], deltaAsc, byID)
	return views
}

func sortBy(idx []int, keys ...func(a, b int) int) {
	slices.SortFunc(idx, func(a, b int) int {
		for _, k := range keys {
			if c := k(a, b); c != 0 {
				return c
			}
		}
		return 0
	})
}
