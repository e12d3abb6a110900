// Package model contains domain models passed between layers.
package model

// Position is a player's registered position.
type Position string

// Known positions.
const (
	Goalkeeper Position = "GKP"
	Defender   Position = "DEF"
	Midfielder Position = "MID"
	Forward    Position = "FWD"
)

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	switch p {
	case Goalkeeper, Defender, Midfielder, Forward:
		return true
	}
	return false
}

// AppearanceSplit counts appearances by minutes band when per-match data is known.
type AppearanceSplit struct {
	Over60  int `json:"over_60"`
	Under60 int `json:"under_60"`
}

// PlayerStatRecord holds one player's season-to-date raw statistics.
// Records are treated as immutable for the duration of a run.
type PlayerStatRecord struct {
	PlayerID                      int              `json:"player_id"`
	Name                          string           `json:"name,omitempty"`
	Team                          string           `json:"team,omitempty"`
	Position                      Position         `json:"position"`
	MinutesPlayed                 float64          `json:"minutes_played"`
	MatchesPlayed                 float64          `json:"matches_played"`
	ExpectedGoals                 float64          `json:"expected_goals"`
	ExpectedAssists               float64          `json:"expected_assists"`
	ExpectedGoalsConcededPerMatch float64          `json:"expected_goals_conceded_per_match"`
	BonusPointSystemScore         float64          `json:"bonus_point_system_score"`
	ActualPoints                  float64          `json:"actual_points"`
	Appearances                   *AppearanceSplit `json:"appearances,omitempty"`
}

// Performance tags a player by the sign of their delta.
type Performance string

// Performance tags.
const (
	Overperformer  Performance = "overperformer"
	Underperformer Performance = "underperformer"
	Neutral        Performance = "neutral"
)

// Segment splits players by minutes volume.
type Segment string

// Segments.
const (
	Starter  Segment = "starter"
	Rotation Segment = "rotation"
)

// Classification is the population-relative verdict for one player.
type Classification struct {
	Performance   Performance `json:"performance"`
	Segment       Segment     `json:"segment"`
	BuyTarget     bool        `json:"buy_target"`
	SellCandidate bool        `json:"sell_candidate"`
}

// ExpectedPointsRecord is the derived output for one valid input record.
type ExpectedPointsRecord struct {
	PlayerID      int      `json:"player_id"`
	Name          string   `json:"name,omitempty"`
	Team          string   `json:"team,omitempty"`
	Position      Position `json:"position"`
	MinutesPlayed float64  `json:"minutes_played"`
	MatchesPlayed float64  `json:"matches_played"`
	ActualPoints  float64  `json:"actual_points"`

	ExpectedGoals   float64 `json:"expected_goals"`
	ExpectedAssists float64 `json:"expected_assists"`

	ExpectedGoalPoints       float64 `json:"expected_goal_points"`
	ExpectedAssistPoints     float64 `json:"expected_assist_points"`
	ExpectedCleanSheetPoints float64 `json:"expected_clean_sheet_points"`
	ExpectedBonusPoints      float64 `json:"expected_bonus_points"`
	ExpectedAppearancePoints float64 `json:"expected_appearance_points"`

	ExpectedPointsTotal  float64 `json:"expected_points_total"`
	ExpectedPointsPer90  float64 `json:"expected_points_per_90"`
	Delta                float64 `json:"delta"`
	AttackingThreat      float64 `json:"attacking_threat"`
	ExpectedGoalsPer90   float64 `json:"xg_per_90"`
	ExpectedAssistsPer90 float64 `json:"xa_per_90"`
	AttackingThreatPer90 float64 `json:"xgi_per_90"`
	PerformancePct       float64 `json:"performance_pct"`

	Classification Classification `json:"classification"`
}

// Job is one unit of per-player evaluation work. Index is the record's
// position in the input slice and fixes where its result lands.
type Job struct {
	Index  int
	Record PlayerStatRecord
}
