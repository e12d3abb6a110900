// Package types contains common types used across the application
package types

import "github.com/okian/xfpl/internal/domain/model"

// Entry is a ranked player as served by the leaderboard and player lookups.
// Rank uses competition ranking on expected points per 90.
type Entry struct {
	Rank int `json:"rank"`
	model.ExpectedPointsRecord
}
