package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrRefreshInFlight = errors.New("refresh already in progress")
	ErrNoProvider      = errors.New("no stats provider configured")
	ErrRefresh         = errors.New("refresh failed")
)
