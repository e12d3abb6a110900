package engine

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid engine config")
)
