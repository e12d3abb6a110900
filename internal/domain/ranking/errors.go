package ranking

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidThresholds = errors.New("invalid classification thresholds")
)
