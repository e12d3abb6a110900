package provider

import "errors"

// Sentinel kinds for provider errors.
var (
	ErrFetch  = errors.New("fetch raw stats failed")
	ErrDecode = errors.New("decode raw stats failed")
)
