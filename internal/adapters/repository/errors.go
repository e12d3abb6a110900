package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrUnknownView  = errors.New("unknown view")
	ErrNoSnapshot   = errors.New("no snapshot published yet")
)
