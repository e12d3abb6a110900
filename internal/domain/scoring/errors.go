package scoring

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrValidation      = errors.New("invalid player record")
	ErrUnknownPosition = fmt.Errorf("%w: unknown position", ErrValidation)
	ErrNegativeValue   = fmt.Errorf("%w: negative value", ErrValidation)
	ErrNonFiniteValue  = fmt.Errorf("%w: non-finite value", ErrValidation)
	ErrNotWholeNumber  = fmt.Errorf("%w: not a whole number", ErrValidation)
	ErrDuplicatePlayer = fmt.Errorf("%w: duplicate player id", ErrValidation)
	ErrInvalidRules    = errors.New("invalid scoring rules")
)

// ValidationError describes why one input record was rejected.
type ValidationError struct {
	PlayerID int    `json:"player_id"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// NewValidationError builds a ValidationError of the given kind.
func NewValidationError(playerID int, field string, kind error, reason string) *ValidationError {
	return &ValidationError{PlayerID: playerID, Field: field, Reason: reason, Err: kind}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("player %d: %s: %s", e.PlayerID, e.Field, e.Reason)
}

// Unwrap exposes the error kind, which itself wraps ErrValidation.
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}
