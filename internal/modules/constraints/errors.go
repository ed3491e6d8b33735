package constraints

import (
	"errors"
	"fmt"
	"time"
)

// ErrNonPositiveValue is returned when a policy that scales by portfolio
// value receives a value that is not a positive finite number.
var ErrNonPositiveValue = errors.New("portfolio value must be positive and finite")

// ParameterLookupError reports a time-indexed parameter with no entry for the
// requested period. It is never defaulted away; the caller decides whether to
// abort the period or skip the policy.
type ParameterLookupError struct {
	Constraint string
	Parameter  string
	Period     time.Time
	Err        error
}

func (e *ParameterLookupError) Error() string {
	return fmt.Sprintf("%s: no %s for period %s", e.Constraint, e.Parameter, e.Period.UTC().Format(time.RFC3339))
}

func (e *ParameterLookupError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports a vector or parameter whose length disagrees
// with the asset universe. It always indicates misaligned wiring.
type DimensionMismatchError struct {
	Constraint string
	Parameter  string
	Want       int
	Got        int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %s has length %d, want %d", e.Constraint, e.Parameter, e.Got, e.Want)
}
