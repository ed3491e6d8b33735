package constraints

import (
	"time"

	"github.com/aristath/sentinel-constraints/internal/modules/series"
)

// Limit is a bound that is either fixed for every period or resolved per
// period from a series.
type Limit struct {
	fixed  float64
	series *series.Series[float64]
}

// FixedLimit returns a limit applied to every period.
func FixedLimit(v float64) Limit {
	return Limit{fixed: v}
}

// SeriesLimit returns a limit resolved by exact period from s.
func SeriesLimit(s *series.Series[float64]) Limit {
	return Limit{series: s}
}

// IsSeries reports whether the limit varies by period.
func (l Limit) IsSeries() bool {
	return l.series != nil
}

// resolve returns the limit at t. A series without an entry for t fails with
// a ParameterLookupError naming constraint and parameter.
func (l Limit) resolve(t time.Time, constraint, parameter string) (float64, error) {
	if l.series == nil {
		return l.fixed, nil
	}
	v, err := l.series.Lookup(t)
	if err != nil {
		return 0, &ParameterLookupError{Constraint: constraint, Parameter: parameter, Period: t, Err: err}
	}
	return v, nil
}
