// Package series provides period-indexed parameter lookup.
//
// Lookups resolve by exact period only. There is no default value, no
// nearest-period fallback and no interpolation: an absent period is reported
// as ErrPeriodNotFound so that misalignment between a caller's period sequence
// and a configured series surfaces immediately.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrPeriodNotFound is returned when a series has no entry for a period.
var ErrPeriodNotFound = errors.New("period not found")

// key identifies a period by its instant, independent of location and of any
// monotonic clock reading.
type key struct {
	sec  int64
	nsec int
}

func keyOf(t time.Time) key {
	return key{sec: t.Unix(), nsec: t.Nanosecond()}
}

// Series maps periods to values. It is immutable after construction and safe
// for concurrent reads.
type Series[V any] struct {
	values  map[key]V
	periods []time.Time
}

// New builds a series from a period -> value map. Periods that denote the same
// instant are an error.
func New[V any](points map[time.Time]V) (*Series[V], error) {
	s := &Series[V]{
		values:  make(map[key]V, len(points)),
		periods: make([]time.Time, 0, len(points)),
	}
	for t, v := range points {
		k := keyOf(t)
		if _, dup := s.values[k]; dup {
			return nil, fmt.Errorf("duplicate period %s", t.UTC().Format(time.RFC3339Nano))
		}
		s.values[k] = v
		s.periods = append(s.periods, t.UTC())
	}
	sortPeriods(s.periods)
	return s, nil
}

// Lookup returns the value for period t.
func (s *Series[V]) Lookup(t time.Time) (V, error) {
	v, ok := s.values[keyOf(t)]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s", ErrPeriodNotFound, t.UTC().Format(time.RFC3339Nano))
	}
	return v, nil
}

// Has reports whether the series has an entry for t.
func (s *Series[V]) Has(t time.Time) bool {
	_, ok := s.values[keyOf(t)]
	return ok
}

// Len returns the number of periods.
func (s *Series[V]) Len() int {
	return len(s.periods)
}

// Periods returns the periods in ascending order, in UTC.
func (s *Series[V]) Periods() []time.Time {
	out := make([]time.Time, len(s.periods))
	copy(out, s.periods)
	return out
}

func sortPeriods(p []time.Time) {
	sort.Slice(p, func(i, j int) bool { return p[i].Before(p[j]) })
}
