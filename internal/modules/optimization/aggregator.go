// Package optimization collects the relations of the active constraints for a
// period into the feasible set handed to the solver.
package optimization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/sentinel-constraints/internal/modules/constraints"
	"github.com/aristath/sentinel-constraints/pkg/expr"
)

// ErrNotConvex is returned when a constraint emits a relation that does not
// define a convex set.
var ErrNotConvex = errors.New("relation is not DCP-valid")

// LookupPolicy decides what a missing time-indexed parameter does to a period.
type LookupPolicy int

const (
	// AbortPeriod fails the whole period.
	AbortPeriod LookupPolicy = iota
	// SkipConstraint drops the failing constraint for that period only.
	SkipConstraint
)

// ParseLookupPolicy parses "abort" or "skip". An empty string is AbortPeriod.
func ParseLookupPolicy(s string) (LookupPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortPeriod, nil
	case "skip":
		return SkipConstraint, nil
	}
	return AbortPeriod, fmt.Errorf("unknown lookup policy %q", s)
}

func (p LookupPolicy) String() string {
	if p == SkipConstraint {
		return "skip"
	}
	return "abort"
}

// Options configures an Aggregator.
type Options struct {
	Policy  LookupPolicy
	Workers int // concurrent Estimate calls; <= 1 runs sequentially
}

// Aggregator evaluates a fixed set of constraints per period.
type Aggregator struct {
	constraints []constraints.Constraint
	opts        Options
	log         zerolog.Logger
}

// NewAggregator creates an aggregator over cs, kept in the given order.
func NewAggregator(log zerolog.Logger, opts Options, cs ...constraints.Constraint) *Aggregator {
	return &Aggregator{
		constraints: append([]constraints.Constraint(nil), cs...),
		opts:        opts,
		log:         log.With().Str("component", "constraint_aggregator").Logger(),
	}
}

// Constraints returns the active constraints.
func (a *Aggregator) Constraints() []constraints.Constraint {
	return append([]constraints.Constraint(nil), a.constraints...)
}

// Names returns the label of every active constraint, in order.
func (a *Aggregator) Names() []string {
	names := make([]string, len(a.constraints))
	for i, c := range a.constraints {
		names[i] = constraints.Name(c)
	}
	return names
}

// Options returns the aggregator's options.
func (a *Aggregator) Options() Options {
	return a.opts
}

// Entry is the output of one constraint for a period.
type Entry struct {
	Source    string
	Relations []expr.Relation
}

// Skip records a constraint dropped for a period under SkipConstraint.
type Skip struct {
	Source string
	Err    error
}

// PeriodConstraints is the feasible set of one period.
type PeriodConstraints struct {
	Period  time.Time
	Entries []Entry
	Skipped []Skip
}

// Relations returns the conjunction of every entry's relations.
func (p *PeriodConstraints) Relations() []expr.Relation {
	var out []expr.Relation
	for _, e := range p.Entries {
		out = append(out, e.Relations...)
	}
	return out
}

type outcome struct {
	rels []expr.Relation
	err  error
}

// Collect evaluates every constraint at t.
//
// Errors are period-fatal, except a ParameterLookupError under
// SkipConstraint, which drops that constraint and is logged.
func (a *Aggregator) Collect(t time.Time, s constraints.State) (*PeriodConstraints, error) {
	results := a.estimate(t, s)

	pc := &PeriodConstraints{Period: t}
	for i, res := range results {
		name := constraints.Name(a.constraints[i])
		if res.err != nil {
			var lookupErr *constraints.ParameterLookupError
			if a.opts.Policy == SkipConstraint && errors.As(res.err, &lookupErr) {
				a.log.Warn().
					Err(res.err).
					Str("constraint", name).
					Time("period", t).
					Msg("Skipping constraint with missing parameter")
				pc.Skipped = append(pc.Skipped, Skip{Source: name, Err: res.err})
				continue
			}
			return nil, fmt.Errorf("%s: %w", name, res.err)
		}
		for _, r := range res.rels {
			if !r.DCP() {
				return nil, fmt.Errorf("%s: %w: %s", name, ErrNotConvex, r)
			}
		}
		pc.Entries = append(pc.Entries, Entry{Source: name, Relations: res.rels})
	}

	a.log.Debug().
		Time("period", t).
		Int("constraints", len(pc.Entries)).
		Int("skipped", len(pc.Skipped)).
		Msg("Collected period constraints")

	return pc, nil
}

// estimate runs Estimate for every constraint; results are index-aligned with
// a.constraints.
func (a *Aggregator) estimate(t time.Time, s constraints.State) []outcome {
	results := make([]outcome, len(a.constraints))
	if a.opts.Workers <= 1 || len(a.constraints) <= 1 {
		for i, c := range a.constraints {
			rels, err := c.Estimate(t, s)
			results[i] = outcome{rels: rels, err: err}
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.opts.Workers)
	for i, c := range a.constraints {
		i, c := i, c
		g.Go(func() error {
			rels, err := c.Estimate(t, s)
			results[i] = outcome{rels: rels, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
