// Package constraints provides trading constraint policies for multi-period
// portfolio optimization.
//
// Every policy implements Constraint: given the period and the portfolio state
// it returns relational expressions over the solver's decision variables. The
// caller conjoins the relations of all active policies into the period's
// feasible set, so new policies plug in without changes to the aggregation.
//
// Estimate is pure. Policies hold only immutable configuration bound at
// construction and never retain the decision variables passed to them, so a
// policy may be evaluated concurrently for different periods.
package constraints

import (
	"fmt"
	"time"

	"github.com/aristath/sentinel-constraints/pkg/expr"
)

// Constraint translates portfolio state into solver constraints.
type Constraint interface {
	// Estimate returns the relations this policy imposes at period t.
	Estimate(t time.Time, s State) ([]expr.Relation, error)
}

// State is the per-period input to Estimate.
type State struct {
	PostTrade Weights // post-trade weights, decision variable
	Benchmark Weights // benchmark weights; optional, zero value when absent
	Trades    Weights // trade weights, decision variable
	Value     float64 // portfolio value in currency units
}

// validate checks that the weight vectors agree on the asset universe.
func (s State) validate(constraint string) error {
	if s.PostTrade.Len() == 0 {
		return &DimensionMismatchError{Constraint: constraint, Parameter: "post_trade", Want: 1, Got: 0}
	}
	n := s.PostTrade.Len()
	if s.Trades.Len() != n {
		return &DimensionMismatchError{Constraint: constraint, Parameter: "trades", Want: n, Got: s.Trades.Len()}
	}
	if !s.Benchmark.IsZero() && s.Benchmark.Len() != n {
		return &DimensionMismatchError{Constraint: constraint, Parameter: "benchmark", Want: n, Got: s.Benchmark.Len()}
	}
	return nil
}

// Name returns a stable label for c, used in logs and reports.
func Name(c Constraint) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}
