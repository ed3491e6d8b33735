package constraints

import (
	"time"

	"github.com/aristath/sentinel-constraints/pkg/expr"
)

// MaxWeights caps every post-trade asset weight. Cash is not bounded.
type MaxWeights struct {
	limit Limit
}

// NewMaxWeights creates a per-asset upper bound.
func NewMaxWeights(limit Limit) *MaxWeights {
	return &MaxWeights{limit: limit}
}

func (*MaxWeights) String() string { return KindMaxWeights }

// Estimate returns assets(post_trade) <= limit(t).
func (c *MaxWeights) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindMaxWeights); err != nil {
		return nil, err
	}
	limit, err := c.limit.resolve(t, KindMaxWeights, "weight limit")
	if err != nil {
		return nil, err
	}
	assets := s.PostTrade.Assets()
	if assets == nil {
		return nil, nil
	}
	return []expr.Relation{expr.Le(assets, expr.Const(limit))}, nil
}

// MinWeights floors every post-trade asset weight. Cash is not bounded.
type MinWeights struct {
	limit Limit
}

// NewMinWeights creates a per-asset lower bound.
func NewMinWeights(limit Limit) *MinWeights {
	return &MinWeights{limit: limit}
}

func (*MinWeights) String() string { return KindMinWeights }

// Estimate returns assets(post_trade) >= limit(t).
func (c *MinWeights) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindMinWeights); err != nil {
		return nil, err
	}
	limit, err := c.limit.resolve(t, KindMinWeights, "weight limit")
	if err != nil {
		return nil, err
	}
	assets := s.PostTrade.Assets()
	if assets == nil {
		return nil, nil
	}
	return []expr.Relation{expr.Ge(assets, expr.Const(limit))}, nil
}

// MaxActiveWeight bounds how far each post-trade asset weight may deviate
// from the benchmark.
type MaxActiveWeight struct {
	limit Limit
}

// NewMaxActiveWeight creates a benchmark-relative per-asset bound.
func NewMaxActiveWeight(limit Limit) *MaxActiveWeight {
	return &MaxActiveWeight{limit: limit}
}

func (*MaxActiveWeight) String() string { return KindMaxActiveWeight }

// Estimate returns abs(assets(post_trade) - assets(benchmark)) <= limit(t).
// A benchmark is required.
func (c *MaxActiveWeight) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindMaxActiveWeight); err != nil {
		return nil, err
	}
	if s.Benchmark.IsZero() {
		return nil, &DimensionMismatchError{
			Constraint: KindMaxActiveWeight,
			Parameter:  "benchmark",
			Want:       s.PostTrade.Len(),
			Got:        0,
		}
	}
	limit, err := c.limit.resolve(t, KindMaxActiveWeight, "active weight limit")
	if err != nil {
		return nil, err
	}
	assets := s.PostTrade.Assets()
	if assets == nil {
		return nil, nil
	}
	active := assets.Sub(s.Benchmark.Assets())
	return []expr.Relation{expr.Le(expr.Abs(active), expr.Const(limit))}, nil
}
