package constraints

import (
	"time"

	"github.com/aristath/sentinel-constraints/pkg/expr"
)

const (
	KindLongOnly        = "long_only"
	KindLeverageLimit   = "leverage_limit"
	KindLongCash        = "long_cash"
	KindMaxTrade        = "max_trade"
	KindDollarNeutral   = "dollar_neutral"
	KindMaxWeights      = "max_weights"
	KindMinWeights      = "min_weights"
	KindMaxActiveWeight = "max_active_weight"
)

// LongOnly forbids negative post-trade holdings in any asset or in cash.
type LongOnly struct{}

// NewLongOnly creates a long-only constraint.
func NewLongOnly() LongOnly {
	return LongOnly{}
}

func (LongOnly) String() string { return KindLongOnly }

// Estimate returns post_trade >= 0.
func (c LongOnly) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindLongOnly); err != nil {
		return nil, err
	}
	return []expr.Relation{expr.Ge(s.PostTrade.All(), expr.Const(0))}, nil
}

// LongCash forbids a negative cash balance.
type LongCash struct{}

// NewLongCash creates a non-negative cash constraint.
func NewLongCash() LongCash {
	return LongCash{}
}

func (LongCash) String() string { return KindLongCash }

// Estimate returns cash(post_trade) >= 0.
func (c LongCash) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindLongCash); err != nil {
		return nil, err
	}
	return []expr.Relation{expr.Ge(s.PostTrade.Cash(), expr.Const(0))}, nil
}

// LeverageLimit bounds gross exposure, the L1 norm of post-trade weights.
type LeverageLimit struct {
	limit Limit
}

// NewLeverageLimit creates a leverage constraint.
func NewLeverageLimit(limit Limit) *LeverageLimit {
	return &LeverageLimit{limit: limit}
}

func (*LeverageLimit) String() string { return KindLeverageLimit }

// Estimate returns norm1(post_trade) <= limit(t).
func (c *LeverageLimit) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindLeverageLimit); err != nil {
		return nil, err
	}
	limit, err := c.limit.resolve(t, KindLeverageLimit, "leverage limit")
	if err != nil {
		return nil, err
	}
	return []expr.Relation{expr.Le(expr.Norm1(s.PostTrade.All()), expr.Const(limit))}, nil
}

// DollarNeutral requires the asset weights to net to zero, leaving the
// portfolio value in cash.
type DollarNeutral struct{}

// NewDollarNeutral creates a dollar-neutral constraint.
func NewDollarNeutral() DollarNeutral {
	return DollarNeutral{}
}

func (DollarNeutral) String() string { return KindDollarNeutral }

// Estimate returns sum(assets(post_trade)) == 0.
func (c DollarNeutral) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindDollarNeutral); err != nil {
		return nil, err
	}
	assets := s.PostTrade.Assets()
	if assets == nil {
		return nil, nil
	}
	return []expr.Relation{expr.Eq(assets.Sum(), expr.Const(0))}, nil
}
