package constraints

import (
	"math"
	"time"

	"github.com/aristath/sentinel-constraints/internal/modules/series"
	"github.com/aristath/sentinel-constraints/pkg/expr"
)

// DefaultMaxFraction is the share of average daily volume a single period may
// trade in one asset.
const DefaultMaxFraction = 0.05

// MaxTrade bounds the traded notional of each asset by a fraction of its
// average daily traded volume (ADV). The cash slot absorbs the trade residual
// and is not bounded.
type MaxTrade struct {
	advs     *series.Table
	fraction float64
}

// MaxTradeOption configures a MaxTrade.
type MaxTradeOption func(*MaxTrade)

// WithMaxFraction sets the ADV fraction; DefaultMaxFraction otherwise.
func WithMaxFraction(f float64) MaxTradeOption {
	return func(c *MaxTrade) {
		c.fraction = f
	}
}

// NewMaxTrade creates a trade size constraint over a period-indexed ADV table
// in currency units, one column per asset in universe order.
func NewMaxTrade(advs *series.Table, opts ...MaxTradeOption) *MaxTrade {
	c := &MaxTrade{advs: advs, fraction: DefaultMaxFraction}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (*MaxTrade) String() string { return KindMaxTrade }

// Fraction returns the configured ADV fraction.
func (c *MaxTrade) Fraction() float64 {
	return c.fraction
}

// Estimate returns abs(assets(trades)) * v <= ADV(t) * fraction elementwise.
//
// A missing (NaN) or negative ADV entry yields zero capacity for that asset.
// A period absent from the table fails with ParameterLookupError, and a row
// whose length differs from the trade vector's asset count fails with
// DimensionMismatchError.
func (c *MaxTrade) Estimate(t time.Time, s State) ([]expr.Relation, error) {
	if err := s.validate(KindMaxTrade); err != nil {
		return nil, err
	}
	if s.Value <= 0 || math.IsInf(s.Value, 0) || math.IsNaN(s.Value) {
		return nil, ErrNonPositiveValue
	}

	row, err := c.advs.Row(t)
	if err != nil {
		return nil, &ParameterLookupError{Constraint: KindMaxTrade, Parameter: "ADV row", Period: t, Err: err}
	}
	n := s.Trades.NumAssets()
	if len(row) != n {
		return nil, &DimensionMismatchError{Constraint: KindMaxTrade, Parameter: "ADV row", Want: n, Got: len(row)}
	}
	if n == 0 {
		return nil, nil
	}

	capacity := make([]float64, n)
	for i, adv := range row {
		if math.IsNaN(adv) || adv < 0 {
			adv = 0
		}
		capacity[i] = adv * c.fraction
	}

	traded := expr.Scale(s.Value, expr.Abs(s.Trades.Assets()))
	return []expr.Relation{expr.Le(traded, expr.Const(capacity...))}, nil
}
