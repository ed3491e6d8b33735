package constraints

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-constraints/internal/modules/series"
	"github.com/aristath/sentinel-constraints/pkg/expr"
)

var (
	t1 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	t3 = time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
)

// holdings returns a state with constant post-trade weights and zero trades.
func holdings(w ...float64) State {
	return State{
		PostTrade: ConstWeights(w...),
		Trades:    ConstWeights(make([]float64, len(w))...),
		Value:     10000,
	}
}

// satisfied evaluates constant relations.
func satisfied(t *testing.T, rels []expr.Relation) bool {
	t.Helper()
	for _, r := range rels {
		ok, err := r.Satisfied(nil, expr.DefaultTolerance)
		require.NoError(t, err)
		if !ok {
			return false
		}
	}
	return true
}

func TestLongOnly(t *testing.T) {
	c := NewLongOnly()

	rels, err := c.Estimate(t1, holdings(0.3, 0.7, 0))
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.True(t, satisfied(t, rels))

	rels, err = c.Estimate(t1, holdings(0.5, -0.1, 0.6))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))

	violations, err := rels[0].Violations(nil, expr.DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, violations)

	rels, err = c.Estimate(t1, holdings(0.5, 0.6, -0.1))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels), "cash slot is covered too")
}

func TestLeverageLimit_Fixed(t *testing.T) {
	c := NewLeverageLimit(FixedLimit(1.6))

	rels, err := c.Estimate(t1, holdings(0.9, -0.4, 0.2)) // gross 1.5
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels))

	rels, err = c.Estimate(t1, holdings(1.2, -0.4, 0.2)) // gross 1.8
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))

	assert.True(t, rels[0].DCP())
}

func TestLeverageLimit_SeriesLookupIsExact(t *testing.T) {
	s, err := series.New(map[time.Time]float64{t1: 1.5, t3: 2.0})
	require.NoError(t, err)
	c := NewLeverageLimit(SeriesLimit(s))

	_, err = c.Estimate(t2, holdings(0.5, 0.5))
	var lookupErr *ParameterLookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, KindLeverageLimit, lookupErr.Constraint)
	assert.True(t, lookupErr.Period.Equal(t2))
	assert.ErrorIs(t, err, series.ErrPeriodNotFound)

	// 1.8 gross fits under t3's 2.0 but not under t1's 1.5.
	rels, err := c.Estimate(t3, holdings(1.2, -0.4, 0.2))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels))

	rels, err = c.Estimate(t1, holdings(1.2, -0.4, 0.2))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))
}

func TestLongCash(t *testing.T) {
	c := NewLongCash()

	rels, err := c.Estimate(t1, holdings(0.5, 0.51, -0.01))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))

	rels, err = c.Estimate(t1, holdings(0.5, 0.5, 0))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels), "zero cash is on the boundary")

	rels, err = c.Estimate(t1, holdings(-3, 5, 0.1))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels), "asset entries do not matter")
}

func advTable(t *testing.T, rows map[time.Time][]float64, assets ...string) *series.Table {
	t.Helper()
	tb, err := series.NewTable(assets, rows)
	require.NoError(t, err)
	return tb
}

func TestMaxTrade_PerAssetBounds(t *testing.T) {
	c := NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1000, 2000}}, "AAA", "BBB"))
	assert.Equal(t, DefaultMaxFraction, c.Fraction())

	s := State{
		PostTrade: ConstWeights(0.5, 0.3, 0.2),
		Trades:    ConstWeights(0.05, -0.02, 0.0),
		Value:     10000,
	}
	rels, err := c.Estimate(t1, s)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	// Bounds are [50, 100]; traded notional is [500, 200].
	residual, err := rels[0].Residual(nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{450, 100}, residual.RawVector().Data, 1e-9)

	violations, err := rels[0].Violations(nil, expr.DefaultTolerance)
	require.NoError(t, err)
	assert.Contains(t, violations, 0, "first asset trades 500 against a bound of 50")

	s.Trades = ConstWeights(0.05, -0.005, 0.0)
	rels, err = c.Estimate(t1, s)
	require.NoError(t, err)
	violations, err = rels[0].Violations(nil, expr.DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, violations, "second asset trades 50 against a bound of 100")
}

func TestMaxTrade_CashSlotIsExcluded(t *testing.T) {
	c := NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1000}}, "AAA"))

	rels, err := c.Estimate(t1, State{
		PostTrade: ConstWeights(0, 1),
		Trades:    ConstWeights(0.001, -0.9),
		Value:     10000,
	})
	require.NoError(t, err)
	require.Equal(t, 1, rels[0].Len())
	assert.True(t, satisfied(t, rels))
}

func TestMaxTrade_Fraction(t *testing.T) {
	c := NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1000}}, "AAA"), WithMaxFraction(0.5))

	rels, err := c.Estimate(t1, State{
		PostTrade: ConstWeights(0, 1),
		Trades:    ConstWeights(0.05, -0.05),
		Value:     10000,
	})
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels), "500 traded against 1000 * 0.5")
}

func TestMaxTrade_MissingEntryMeansZeroCapacity(t *testing.T) {
	c := NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {math.NaN(), 0, 1000}}, "AAA", "BBB", "CCC"))

	s := State{
		PostTrade: ConstWeights(0, 0, 0, 1),
		Trades:    ConstWeights(0, 0, 0, 0),
		Value:     10000,
	}
	rels, err := c.Estimate(t1, s)
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels), "no trade fits zero capacity")

	s.Trades = ConstWeights(0.001, 0.001, 0.001, -0.003)
	rels, err = c.Estimate(t1, s)
	require.NoError(t, err)
	violations, err := rels[0].Violations(nil, expr.DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, violations)
}

func TestMaxTrade_Errors(t *testing.T) {
	c := NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1000, 2000, 3000}}, "AAA", "BBB", "CCC"))

	twoAssets := State{
		PostTrade: ConstWeights(0.5, 0.5, 0),
		Trades:    ConstWeights(0.01, 0.01, -0.02),
		Value:     10000,
	}

	_, err := c.Estimate(t1, twoAssets)
	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Want)
	assert.Equal(t, 3, dimErr.Got)

	_, err = c.Estimate(t2, twoAssets)
	var lookupErr *ParameterLookupError
	assert.True(t, errors.As(err, &lookupErr))

	threeAssets := State{
		PostTrade: ConstWeights(0.3, 0.3, 0.4, 0),
		Trades:    ConstWeights(0, 0, 0, 0),
	}
	for _, v := range []float64{0, -1, math.Inf(1), math.NaN()} {
		threeAssets.Value = v
		_, err = c.Estimate(t1, threeAssets)
		assert.ErrorIs(t, err, ErrNonPositiveValue)
	}
}

func TestDollarNeutral(t *testing.T) {
	c := NewDollarNeutral()

	rels, err := c.Estimate(t1, holdings(0.5, -0.5, 1))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels))
	assert.Equal(t, expr.Equal, rels[0].Op)

	rels, err = c.Estimate(t1, holdings(0.5, -0.4, 0.9))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))
}

func TestWeightLimits(t *testing.T) {
	maxW := NewMaxWeights(FixedLimit(0.4))
	minW := NewMinWeights(FixedLimit(0.1))

	rels, err := maxW.Estimate(t1, holdings(0.4, 0.3, 0.3))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels))

	rels, err = maxW.Estimate(t1, holdings(0.2, 0.2, 0.6))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels), "cash is not capped")

	rels, err = maxW.Estimate(t1, holdings(0.5, 0.3, 0.2))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))

	rels, err = minW.Estimate(t1, holdings(0.05, 0.5, 0.45))
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))

	rels, err = minW.Estimate(t1, holdings(0.1, 0.5, 0))
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels))
}

func TestMaxActiveWeight(t *testing.T) {
	c := NewMaxActiveWeight(FixedLimit(0.05))

	s := holdings(0.32, 0.58, 0.1)
	s.Benchmark = ConstWeights(0.3, 0.6, 0.1)
	rels, err := c.Estimate(t1, s)
	require.NoError(t, err)
	assert.True(t, satisfied(t, rels))

	s.PostTrade = ConstWeights(0.4, 0.5, 0.1)
	rels, err = c.Estimate(t1, s)
	require.NoError(t, err)
	assert.False(t, satisfied(t, rels))

	_, err = c.Estimate(t1, holdings(0.4, 0.5, 0.1))
	var dimErr *DimensionMismatchError
	assert.True(t, errors.As(err, &dimErr), "a benchmark is required")
}

func TestEstimate_DimensionMismatch(t *testing.T) {
	s := State{
		PostTrade: ConstWeights(0.5, 0.5, 0),
		Trades:    ConstWeights(0.1, -0.1),
		Value:     10000,
	}
	all := []Constraint{
		NewLongOnly(),
		NewLongCash(),
		NewLeverageLimit(FixedLimit(1)),
		NewDollarNeutral(),
	}
	for _, c := range all {
		_, err := c.Estimate(t1, s)
		var dimErr *DimensionMismatchError
		assert.True(t, errors.As(err, &dimErr), Name(c))
	}

	s.Trades = ConstWeights(0, 0, 0)
	s.Benchmark = ConstWeights(0.5, 0.5)
	_, err := NewLongOnly().Estimate(t1, s)
	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "benchmark", dimErr.Parameter)

	_, err = NewLongOnly().Estimate(t1, State{})
	assert.True(t, errors.As(err, &dimErr))
}

func TestEstimate_IsIdempotent(t *testing.T) {
	space := expr.NewSpace()
	w, err := space.NewVar("w_plus", 3)
	require.NoError(t, err)
	z, err := space.NewVar("z", 3)
	require.NoError(t, err)

	s := State{
		PostTrade: WeightsOf(w),
		Benchmark: ConstWeights(0.5, 0.5, 0),
		Trades:    WeightsOf(z),
		Value:     10000,
	}
	limits, err := series.New(map[time.Time]float64{t1: 1.5})
	require.NoError(t, err)

	all := []Constraint{
		NewLongOnly(),
		NewLeverageLimit(SeriesLimit(limits)),
		NewLongCash(),
		NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1000, 2000}}, "AAA", "BBB")),
		NewDollarNeutral(),
		NewMaxWeights(FixedLimit(0.6)),
		NewMinWeights(FixedLimit(-0.1)),
		NewMaxActiveWeight(FixedLimit(0.1)),
	}
	for _, c := range all {
		first, err := c.Estimate(t1, s)
		require.NoError(t, err, Name(c))
		second, err := c.Estimate(t1, s)
		require.NoError(t, err, Name(c))

		assert.Equal(t, first, second, Name(c))
		for _, r := range first {
			assert.True(t, r.DCP(), "%s: %s", Name(c), r)
		}
	}
}

func TestEstimate_DoesNotMutateInputs(t *testing.T) {
	space := expr.NewSpace()
	w, err := space.NewVar("w_plus", 3)
	require.NoError(t, err)
	z, err := space.NewVar("z", 3)
	require.NoError(t, err)

	s := State{PostTrade: WeightsOf(w), Trades: WeightsOf(z), Value: 10000}
	before := s.PostTrade.All().Rows()

	_, err = NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1, 2}}, "A", "B")).Estimate(t1, s)
	require.NoError(t, err)
	_, err = NewLeverageLimit(FixedLimit(1)).Estimate(t1, s)
	require.NoError(t, err)

	assert.Equal(t, before, s.PostTrade.All().Rows())
}

func TestEstimate_OverDecisionVariables(t *testing.T) {
	space := expr.NewSpace()
	w, err := space.NewVar("w_plus", 3)
	require.NoError(t, err)
	z, err := space.NewVar("z", 3)
	require.NoError(t, err)

	s := State{PostTrade: WeightsOf(w), Trades: WeightsOf(z), Value: 10000}
	rels, err := NewMaxTrade(advTable(t, map[time.Time][]float64{t1: {1000, 2000}}, "A", "B")).Estimate(t1, s)
	require.NoError(t, err)

	x, err := space.Assign(map[string][]float64{
		"w_plus": {0.5, 0.5, 0},
		"z":      {0.004, -0.01, 0.006},
	})
	require.NoError(t, err)

	violations, err := rels[0].Violations(x, expr.DefaultTolerance)
	require.NoError(t, err)
	assert.Empty(t, violations, "40 <= 50 and 100 <= 100")
}

func TestWeights_CashIsLast(t *testing.T) {
	w := ConstWeights(0.2, 0.3, 0.5)
	assert.Equal(t, 2, w.NumAssets())
	assert.Equal(t, 3, w.Len())

	cash, err := w.Cash().Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, cash.RawVector().Data)

	assets, err := w.Assets().Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.3}, assets.RawVector().Data)

	cashOnly := ConstWeights(1)
	assert.Nil(t, cashOnly.Assets())
	assert.True(t, Weights{}.IsZero())

	_, err = NewWeights(nil)
	assert.Error(t, err)
}
