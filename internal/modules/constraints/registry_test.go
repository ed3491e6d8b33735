package constraints

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-constraints/internal/modules/series"
	"github.com/aristath/sentinel-constraints/pkg/expr"
)

func ptr(v float64) *float64 { return &v }

func TestDefaultRegistry_Kinds(t *testing.T) {
	assert.Equal(t, []string{
		KindDollarNeutral,
		KindLeverageLimit,
		KindLongCash,
		KindLongOnly,
		KindMaxActiveWeight,
		KindMaxTrade,
		KindMaxWeights,
		KindMinWeights,
	}, DefaultRegistry().Kinds())
}

func TestRegistry_Build(t *testing.T) {
	adv, err := series.NewTable([]string{"AAA"}, map[time.Time][]float64{t1: {1000}})
	require.NoError(t, err)
	data := Data{ADV: adv}
	r := DefaultRegistry()

	tests := []struct {
		name    string
		def     Definition
		want    string
		wantErr bool
	}{
		{name: "long only", def: Definition{Kind: KindLongOnly}, want: KindLongOnly},
		{name: "fixed leverage", def: Definition{Kind: KindLeverageLimit, Limit: ptr(1.5)}, want: KindLeverageLimit},
		{
			name: "series leverage",
			def:  Definition{Kind: KindLeverageLimit, LimitSeries: map[time.Time]float64{t1: 1.5}},
			want: KindLeverageLimit,
		},
		{name: "max trade default fraction", def: Definition{Kind: KindMaxTrade}, want: KindMaxTrade},
		{name: "max trade fraction", def: Definition{Kind: KindMaxTrade, Fraction: ptr(0.1)}, want: KindMaxTrade},
		{name: "unknown kind", def: Definition{Kind: "no_shorting_tuesdays"}, wantErr: true},
		{name: "long only with limit", def: Definition{Kind: KindLongOnly, Limit: ptr(1)}, wantErr: true},
		{name: "leverage without limit", def: Definition{Kind: KindLeverageLimit}, wantErr: true},
		{
			name: "both limits",
			def: Definition{
				Kind:        KindMaxWeights,
				Limit:       ptr(0.2),
				LimitSeries: map[time.Time]float64{t1: 0.3},
			},
			wantErr: true,
		},
		{name: "fraction on leverage", def: Definition{Kind: KindLeverageLimit, Limit: ptr(1), Fraction: ptr(0.1)}, wantErr: true},
		{name: "max trade with limit", def: Definition{Kind: KindMaxTrade, Limit: ptr(1)}, wantErr: true},
		{name: "zero fraction", def: Definition{Kind: KindMaxTrade, Fraction: ptr(0)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := r.Build(tt.def, data)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, Name(c))
		})
	}
}

func TestRegistry_BuildMaxTradeNeedsADV(t *testing.T) {
	_, err := DefaultRegistry().Build(Definition{Kind: KindMaxTrade}, Data{})
	assert.ErrorContains(t, err, "ADV")
}

func TestRegistry_BuildMaxTradeFraction(t *testing.T) {
	adv, err := series.NewTable([]string{"AAA"}, map[time.Time][]float64{t1: {1000}})
	require.NoError(t, err)

	c, err := DefaultRegistry().Build(Definition{Kind: KindMaxTrade, Fraction: ptr(0.2)}, Data{ADV: adv})
	require.NoError(t, err)
	mt, ok := c.(*MaxTrade)
	require.True(t, ok)
	assert.Equal(t, 0.2, mt.Fraction())
}

func TestRegistry_BuildAllKeepsOrder(t *testing.T) {
	cs, err := DefaultRegistry().BuildAll([]Definition{
		{Kind: KindLongCash},
		{Kind: KindLongOnly},
		{Kind: KindLeverageLimit, Limit: ptr(2)},
	}, Data{})
	require.NoError(t, err)
	require.Len(t, cs, 3)
	assert.Equal(t, KindLongCash, Name(cs[0]))
	assert.Equal(t, KindLongOnly, Name(cs[1]))
	assert.Equal(t, KindLeverageLimit, Name(cs[2]))

	_, err = DefaultRegistry().BuildAll([]Definition{{Kind: KindLongOnly}, {Kind: "nope"}}, Data{})
	assert.ErrorContains(t, err, "constraint 1")
}

type custom struct{}

func (custom) Estimate(time.Time, State) ([]expr.Relation, error) { return nil, nil }

func TestRegistry_RegisterCustomKind(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func(Definition, Data) (Constraint, error) { return custom{}, nil })

	c, err := r.Build(Definition{Kind: "custom"}, Data{})
	require.NoError(t, err)
	assert.Equal(t, "constraints.custom", Name(c))
	assert.Equal(t, []string{"custom"}, r.Kinds())
}
