package historical

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/sentinel-constraints/internal/modules/series"
)

// DefaultADVWindow is the number of trading days averaged per period.
const DefaultADVWindow = 20

// BarSource provides daily bars
type BarSource interface {
	Bars(ctx context.Context, isin string) ([]DailyBar, error)
	Dates(ctx context.Context) ([]time.Time, error)
}

// ADVBuilder derives period-indexed average daily dollar volume.
type ADVBuilder struct {
	source BarSource
	window int
	log    zerolog.Logger
}

// NewADVBuilder creates a builder averaging over window bars;
// DefaultADVWindow when window is not positive.
func NewADVBuilder(source BarSource, window int, log zerolog.Logger) *ADVBuilder {
	if window <= 0 {
		window = DefaultADVWindow
	}
	return &ADVBuilder{
		source: source,
		window: window,
		log:    log.With().Str("component", "adv_builder").Logger(),
	}
}

// Window returns the averaging window in bars.
func (b *ADVBuilder) Window() int {
	return b.window
}

// Build returns a table with one column per ISIN and one row per period.
//
// Each entry is the mean close*volume over the last Window bars dated strictly
// before the period, so the value is known when the period's trades are
// decided. Bars without volume are ignored. An asset without any usable bar
// gets NaN. Empty periods means every stored date.
func (b *ADVBuilder) Build(ctx context.Context, isins []string, periods []time.Time) (*series.Table, error) {
	if len(periods) == 0 {
		dates, err := b.source.Dates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load dates: %w", err)
		}
		periods = dates
	}

	rows := make(map[time.Time][]float64, len(periods))
	for _, t := range periods {
		rows[t] = make([]float64, len(isins))
	}

	for col, isin := range isins {
		bars, err := b.source.Bars(ctx, isin)
		if err != nil {
			return nil, fmt.Errorf("failed to load bars for %s: %w", isin, err)
		}

		dates, volumes := dollarVolumes(bars)
		missing := 0
		for _, t := range periods {
			v := b.mean(dates, volumes, t)
			if math.IsNaN(v) {
				missing++
			}
			rows[t][col] = v
		}
		if missing > 0 {
			b.log.Warn().
				Str("isin", isin).
				Int("periods", missing).
				Msg("No volume history before period, capacity will be zero")
		}
	}

	table, err := series.NewTable(isins, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build ADV table: %w", err)
	}

	b.log.Info().
		Int("assets", len(isins)).
		Int("periods", table.Len()).
		Int("window", b.window).
		Msg("Built ADV table")

	return table, nil
}

// mean averages the last window values dated strictly before t.
func (b *ADVBuilder) mean(dates []time.Time, values []float64, t time.Time) float64 {
	end := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(t) })
	if end == 0 {
		return math.NaN()
	}
	start := end - b.window
	if start < 0 {
		start = 0
	}
	return stat.Mean(values[start:end], nil)
}

// dollarVolumes returns the dated dollar volumes of bars with a volume,
// sorted by date.
func dollarVolumes(bars []DailyBar) ([]time.Time, []float64) {
	sorted := append([]DailyBar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dates := make([]time.Time, 0, len(sorted))
	values := make([]float64, 0, len(sorted))
	for _, bar := range sorted {
		dv, ok := bar.DollarVolume()
		if !ok {
			continue
		}
		dates = append(dates, bar.Date)
		values = append(values, dv)
	}
	return dates, values
}
