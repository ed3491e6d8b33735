package series

import (
	"fmt"
	"time"
)

// Table maps periods to per-asset rows with named asset columns, such as a
// table of average daily traded volumes. It is immutable after construction
// and safe for concurrent reads.
type Table struct {
	assets []string
	rows   *Series[[]float64]
}

// NewTable builds a table over the given asset columns. Every row must have
// one entry per asset. Rows are copied.
func NewTable(assets []string, rows map[time.Time][]float64) (*Table, error) {
	seen := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		if _, dup := seen[a]; dup {
			return nil, fmt.Errorf("duplicate asset column %q", a)
		}
		seen[a] = struct{}{}
	}

	copied := make(map[time.Time][]float64, len(rows))
	for t, row := range rows {
		if len(row) != len(assets) {
			return nil, fmt.Errorf("row for %s has %d entries, table has %d assets",
				t.UTC().Format(time.RFC3339), len(row), len(assets))
		}
		copied[t] = append([]float64(nil), row...)
	}

	s, err := New(copied)
	if err != nil {
		return nil, err
	}
	return &Table{assets: append([]string(nil), assets...), rows: s}, nil
}

// Row returns a copy of the row for period t.
func (tb *Table) Row(t time.Time) ([]float64, error) {
	row, err := tb.rows.Lookup(t)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), row...), nil
}

// Assets returns the asset columns in order.
func (tb *Table) Assets() []string {
	return append([]string(nil), tb.assets...)
}

// NumAssets returns the number of asset columns.
func (tb *Table) NumAssets() int {
	return len(tb.assets)
}

// Periods returns the periods in ascending order.
func (tb *Table) Periods() []time.Time {
	return tb.rows.Periods()
}

// Len returns the number of periods.
func (tb *Table) Len() int {
	return tb.rows.Len()
}
