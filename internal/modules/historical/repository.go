// Package historical reads daily market history and derives the
// average daily traded volume series used by trade size constraints.
package historical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DailyBar is a daily close and volume point
type DailyBar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume *int64    `json:"volume,omitempty"`
}

// DollarVolume returns close * volume; false when volume is unknown.
func (b DailyBar) DollarVolume() (float64, bool) {
	if b.Volume == nil {
		return 0, false
	}
	return b.Close * float64(*b.Volume), true
}

// Repository provides read access to the history database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "history_repository").Logger(),
	}
}

// Bars fetches every daily bar for an ISIN, ordered by date ascending
func (r *Repository) Bars(ctx context.Context, isin string) ([]DailyBar, error) {
	query := `
		SELECT date, close, volume
		FROM daily_prices
		WHERE isin = ?
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily bars: %w", err)
	}
	defer rows.Close()

	var bars []DailyBar
	for rows.Next() {
		var b DailyBar
		var dateUnix int64
		var volume sql.NullInt64

		if err := rows.Scan(&dateUnix, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily bar: %w", err)
		}

		b.Date = time.Unix(dateUnix, 0).UTC()
		if volume.Valid {
			v := volume.Int64
			b.Volume = &v
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily bars: %w", err)
	}

	r.log.Debug().Str("isin", isin).Int("bars", len(bars)).Msg("Loaded daily bars")
	return bars, nil
}

// Dates returns every distinct bar date, ordered ascending
func (r *Repository) Dates(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT date FROM daily_prices ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var dateUnix int64
		if err := rows.Scan(&dateUnix); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, time.Unix(dateUnix, 0).UTC())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dates: %w", err)
	}

	return dates, nil
}
