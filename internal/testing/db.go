// Package testing provides testing utilities and helpers.
package testing

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aristath/sentinel-constraints/internal/database"
)

// NewTestDB creates a temporary file-backed SQLite database with automatic schema
// migration. Returns the database instance and a cleanup function that closes the
// connection and removes the file.
//
// Supported schema names:
//   - "history" - applies history_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		_ = os.Remove(tmpPath + "-wal")
		_ = os.Remove(tmpPath + "-shm")
		if err := os.Remove(tmpPath); err != nil {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}

// Bar is a daily price row for seeding the history database.
type Bar struct {
	ISIN   string
	Date   time.Time
	Close  float64
	Volume int64
}

// InsertBars writes bars into daily_prices. Open, high and low are set to close.
func InsertBars(t *testing.T, conn *sql.DB, bars ...Bar) {
	t.Helper()

	for _, b := range bars {
		_, err := conn.Exec(`
			INSERT OR REPLACE INTO daily_prices (isin, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, b.ISIN, b.Date.Unix(), b.Close, b.Close, b.Close, b.Close, b.Volume)
		if err != nil {
			t.Fatalf("Failed to insert bar %s %s: %v", b.ISIN, b.Date.Format("2006-01-02"), err)
		}
	}
}
