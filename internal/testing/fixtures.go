package testing

import (
	"time"
)

// Fixture ISINs used across tests
const (
	AppleISIN     = "US0378331005"
	MicrosoftISIN = "US5949181045"
	SAPISIN       = "DE0007164600"
)

// NewBarFixtures returns n consecutive weekday bars for isin starting at start
// (truncated to UTC midnight). Close is constant; volume grows by step per bar.
func NewBarFixtures(isin string, start time.Time, n int, close float64, volume, step int64) []Bar {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, 0, n)
	for len(bars) < n {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			bars = append(bars, Bar{
				ISIN:   isin,
				Date:   day,
				Close:  close,
				Volume: volume + step*int64(len(bars)),
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}
