package listing

import (
	"fmt"
	"time"

	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

// DateTimeLayout is the ledger's datetime wire format.
const DateTimeLayout = "2006-01-02 15:04:05"

// Filter narrows a listing. Zero fields mean "all": a zero Year lists
// every period, a zero Month lists the whole year and a zero Day the whole
// month.
type Filter struct {
	Year          int
	Month         int
	Day           int
	SalespersonID int64
	TeamID        int64
}

// Validate rejects out-of-range parts and a Month or Day given without the
// coarser part above it.
func (f Filter) Validate() error {
	switch {
	case f.Year < 0 || f.Year > 9999:
		return fmt.Errorf("invalid year %d", f.Year)
	case f.Month < 0 || f.Month > 12:
		return fmt.Errorf("invalid month %d", f.Month)
	case f.Month != 0 && f.Year == 0:
		return fmt.Errorf("month %d given without a year", f.Month)
	case f.Day != 0 && f.Month == 0:
		return fmt.Errorf("day %d given without a month", f.Day)
	case f.SalespersonID < 0:
		return fmt.Errorf("invalid salesperson id %d", f.SalespersonID)
	case f.TeamID < 0:
		return fmt.Errorf("invalid team id %d", f.TeamID)
	}
	if f.Day != 0 {
		if last := daysIn(f.Year, time.Month(f.Month)); f.Day < 1 || f.Day > last {
			return fmt.Errorf("invalid day %d for %04d-%02d", f.Day, f.Year, f.Month)
		}
	}
	return nil
}

// Range returns the inclusive datetime bounds selected by the date parts.
// ok is false when no year is set.
func (f Filter) Range() (from, to time.Time, ok bool) {
	if f.Year == 0 {
		return time.Time{}, time.Time{}, false
	}
	switch {
	case f.Day != 0:
		from = time.Date(f.Year, time.Month(f.Month), f.Day, 0, 0, 0, 0, time.UTC)
		to = from
	case f.Month != 0:
		from = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(f.Year, time.Month(f.Month), daysIn(f.Year, time.Month(f.Month)), 0, 0, 0, 0, time.UTC)
	default:
		from = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(f.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return from, to.Add(24*time.Hour - time.Second), true
}

// Domain builds the search domain for f against dateField.
func (f Filter) Domain(dateField string) rpc.Domain {
	var d rpc.Domain
	if from, to, ok := f.Range(); ok {
		d = append(d,
			rpc.Where(dateField, ">=", from.Format(DateTimeLayout)),
			rpc.Where(dateField, "<=", to.Format(DateTimeLayout)),
		)
	}
	if f.SalespersonID != 0 {
		d = append(d, rpc.Where("user_id", "=", f.SalespersonID))
	}
	if f.TeamID != 0 {
		d = append(d, rpc.Where("team_id", "=", f.TeamID))
	}
	return d
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
