package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used on the wire and on the CLI.
const DateLayout = "2006-01-02"

// DateWindow is an inclusive [Start, End] range of calendar dates.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// FiscalYear returns the Jan 1 to Dec 31 window of year. Flow statements use it.
func FiscalYear(year int) DateWindow {
	return DateWindow{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// AsOf returns the cumulative window from epoch through date. Position
// statements use it.
func AsOf(epoch, date time.Time) DateWindow {
	return DateWindow{Start: Day(epoch), End: Day(date)}
}

// Validate rejects windows whose end precedes their start.
func (w DateWindow) Validate() error {
	if w.End.Before(w.Start) {
		return fmt.Errorf("date window ends (%s) before it starts (%s)", w.EndString(), w.StartString())
	}
	return nil
}

// StartString formats Start as YYYY-MM-DD.
func (w DateWindow) StartString() string { return w.Start.Format(DateLayout) }

// EndString formats End as YYYY-MM-DD.
func (w DateWindow) EndString() string { return w.End.Format(DateLayout) }

func (w DateWindow) String() string {
	return w.StartString() + ".." + w.EndString()
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}
