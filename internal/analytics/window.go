// Package analytics turns a month of expense records into the dashboard views:
// totals, category and daily breakdowns, the heatmap grid, and budget warnings.
// Everything here is pure; callers fetch the records and persist nothing.
package analytics

import (
	"fmt"
	"time"
)

// DateLayout is the day key used by daily spending and the heatmap.
const DateLayout = "2006-01-02"

// Window is one calendar month in a given location.
type Window struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// NewWindow validates month (1-12) and year and returns the window.
func NewWindow(year, month int, loc *time.Location) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1970 || year > 9999 {
		return Window{}, fmt.Errorf("year must be a 4-digit year, got %d", year)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Window{Year: year, Month: time.Month(month), Location: loc}, nil
}

// MonthOf returns the window containing t, in t's location.
func MonthOf(t time.Time) Window {
	return Window{Year: t.Year(), Month: t.Month(), Location: t.Location()}
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// Start is midnight on the first day of the month.
func (w Window) Start() time.Time {
	return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, w.loc())
}

// End is the last representable instant of the month, so [Start, End] is inclusive.
func (w Window) End() time.Time {
	return w.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DaysInMonth returns 28-31.
func (w Window) DaysInMonth() int {
	return w.Start().AddDate(0, 1, -1).Day()
}

// Contains reports whether t falls inside the month.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && !t.After(w.End())
}

// Previous returns the preceding calendar month.
func (w Window) Previous() Window {
	p := w.Start().AddDate(0, -1, 0)
	return Window{Year: p.Year(), Month: p.Month(), Location: w.loc()}
}

// DayKey formats t as a YYYY-MM-DD key in the window's location.
func (w Window) DayKey(t time.Time) string {
	return t.In(w.loc()).Format(DateLayout)
}
