package domain

import (
	"fmt"
	"time"
)

// Month identifies a calendar month, serialized as "YYYY-MM"
type Month struct {
	Year  int
	Month time.Month
}

const monthLayout = "2006-01"

// ParseMonth parses a "YYYY-MM" string
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, Invalid("month", fmt.Sprintf("%q is not a YYYY-MM month", s))
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return m.Start().Format(monthLayout)
}

// Start returns the first day of the month at UTC midnight
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following month (exclusive bound)
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// LastDay returns the last calendar day of the month
func (m Month) LastDay() time.Time {
	return m.End().AddDate(0, 0, -1)
}

// Prev returns the previous month
func (m Month) Prev() Month {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

// Next returns the following month
func (m Month) Next() Month {
	return MonthOf(m.End())
}

// Contains reports whether the calendar date of t falls within the month
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Date builds a calendar date (UTC midnight)
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date, keeping t's own year/month/day
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

const dateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, Invalid("date", fmt.Sprintf("%q is not a YYYY-MM-DD date", s))
	}
	return t, nil
}

// FormatDate renders a calendar date as "YYYY-MM-DD"
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
