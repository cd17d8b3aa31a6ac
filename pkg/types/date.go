package types

import (
	"time"

	"cloud.google.com/go/civil"
)

// Dates are civil dates: a year, month and day with no zone. Arithmetic goes
// through civil.Date so a day never shifts for users away from UTC.

// DateLayout is the canonical activity date format.
const DateLayout = "2006-01-02"

// ParseDate parses a canonical YYYY-MM-DD date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil || d.String() != s {
		return civil.Date{}, ErrInvalidDate
	}
	return d, nil
}

// Today returns the wall-clock date of now in now's own location.
func Today(now time.Time) civil.Date {
	return civil.DateOf(now)
}

// WeekStart returns the Sunday on or before d.
func WeekStart(d civil.Date) civil.Date {
	return d.AddDays(-int(Weekday(d)))
}

// Weekday returns the day of the week of d.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// MonthStart returns the first day of d's month.
func MonthStart(d civil.Date) civil.Date {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// MonthEnd returns the last day of d's month.
func MonthEnd(d civil.Date) civil.Date {
	next := MonthStart(d).AddDays(32)
	return MonthStart(next).AddDays(-1)
}
