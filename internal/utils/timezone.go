package utils

import "time"

// LocalDate returns the calendar date of t in the given IANA timezone,
// formatted compact (YYYYMMDD). Unknown zones fall back to UTC.
func LocalDate(t time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("20060102")
}

// StartOfLocalDay returns midnight of t's calendar day in tz.
func StartOfLocalDay(t time.Time, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfLocalDay returns the first instant of the next calendar day in tz.
func EndOfLocalDay(t time.Time, tz string) time.Time {
	return StartOfLocalDay(t, tz).AddDate(0, 0, 1)
}
