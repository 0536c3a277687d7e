// Package dates holds the calendar-date helpers shared by the booking flow
// and the admin console. Every function works on the calendar fields of the
// value it is given and never converts to UTC first.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransportLayout is the wire format of a calendar date.
const TransportLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

var weekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// Range is a stay: Start is the check-in day, End the check-out day.
type Range struct {
	Start    time.Time
	End      time.Time
	Duration int
}

// FormatLocalized renders t as "2025.08.10 (일)". Zero time yields "".
func FormatLocalized(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d.%02d.%02d (%s)", t.Year(), int(t.Month()), t.Day(), weekdays[t.Weekday()])
}

// FormatForTransport renders t as YYYY-MM-DD using its own calendar fields.
func FormatForTransport(t time.Time) (string, error) {
	if t.IsZero() {
		return "", ErrInvalidDate
	}
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day()), nil
}

// ParseTransport parses YYYY-MM-DD as local midnight.
func ParseTransport(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TransportLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// NormalizeTransport accepts a transport date or an RFC3339 timestamp and
// re-renders it as YYYY-MM-DD. Timestamps keep the calendar day of their own
// offset.
func NormalizeTransport(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDate
	}
	if t, err := ParseTransport(s); err == nil {
		return FormatForTransport(t)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FormatForTransport(t)
}

// ComputeRange builds the stay starting at start for the given nights.
// ok is false when either input is absent.
func ComputeRange(start time.Time, nights int) (Range, bool) {
	if start.IsZero() || nights == 0 {
		return Range{}, false
	}
	return Range{
		Start:    start,
		End:      start.AddDate(0, 0, nights),
		Duration: nights,
	}, true
}

// DaysBetween is the ceiling of end-start in whole days. Calendar days are
// counted on the wall clock so DST transitions do not add or drop a day.
func DaysBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	days := int(civil(end).Sub(civil(start)) / (24 * time.Hour))
	if clock(end) > clock(start) {
		days++
	}
	return days
}

// DateOnly strips the clock, keeping t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return civil(a).Equal(civil(b))
}

// Before reports whether a's calendar day is strictly before b's.
func Before(a, b time.Time) bool {
	return civil(a).Before(civil(b))
}

// DaysIn returns the number of days in month m of year.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civil maps t's calendar day onto UTC midnight so days compare exactly.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
