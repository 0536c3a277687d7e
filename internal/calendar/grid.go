// Package calendar lays out month grids for the booking and admin views.
package calendar

import (
	"time"

	"okhouse/internal/dates"
	"okhouse/internal/models"
)

const (
	// GridCells is six Sunday-first weeks.
	GridCells = 42
	weekLen   = 7
)

// BuildMonthGrid returns the 42 consecutive days starting on the Sunday
// on or before the 1st of month. When span is non-nil, days inside
// [span.Start, span.End] carry an overlay position. now decides IsToday and
// the location the grid is built in.
func BuildMonthGrid(year int, month time.Month, span *dates.Range, now time.Time) []models.CalendarCell {
	loc := now.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// time.Date normalizes out-of-range months, so read the month back.
	year, month = first.Year(), first.Month()
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]models.CalendarCell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		day := gridStart.AddDate(0, 0, i)
		cells = append(cells, models.CalendarCell{
			Date:       day,
			Day:        day.Day(),
			Membership: membership(day, year, month),
			Overlay:    overlay(day, span),
			IsToday:    dates.SameDay(day, now),
		})
	}
	return cells
}

// BuildForReservation renders the month in which r starts, overlaid with r.
func BuildForReservation(r models.Reservation, now time.Time) []models.CalendarCell {
	start := r.StartDate.Time
	span, ok := r.Span()
	if !ok {
		// Without a duration, fall back to what the server sent.
		span = dates.Range{Start: start, End: r.EndDate.Time}
		if span.End.IsZero() {
			span.End = start
		}
	}
	return BuildMonthGrid(start.Year(), start.Month(), &span, now)
}

// Weeks splits a grid into rows of seven days.
func Weeks(cells []models.CalendarCell) [][]models.CalendarCell {
	rows := make([][]models.CalendarCell, 0, (len(cells)+weekLen-1)/weekLen)
	for i := 0; i < len(cells); i += weekLen {
		end := i + weekLen
		if end > len(cells) {
			end = len(cells)
		}
		rows = append(rows, cells[i:end])
	}
	return rows
}

func membership(day time.Time, year int, month time.Month) models.Membership {
	switch {
	case day.Year() == year && day.Month() == month:
		return models.MonthCurrent
	case day.Year() < year || (day.Year() == year && day.Month() < month):
		return models.MonthPrevious
	default:
		return models.MonthNext
	}
}

func overlay(day time.Time, span *dates.Range) models.OverlayPosition {
	if span == nil || span.Start.IsZero() {
		return models.OverlayNone
	}
	if dates.Before(day, span.Start) || dates.Before(span.End, day) {
		return models.OverlayNone
	}

	isStart := dates.SameDay(day, span.Start)
	isEnd := dates.SameDay(day, span.End)
	switch {
	case dates.SameDay(span.Start, span.End):
		return models.OverlaySingle
	case isStart:
		return models.OverlayStart
	case isEnd:
		return models.OverlayEnd
	default:
		return models.OverlayMiddle
	}
}
