package reservation

import (
	"time"

	"okhouse/internal/dates"
	"okhouse/internal/models"
)

// FindConflicts returns the blocking reservations whose stay overlaps the
// candidate stay. Stays are half-open, so a check-out day may be another
// guest's check-in day. excludeID (when non-zero) skips the reservation
// being modified.
func FindConflicts(start time.Time, nights int, existing []models.Reservation, excludeID int64) []models.Reservation {
	candidate, ok := dates.ComputeRange(start, nights)
	if !ok {
		return nil
	}

	var conflicts []models.Reservation
	for _, r := range existing {
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if !r.Status.Blocking() {
			continue
		}
		span, ok := stayOf(r)
		if !ok {
			continue
		}
		if overlaps(candidate, span) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

// Available reports whether the candidate stay has no conflicts.
func Available(start time.Time, nights int, existing []models.Reservation, excludeID int64) bool {
	return len(FindConflicts(start, nights, existing, excludeID)) == 0
}

func overlaps(a, b dates.Range) bool {
	return dates.Before(a.Start, b.End) && dates.Before(b.Start, a.End)
}

func stayOf(r models.Reservation) (dates.Range, bool) {
	if span, ok := r.Span(); ok {
		return span, true
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return dates.Range{}, false
	}
	return dates.Range{
		Start:    r.StartDate.Time,
		End:      r.EndDate.Time,
		Duration: dates.DaysBetween(r.StartDate.Time, r.EndDate.Time),
	}, true
}
