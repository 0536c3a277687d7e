package reservation

import (
	"fmt"

	"okhouse/internal/dates"
	"okhouse/internal/models"
)

// Category is an admin list filter.
type Category string

const (
	CategoryAll       Category = "전체"
	CategoryConfirmed Category = "확정"
	CategoryPending   Category = "대기"
	CategoryCancelled Category = "거절"
	CategoryExpired   Category = "이용종료"
	CategoryMine      Category = "내 결정"
)

// Categories lists the filters in display order.
var Categories = []Category{CategoryAll, CategoryConfirmed, CategoryPending, CategoryCancelled, CategoryMine}

// FormatPhone renders up to 11 digits as 010-1234-5678 while typing.
func FormatPhone(value string) string {
	digits := NormalizePhone(value)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	switch {
	case len(digits) > 7:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case len(digits) > 3:
		return digits[:3] + "-" + digits[3:]
	default:
		return digits
	}
}

// FormatPeriod renders "2025.08.10 (일) ~ 2025.08.13 (수) (3박)".
func FormatPeriod(r models.Reservation) string {
	end := r.EndDate.Time
	if span, ok := r.Span(); ok {
		end = span.End
	}
	return fmt.Sprintf("%s ~ %s (%d박)", dates.FormatLocalized(r.StartDate.Time), dates.FormatLocalized(end), r.Duration)
}

// Group buckets reservations by admin list category. admin is the name of
// the signed-in admin and fills CategoryMine.
func Group(reservations []models.Reservation, admin string) map[Category][]models.Reservation {
	groups := map[Category][]models.Reservation{
		CategoryConfirmed: {},
		CategoryPending:   {},
		CategoryCancelled: {},
		CategoryExpired:   {},
		CategoryMine:      {},
	}
	for _, r := range reservations {
		switch r.Status {
		case models.StatusConfirmed:
			groups[CategoryConfirmed] = append(groups[CategoryConfirmed], r)
		case models.StatusPending:
			groups[CategoryPending] = append(groups[CategoryPending], r)
		case models.StatusCancelled:
			groups[CategoryCancelled] = append(groups[CategoryCancelled], r)
		case models.StatusExpired, models.StatusCompleted:
			groups[CategoryExpired] = append(groups[CategoryExpired], r)
		}
		if r.DecidedBy(admin) {
			groups[CategoryMine] = append(groups[CategoryMine], r)
		}
	}
	return groups
}

// Filter returns the reservations shown under category.
func Filter(reservations []models.Reservation, category Category, admin string) []models.Reservation {
	if category == CategoryAll || category == "" {
		return reservations
	}
	return Group(reservations, admin)[category]
}
