package models

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

var statusText = map[Status]string{
	StatusPending:   "예약대기",
	StatusConfirmed: "예약확정",
	StatusCancelled: "예약거절",
	StatusCompleted: "이용완료",
	StatusExpired:   "이용종료",
}

// Text returns the display label, or the raw value for unknown statuses.
func (s Status) Text() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return string(s)
}

// Blocking reports whether a reservation in this status occupies its dates.
// An empty status is what the backend defaults to, which is pending.
func (s Status) Blocking() bool {
	return s == "" || s == StatusPending || s == StatusConfirmed
}

// Settable reports whether an admin may request this status directly.
func (s Status) Settable() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

const (
	// DefaultMinNights and DefaultMaxNights bound a bookable stay.
	DefaultMinNights = 1
	DefaultMaxNights = 30

	// DefaultMonitorInterval is how often the session monitor checks the token.
	DefaultMonitorInterval = 30 // seconds

	// DefaultRefreshThreshold is the remaining lifetime below which a token is refreshed.
	DefaultRefreshThreshold = 60 // seconds

	// DefaultPersistKey names the persisted access-token slot.
	DefaultPersistKey = "admin_access_token"

	// ListingCacheTTL is how long cached reservation listings stay in Redis.
	ListingCacheTTL = 30 // seconds
)
