package models

import (
	"bytes"
	"encoding/json"
	"time"

	"okhouse/internal/dates"
)

// Date is a calendar date carried as YYYY-MM-DD on the wire.
type Date struct {
	time.Time
}

// NewDate strips the clock from t.
func NewDate(t time.Time) Date {
	return Date{Time: dates.DateOnly(t)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	s, err := dates.FormatForTransport(d.Time)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	normalized, err := dates.NormalizeTransport(s)
	if err != nil {
		return err
	}
	t, err := dates.ParseTransport(normalized)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	s, _ := dates.FormatForTransport(d.Time)
	return s
}

// Reservation mirrors the backend's reservation resource.
type Reservation struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	StartDate   Date       `json:"start_date"`
	EndDate     Date       `json:"end_date"`
	Duration    int        `json:"duration"`
	Status      Status     `json:"status"`
	ConfirmedBy *string    `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Span returns the stay derived from start and duration. The end day is
// always start plus duration, whatever EndDate the server echoed.
func (r Reservation) Span() (dates.Range, bool) {
	return dates.ComputeRange(r.StartDate.Time, r.Duration)
}

// DecidedBy reports whether admin is the one who last set the status.
func (r Reservation) DecidedBy(admin string) bool {
	return admin != "" && r.ConfirmedBy != nil && *r.ConfirmedBy == admin
}

// GuestRequest is the guest-side payload for creating or changing a stay.
type GuestRequest struct {
	ReservationID int64  `json:"reservation_id,omitempty"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Password      string `json:"password,omitempty"`
	StartDate     Date   `json:"start_date"`
	EndDate       Date   `json:"end_date"`
	Duration      int    `json:"duration"`
}

// GuestCredentials identifies a guest's own reservations.
type GuestCredentials struct {
	ReservationID int64  `json:"reservation_id,omitempty"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Password      string `json:"password,omitempty"`
}

// GuestVerification is the backend's answer to a guest credential check.
// ReservationID is the guest's reservation when the check passed.
type GuestVerification struct {
	ReservationID *int64 `json:"reservation_id"`
	Verified      bool   `json:"verified"`
}
