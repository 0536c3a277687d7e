package models

import "time"

// Membership places a grid cell relative to the displayed month.
type Membership string

const (
	MonthPrevious Membership = "previous"
	MonthCurrent  Membership = "current"
	MonthNext     Membership = "next"
)

// OverlayPosition is where a day sits inside a reservation's span.
type OverlayPosition string

const (
	OverlayNone   OverlayPosition = "none"
	OverlaySingle OverlayPosition = "single"
	OverlayStart  OverlayPosition = "start"
	OverlayMiddle OverlayPosition = "middle"
	OverlayEnd    OverlayPosition = "end"
)

// CalendarCell is one day of a 42-cell month grid.
type CalendarCell struct {
	Date       time.Time       `json:"date"`
	Day        int             `json:"day"`
	Membership Membership      `json:"membership"`
	Overlay    OverlayPosition `json:"overlay"`
	IsToday    bool            `json:"is_today"`
}

// Reserved reports whether the cell is covered by the overlaid reservation.
func (c CalendarCell) Reserved() bool {
	return c.Overlay != "" && c.Overlay != OverlayNone
}

// InMonth reports whether the cell belongs to the displayed month.
func (c CalendarCell) InMonth() bool {
	return c.Membership == MonthCurrent
}
