package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationJSON(t *testing.T) {
	raw := `{
		"id": 7,
		"name": "홍길동",
		"phone": "010-1234-5678",
		"start_date": "2025-08-10",
		"end_date": "2025-08-13",
		"duration": 3,
		"status": "confirmed",
		"confirmed_by": "관리자",
		"created_at": "2025-08-01T09:00:00Z",
		"updated_at": "2025-08-02T09:00:00Z"
	}`

	var r Reservation
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, int64(7), r.ID)
	assert.Equal(t, StatusConfirmed, r.Status)
	assert.Equal(t, "2025-08-10", r.StartDate.String())
	assert.Equal(t, time.Local, r.StartDate.Location())
	assert.True(t, r.DecidedBy("관리자"))
	assert.False(t, r.DecidedBy("다른"))

	span, ok := r.Span()
	require.True(t, ok)
	assert.Equal(t, "2025-08-13", NewDate(span.End).String())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"start_date":"2025-08-10"`)
	assert.Contains(t, string(out), `"end_date":"2025-08-13"`)
}

func TestDateJSON(t *testing.T) {
	t.Run("Null", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte("null"), &d))
		assert.True(t, d.IsZero())

		out, err := json.Marshal(Date{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(out))
	})

	t.Run("Timestamp", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2025-08-10T23:00:00+09:00"`), &d))
		assert.Equal(t, "2025-08-10", d.String())
	})

	t.Run("Invalid", func(t *testing.T) {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &d))
	})
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "예약확정", StatusConfirmed.Text())
	assert.Equal(t, "unknown", Status("unknown").Text())

	assert.True(t, StatusPending.Blocking())
	assert.True(t, StatusConfirmed.Blocking())
	assert.True(t, Status("").Blocking())
	assert.False(t, StatusCancelled.Blocking())
	assert.False(t, StatusExpired.Blocking())

	assert.True(t, StatusCancelled.Settable())
	assert.False(t, StatusCompleted.Settable())
}

func TestCalendarCell(t *testing.T) {
	assert.False(t, CalendarCell{Overlay: OverlayNone}.Reserved())
	assert.True(t, CalendarCell{Overlay: OverlaySingle}.Reserved())
	assert.True(t, CalendarCell{Membership: MonthCurrent}.InMonth())
	assert.True(t, AdminIdentity{}.IsZero())
}
