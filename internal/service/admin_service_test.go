package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"okhouse/internal/domain"
	"okhouse/internal/events"
	"okhouse/internal/models"
	"okhouse/internal/reservation"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newAdmin(t *testing.T, admin models.AdminIdentity) (*AdminService, *mockAPI, *[]events.ReservationEventPayload) {
	t.Helper()
	api := &mockAPI{}
	bus := events.NewEventBus()
	var published []events.ReservationEventPayload
	bus.Subscribe(events.EventReservationStatusChanged, func(e *events.Event) error {
		var p events.ReservationEventPayload
		require.NoError(t, e.Decode(&p))
		published = append(published, p)
		return nil
	})

	logger := zerolog.New(io.Discard)
	svc := NewAdminService(api, staticAdmin(admin), bus, &logger)
	svc.now = func() time.Time { return today }
	return svc, api, &published
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()
	admin := models.AdminIdentity{ID: 1, Name: "관리자"}
	pending := booked(5, day(8, 10), 2, models.StatusPending)

	t.Run("Confirm", func(t *testing.T) {
		svc, api, published := newAdmin(t, admin)
		name := "관리자"
		api.On("UpdateStatus", mock.Anything, int64(5), models.StatusConfirmed, "관리자").
			Return(&models.Reservation{ID: 5, Status: models.StatusConfirmed, ConfirmedBy: &name}, nil).Once()

		got, err := svc.ChangeStatus(ctx, pending, models.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
		api.AssertExpectations(t)

		require.Len(t, *published, 1)
		assert.Equal(t, "confirmed", (*published)[0].Status)
		assert.Equal(t, "관리자", (*published)[0].ChangedBy)
	})

	t.Run("ReverseTransitionAllowed", func(t *testing.T) {
		svc, api, _ := newAdmin(t, admin)
		confirmed := booked(5, day(8, 10), 2, models.StatusConfirmed)
		api.On("UpdateStatus", mock.Anything, int64(5), models.StatusPending, "관리자").
			Return(&models.Reservation{ID: 5, Status: models.StatusPending}, nil).Once()

		_, err := svc.ChangeStatus(ctx, confirmed, models.StatusPending)
		assert.NoError(t, err)
	})

	t.Run("NoOp", func(t *testing.T) {
		svc, api, published := newAdmin(t, admin)

		_, err := svc.ChangeStatus(ctx, pending, models.StatusPending)
		assert.ErrorIs(t, err, domain.ErrNoOpTransition)
		assert.Equal(t, "이미 대기 상태입니다.", domain.Message(err))
		api.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, *published)
	})

	t.Run("NotSettable", func(t *testing.T) {
		svc, _, _ := newAdmin(t, admin)
		_, err := svc.ChangeStatus(ctx, pending, models.StatusExpired)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("NoSession", func(t *testing.T) {
		svc, api, _ := newAdmin(t, models.AdminIdentity{})
		_, err := svc.ChangeStatus(ctx, pending, models.StatusConfirmed)
		assert.ErrorIs(t, err, domain.ErrNoSession)
		api.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SessionExpired", func(t *testing.T) {
		svc, api, published := newAdmin(t, admin)
		api.On("UpdateStatus", mock.Anything, int64(5), models.StatusCancelled, "관리자").
			Return(nil, domain.ErrAuthenticationExpired)

		_, err := svc.ChangeStatus(ctx, pending, models.StatusCancelled)
		assert.ErrorIs(t, err, domain.ErrAuthenticationExpired)
		assert.Empty(t, *published)
	})
}

func TestMonthView(t *testing.T) {
	name := "관리자"
	mine := booked(1, day(8, 10), 2, models.StatusConfirmed)
	mine.ConfirmedBy = &name
	list := []models.Reservation{
		mine,
		booked(2, day(8, 15), 1, models.StatusPending),
		booked(3, day(8, 1), 1, models.StatusExpired),
	}

	svc, api, _ := newAdmin(t, models.AdminIdentity{ID: 1, Name: name})
	api.On("AdminMonthly", mock.Anything, 2025, time.August).Return(list, nil).Once()

	view, err := svc.MonthView(context.Background(), 2025, time.August)
	require.NoError(t, err)
	assert.Len(t, view.Reservations, 3)
	assert.Len(t, view.Cells, 42)
	assert.Len(t, view.Groups[reservation.CategoryMine], 1)
	assert.Len(t, view.Groups[reservation.CategoryPending], 1)
	assert.Len(t, view.Groups[reservation.CategoryExpired], 1)

	todayCells := 0
	for _, c := range view.Cells {
		if c.IsToday {
			todayCells++
			assert.Equal(t, 5, c.Day)
		}
	}
	assert.Equal(t, 1, todayCells)
}

func TestMonthViewError(t *testing.T) {
	svc, api, _ := newAdmin(t, models.AdminIdentity{ID: 1, Name: "관리자"})
	api.On("AdminMonthly", mock.Anything, 2025, time.August).Return(nil, domain.ErrAuthenticationExpired)

	_, err := svc.MonthView(context.Background(), 2025, time.August)
	assert.ErrorIs(t, err, domain.ErrAuthenticationExpired)
}

func TestExportMonth(t *testing.T) {
	svc, api, _ := newAdmin(t, models.AdminIdentity{ID: 1, Name: "관리자"})
	api.On("AdminMonthly", mock.Anything, 2025, time.August).Return([]models.Reservation{
		booked(1, day(8, 10), 2, models.StatusConfirmed),
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportMonth(context.Background(), &buf, 2025, time.August))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	path, err := svc.SaveMonth(context.Background(), t.TempDir(), 2025, time.August)
	require.NoError(t, err)
	assert.Contains(t, path, "reservations_2025_08.xlsx")
}

func TestAdminListings(t *testing.T) {
	ctx := context.Background()
	name := "관리자"
	mine := booked(1, day(8, 10), 2, models.StatusConfirmed)
	mine.ConfirmedBy = &name
	list := []models.Reservation{mine, booked(2, day(9, 3), 1, models.StatusPending)}

	t.Run("All", func(t *testing.T) {
		svc, api, _ := newAdmin(t, models.AdminIdentity{ID: 1, Name: name})
		api.On("All", mock.Anything).Return(list, nil)

		got, err := svc.All(ctx, reservation.CategoryAll)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = svc.All(ctx, reservation.CategoryMine)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].ID)
	})

	t.Run("Range", func(t *testing.T) {
		svc, api, _ := newAdmin(t, models.AdminIdentity{ID: 1, Name: name})
		api.On("Range", mock.Anything, day(8, 1), day(9, 30)).Return(list, nil).Once()

		got, err := svc.Range(ctx, day(8, 1), day(9, 30), reservation.CategoryPending)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].ID)
		api.AssertExpectations(t)
	})

	t.Run("RangeReversed", func(t *testing.T) {
		svc, api, _ := newAdmin(t, models.AdminIdentity{ID: 1, Name: name})

		_, err := svc.Range(ctx, day(9, 30), day(8, 1), reservation.CategoryAll)
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
		api.AssertNotCalled(t, "Range", mock.Anything, mock.Anything, mock.Anything)
	})
}
