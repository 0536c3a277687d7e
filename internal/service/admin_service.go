package service

import (
	"context"
	"io"
	"time"

	"okhouse/internal/calendar"
	"okhouse/internal/dates"
	"okhouse/internal/domain"
	"okhouse/internal/events"
	"okhouse/internal/export"
	"okhouse/internal/logging"
	"okhouse/internal/models"
	"okhouse/internal/reservation"

	"github.com/rs/zerolog"
)

// IdentitySource reports the admin holding the session.
type IdentitySource interface {
	Identity() models.AdminIdentity
}

// MonthView is what the admin calendar screen shows for one month.
type MonthView struct {
	Year         int
	Month        time.Month
	Reservations []models.Reservation
	Groups       map[reservation.Category][]models.Reservation
	Cells        []models.CalendarCell
}

type AdminService struct {
	api      domain.ReservationAPI
	admins   IdentitySource
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewAdminService(api domain.ReservationAPI, admins IdentitySource, eventBus domain.EventPublisher, logger *zerolog.Logger) *AdminService {
	return &AdminService{
		api:      api,
		admins:   admins,
		eventBus: eventBus,
		logger:   logging.Component(logger, "admin"),
		now:      time.Now,
	}
}

// ChangeStatus moves r to requested on behalf of the signed-in admin.
func (s *AdminService) ChangeStatus(ctx context.Context, r models.Reservation, requested models.Status) (*models.Reservation, error) {
	if err := reservation.ValidateStatusTransition(r.Status, requested); err != nil {
		return nil, err
	}

	admin := s.admins.Identity()
	if admin.IsZero() {
		return nil, domain.ErrNoSession
	}

	updated, err := s.api.UpdateStatus(ctx, r.ID, requested, admin.Name)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", r.ID).
		Str("from", string(r.Status)).
		Str("to", string(requested)).
		Str("admin", admin.Name).
		Msg("reservation status changed")
	if err := s.eventBus.PublishJSON(events.EventReservationStatusChanged, reservationPayload(*updated, admin.Name, s.now())); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", r.ID).Msg("failed to publish event")
	}
	return updated, nil
}

// MonthView loads year/month and lays it out for the admin calendar.
func (s *AdminService) MonthView(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	list, err := s.api.AdminMonthly(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return &MonthView{
		Year:         year,
		Month:        month,
		Reservations: list,
		Groups:       reservation.Group(list, s.admins.Identity().Name),
		Cells:        calendar.BuildMonthGrid(year, month, nil, s.now()),
	}, nil
}

// All lists every reservation under category.
func (s *AdminService) All(ctx context.Context, category reservation.Category) ([]models.Reservation, error) {
	list, err := s.api.All(ctx)
	if err != nil {
		return nil, err
	}
	return reservation.Filter(list, category, s.admins.Identity().Name), nil
}

// Range lists the reservations between from and to, both inclusive, under
// category.
func (s *AdminService) Range(ctx context.Context, from, to time.Time, category reservation.Category) ([]models.Reservation, error) {
	if dates.Before(to, from) {
		return nil, domain.NewError(domain.ErrInvalidDate, "종료일이 시작일보다 빠릅니다.", nil)
	}
	list, err := s.api.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return reservation.Filter(list, category, s.admins.Identity().Name), nil
}

// ExportMonth writes the year/month listing as a spreadsheet to w.
func (s *AdminService) ExportMonth(ctx context.Context, w io.Writer, year int, month time.Month) error {
	list, err := s.api.AdminMonthly(ctx, year, month)
	if err != nil {
		return err
	}
	return export.WriteMonthlyReport(w, year, month, list)
}

// SaveMonth writes the year/month spreadsheet into dir.
func (s *AdminService) SaveMonth(ctx context.Context, dir string, year int, month time.Month) (string, error) {
	list, err := s.api.AdminMonthly(ctx, year, month)
	if err != nil {
		return "", err
	}
	path, err := export.SaveMonthlyReport(dir, year, month, list)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("path", path).Int("reservations", len(list)).Msg("monthly report saved")
	return path, nil
}
