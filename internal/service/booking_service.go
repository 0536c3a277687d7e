// Package service holds the guest booking and admin flows built on the
// reservation backend.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"okhouse/internal/calendar"
	"okhouse/internal/dates"
	"okhouse/internal/domain"
	"okhouse/internal/events"
	"okhouse/internal/logging"
	"okhouse/internal/models"
	"okhouse/internal/reservation"

	"github.com/rs/zerolog"
)

// BookingRequest is a guest's booking form.
type BookingRequest struct {
	// ReservationID is set when the guest moves an existing stay.
	ReservationID int64
	Name          string
	Phone         string
	Password      string
	Start         time.Time
	Nights        int
}

type BookingService struct {
	api       domain.ReservationAPI
	validator *reservation.Validator
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewBookingService(api domain.ReservationAPI, validator *reservation.Validator, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		api:       api,
		validator: validator,
		eventBus:  eventBus,
		logger:    logging.Component(logger, "booking"),
		now:       time.Now,
	}
}

// Plan validates req and checks the stay against the listings of every
// month it touches. It returns the computed stay.
func (s *BookingService) Plan(ctx context.Context, req BookingRequest) (dates.Range, error) {
	if err := s.validator.ValidateGuestInfo(req.Name, req.Phone, req.Password); err != nil {
		return dates.Range{}, err
	}
	if err := s.validator.ValidateDateRange(req.Start, req.Nights, s.now()); err != nil {
		return dates.Range{}, err
	}

	stay, _ := dates.ComputeRange(dates.DateOnly(req.Start), req.Nights)
	existing, err := s.listingsFor(ctx, stay)
	if err != nil {
		return dates.Range{}, err
	}

	conflicts := reservation.FindConflicts(stay.Start, stay.Duration, existing, req.ReservationID)
	if len(conflicts) > 0 {
		s.logger.Info().
			Str("start", dateString(stay.Start)).
			Int("nights", stay.Duration).
			Int("conflicts", len(conflicts)).
			Msg("requested stay overlaps existing reservations")
		return dates.Range{}, domain.NewError(domain.ErrConflict,
			fmt.Sprintf("선택하신 기간에 이미 예약이 있습니다. (%s)", reservation.FormatPeriod(conflicts[0])), nil)
	}
	return stay, nil
}

// Submit plans req and then creates the reservation, or moves it when
// req.ReservationID is set.
func (s *BookingService) Submit(ctx context.Context, req BookingRequest) (*models.Reservation, error) {
	stay, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := models.GuestRequest{
		ReservationID: req.ReservationID,
		Name:          req.Name,
		Phone:         reservation.NormalizePhone(req.Phone),
		Password:      req.Password,
		StartDate:     models.NewDate(stay.Start),
		EndDate:       models.NewDate(stay.End),
		Duration:      stay.Duration,
	}

	var created *models.Reservation
	if req.ReservationID != 0 {
		created, err = s.api.Update(ctx, payload)
	} else {
		created, err = s.api.Create(ctx, payload)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("reservation_id", created.ID).Str("start", dateString(stay.Start)).Int("nights", stay.Duration).Msg("reservation submitted")
	s.publish(events.EventReservationCreated, *created, "")
	return created, nil
}

// Cancel verifies the guest and deletes their reservation. A zero
// creds.ReservationID is filled from the verification answer.
func (s *BookingService) Cancel(ctx context.Context, creds models.GuestCredentials) error {
	creds.Phone = reservation.NormalizePhone(creds.Phone)
	verified, err := s.api.VerifyGuest(ctx, creds)
	if err != nil {
		return err
	}
	if !verified.Verified {
		return domain.NewError(domain.ErrValidation, "예약자 정보가 일치하지 않습니다.", nil)
	}
	if creds.ReservationID == 0 && verified.ReservationID != nil {
		creds.ReservationID = *verified.ReservationID
	}
	if creds.ReservationID == 0 {
		return domain.NewError(domain.ErrValidation, "취소할 예약을 찾을 수 없습니다.", nil)
	}

	if err := s.api.Delete(ctx, creds); err != nil {
		return err
	}
	s.publish(events.EventReservationDeleted, models.Reservation{ID: creds.ReservationID, Name: creds.Name}, "")
	return nil
}

// Mine lists the reservations made under name and phone.
func (s *BookingService) Mine(ctx context.Context, name, phone string) ([]models.Reservation, error) {
	name = strings.TrimSpace(name)
	phone = reservation.NormalizePhone(phone)
	if name == "" || phone == "" {
		return nil, domain.NewError(domain.ErrValidation, "이름과 전화번호를 입력해주세요.", nil)
	}
	return s.api.ListByGuest(ctx, name, phone)
}

// GuestCalendar is the month a guest picks a check-in day from.
type GuestCalendar struct {
	Year  int
	Month time.Month
	Cells []models.CalendarCell
	// Open holds the days of the month on which a one-night stay can start.
	Open map[int]bool
}

// Calendar lays out year/month for guests. It reads the possibly cached
// listing, so Plan still has the final word on a chosen stay.
func (s *BookingService) Calendar(ctx context.Context, year int, month time.Month) (*GuestCalendar, error) {
	list, err := s.api.GuestMonthly(ctx, year, month)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := dates.DateOnly(now)
	open := make(map[int]bool, dates.DaysIn(year, month))
	for d := 1; d <= dates.DaysIn(year, month); d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, now.Location())
		if dates.Before(day, today) {
			continue
		}
		if reservation.Available(day, 1, list, 0) {
			open[d] = true
		}
	}
	return &GuestCalendar{
		Year:  year,
		Month: month,
		Cells: calendar.BuildMonthGrid(year, month, nil, now),
		Open:  open,
	}, nil
}

// listingsFor loads the guest listings for every month the stay touches,
// dropping duplicates of reservations that span a month boundary. It
// bypasses the listing cache.
func (s *BookingService) listingsFor(ctx context.Context, stay dates.Range) ([]models.Reservation, error) {
	var out []models.Reservation
	seen := map[int64]bool{}

	month := time.Date(stay.Start.Year(), stay.Start.Month(), 1, 0, 0, 0, 0, stay.Start.Location())
	last := time.Date(stay.End.Year(), stay.End.Month(), 1, 0, 0, 0, 0, stay.End.Location())
	for !month.After(last) {
		list, err := s.api.GuestMonthlyUncached(ctx, month.Year(), month.Month())
		if err != nil {
			return nil, err
		}
		for _, r := range list {
			if r.ID != 0 && seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
		month = month.AddDate(0, 1, 0)
	}
	return out, nil
}

func (s *BookingService) publish(eventType string, r models.Reservation, changedBy string) {
	if err := s.eventBus.PublishJSON(eventType, reservationPayload(r, changedBy, s.now())); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("reservation_id", r.ID).Msg("failed to publish event")
	}
}

func reservationPayload(r models.Reservation, changedBy string, at time.Time) events.ReservationEventPayload {
	return events.ReservationEventPayload{
		ReservationID: r.ID,
		Name:          r.Name,
		StartDate:     r.StartDate.String(),
		Duration:      r.Duration,
		Status:        string(r.Status),
		ChangedBy:     changedBy,
		At:            at,
	}
}

func dateString(t time.Time) string {
	s, _ := dates.FormatForTransport(t)
	return s
}
