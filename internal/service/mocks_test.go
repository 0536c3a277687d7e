package service

import (
	"context"
	"time"

	"okhouse/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GuestMonthly(ctx context.Context, year int, month time.Month) ([]models.Reservation, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockAPI) GuestMonthlyUncached(ctx context.Context, year int, month time.Month) ([]models.Reservation, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockAPI) All(ctx context.Context) ([]models.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockAPI) Range(ctx context.Context, start, end time.Time) ([]models.Reservation, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockAPI) ListByGuest(ctx context.Context, name, phone string) ([]models.Reservation, error) {
	args := m.Called(ctx, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockAPI) VerifyGuest(ctx context.Context, creds models.GuestCredentials) (*models.GuestVerification, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuestVerification), args.Error(1)
}

func (m *mockAPI) AdminMonthly(ctx context.Context, year int, month time.Month) ([]models.Reservation, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockAPI) Create(ctx context.Context, req models.GuestRequest) (*models.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockAPI) Update(ctx context.Context, req models.GuestRequest) (*models.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockAPI) Delete(ctx context.Context, creds models.GuestCredentials) error {
	return m.Called(ctx, creds).Error(0)
}

func (m *mockAPI) UpdateStatus(ctx context.Context, id int64, status models.Status, adminName string) (*models.Reservation, error) {
	args := m.Called(ctx, id, status, adminName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

type staticAdmin models.AdminIdentity

func (a staticAdmin) Identity() models.AdminIdentity {
	return models.AdminIdentity(a)
}
