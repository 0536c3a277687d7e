package domain

import (
	"context"
	"time"

	"okhouse/internal/models"
)

// TokenGrant is what the auth backend returns on verification or refresh.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	AdminID     int64  `json:"admin_id"`
	AdminName   string `json:"admin_name"`
}

// AuthAPI is the backend's admin authentication surface.
type AuthAPI interface {
	VerifyPhone(ctx context.Context, phone string) (*TokenGrant, error)
	// Refresh relies on the refresh credential the transport already holds.
	Refresh(ctx context.Context) (*TokenGrant, error)
	WhoAmI(ctx context.Context, token string) (*models.AdminIdentity, error)
	Logout(ctx context.Context, token string) error
}

// TokenStore is the persisted access-token slot.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// Session is what outbound request gating needs from the session owner.
type Session interface {
	AccessToken() string
	Refresh(ctx context.Context) (models.AdminIdentity, error)
	// Expire ends a session the backend has rejected.
	Expire(ctx context.Context)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReservationAPI is the backend's reservation surface used by the services.
type ReservationAPI interface {
	// GuestMonthly may answer from a cache; GuestMonthlyUncached never does.
	GuestMonthly(ctx context.Context, year int, month time.Month) ([]models.Reservation, error)
	GuestMonthlyUncached(ctx context.Context, year int, month time.Month) ([]models.Reservation, error)
	AdminMonthly(ctx context.Context, year int, month time.Month) ([]models.Reservation, error)
	All(ctx context.Context) ([]models.Reservation, error)
	Range(ctx context.Context, start, end time.Time) ([]models.Reservation, error)
	ListByGuest(ctx context.Context, name, phone string) ([]models.Reservation, error)
	VerifyGuest(ctx context.Context, creds models.GuestCredentials) (*models.GuestVerification, error)
	Create(ctx context.Context, req models.GuestRequest) (*models.Reservation, error)
	Update(ctx context.Context, req models.GuestRequest) (*models.Reservation, error)
	Delete(ctx context.Context, creds models.GuestCredentials) error
	UpdateStatus(ctx context.Context, id int64, status models.Status, adminName string) (*models.Reservation, error)
}
