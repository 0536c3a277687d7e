package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"okhouse/internal/dates"
	"okhouse/internal/domain"
	"okhouse/internal/metrics"
	"okhouse/internal/models"

	"github.com/redis/go-redis/v9"
)

const listingCachePrefix = "okhouse:listing:"

// ReservationsClient wraps the reservation endpoints.
type ReservationsClient struct {
	gw *Gateway

	redis    *redis.Client
	cacheTTL time.Duration
}

var _ domain.ReservationAPI = (*ReservationsClient)(nil)

func NewReservationsClient(gw *Gateway) *ReservationsClient {
	return &ReservationsClient{gw: gw}
}

// UseRedisCache configures optional Redis caching for the guest monthly
// listing. Admin listings are never cached so they stay behind the session.
func (c *ReservationsClient) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// AdminMonthly lists every reservation touching year/month.
func (c *ReservationsClient) AdminMonthly(ctx context.Context, year int, month time.Month) ([]models.Reservation, error) {
	var out []models.Reservation
	err := c.gw.Do(ctx, Request{Path: fmt.Sprintf("/admin/reservations/monthly/%d/%02d", year, int(month))}, &out)
	return out, err
}

func (c *ReservationsClient) All(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	err := c.gw.Do(ctx, Request{Path: "/admin/reservations/"}, &out)
	return out, err
}

// Range lists reservations between two calendar days.
func (c *ReservationsClient) Range(ctx context.Context, start, end time.Time) ([]models.Reservation, error) {
	from, err := dates.FormatForTransport(start)
	if err != nil {
		return nil, err
	}
	to, err := dates.FormatForTransport(end)
	if err != nil {
		return nil, err
	}

	var out []models.Reservation
	err = c.gw.Do(ctx, Request{
		Path:  "/admin/reservations/range",
		Query: url.Values{"start_date": {from}, "end_date": {to}},
	}, &out)
	return out, err
}

// UpdateStatus sets a reservation's status on behalf of adminName.
func (c *ReservationsClient) UpdateStatus(ctx context.Context, id int64, status models.Status, adminName string) (*models.Reservation, error) {
	var out models.Reservation
	err := c.gw.Do(ctx, Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/admin/reservations/%d/status", id),
		Body:   map[string]string{"status": string(status), "admin_name": adminName},
	}, &out)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &out, nil
}

// GuestMonthly is the public listing the booking calendar is drawn from.
// It may be served from the listing cache and so lag other writers by up
// to the cache TTL.
func (c *ReservationsClient) GuestMonthly(ctx context.Context, year int, month time.Month) ([]models.Reservation, error) {
	var out []models.Reservation
	if c.readCache(ctx, guestMonthlyPath(year, month), &out) {
		return out, nil
	}
	return c.GuestMonthlyUncached(ctx, year, month)
}

// GuestMonthlyUncached always asks the backend and refreshes the cached
// copy. Conflict checks read through here.
func (c *ReservationsClient) GuestMonthlyUncached(ctx context.Context, year int, month time.Month) ([]models.Reservation, error) {
	path := guestMonthlyPath(year, month)
	var out []models.Reservation
	if err := c.gw.Do(ctx, Request{Path: path}, &out); err != nil {
		return nil, err
	}
	c.writeCache(ctx, path, out)
	return out, nil
}

func guestMonthlyPath(year int, month time.Month) string {
	return fmt.Sprintf("/user/reservations/monthly/%d/%02d", year, int(month))
}

func (c *ReservationsClient) Create(ctx context.Context, req models.GuestRequest) (*models.Reservation, error) {
	var out models.Reservation
	if err := c.gw.Do(ctx, Request{Method: http.MethodPost, Path: "/user/reservations/", Body: req}, &out); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &out, nil
}

// Update moves a guest's own reservation to new dates.
func (c *ReservationsClient) Update(ctx context.Context, req models.GuestRequest) (*models.Reservation, error) {
	var out models.Reservation
	if err := c.gw.Do(ctx, Request{Method: http.MethodPut, Path: "/user/reservations/", Body: req}, &out); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return &out, nil
}

// Delete removes a guest's reservation. The backend answers 204.
func (c *ReservationsClient) Delete(ctx context.Context, creds models.GuestCredentials) error {
	if _, err := c.gw.Send(ctx, Request{Method: http.MethodDelete, Path: "/user/reservations/", Body: creds}); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// ListByGuest returns the reservations made under a name and phone.
func (c *ReservationsClient) ListByGuest(ctx context.Context, name, phone string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := c.gw.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/user/reservations/user",
		Body:   models.GuestCredentials{Name: name, Phone: phone},
	}, &out)
	return out, err
}

// VerifyGuest checks a guest's name, phone and password.
func (c *ReservationsClient) VerifyGuest(ctx context.Context, creds models.GuestCredentials) (*models.GuestVerification, error) {
	var out models.GuestVerification
	if err := c.gw.Do(ctx, Request{Method: http.MethodPost, Path: "/user/auth/verify", Body: creds}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ReservationsClient) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, listingCachePrefix+key).Result()
	if err != nil {
		metrics.IncCache(false)
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCache(false)
		return false
	}
	metrics.IncCache(true)
	return true
}

func (c *ReservationsClient) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, listingCachePrefix+key, data, c.cacheTTL).Err()
}

// invalidate drops every cached listing after a mutation.
func (c *ReservationsClient) invalidate(ctx context.Context) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, listingCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.gw.logger.Warn().Err(err).Msg("scan listing cache")
		return
	}
	if len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			c.gw.logger.Warn().Err(err).Msg("drop listing cache")
		}
	}
}
