package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"okhouse/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationsClientPaths(t *testing.T) {
	ctx := context.Background()
	rec := &recorded{}
	gw, _ := newTestGateway(t, jsonHandler(rec, http.StatusOK, `[]`))
	gw.RegisterSession(&fakeSession{token: testToken(t, time.Hour)})
	client := NewReservationsClient(gw)

	_, err := client.AdminMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	req, _ := rec.last()
	assert.Equal(t, "/api/v1/admin/reservations/monthly/2025/08", req.URL.Path)
	assert.NotEmpty(t, req.Header.Get("Authorization"))

	_, err = client.All(ctx)
	require.NoError(t, err)
	req, _ = rec.last()
	assert.Equal(t, "/api/v1/admin/reservations/", req.URL.Path)

	_, err = client.Range(ctx, time.Date(2025, 8, 1, 0, 0, 0, 0, time.Local), time.Date(2025, 8, 31, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	req, _ = rec.last()
	assert.Equal(t, "/api/v1/admin/reservations/range", req.URL.Path)
	assert.Equal(t, "2025-08-01", req.URL.Query().Get("start_date"))
	assert.Equal(t, "2025-08-31", req.URL.Query().Get("end_date"))

	_, err = client.Range(ctx, time.Time{}, time.Now())
	assert.Error(t, err)

	_, err = client.ListByGuest(ctx, "홍길동", "01012345678")
	require.NoError(t, err)
	req, body := rec.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/user/reservations/user", req.URL.Path)
	assert.JSONEq(t, `{"name":"홍길동","phone":"01012345678"}`, body)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestReservationsClientMutations(t *testing.T) {
	ctx := context.Background()
	rec := &recorded{}
	gw, _ := newTestGateway(t, jsonHandler(rec, http.StatusOK, `{"id":5,"status":"confirmed","confirmed_by":"관리자"}`))
	gw.RegisterSession(&fakeSession{token: testToken(t, time.Hour)})
	client := NewReservationsClient(gw)

	got, err := client.UpdateStatus(ctx, 5, models.StatusConfirmed, "관리자")
	require.NoError(t, err)
	assert.True(t, got.DecidedBy("관리자"))
	req, body := rec.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/api/v1/admin/reservations/5/status", req.URL.Path)
	assert.JSONEq(t, `{"status":"confirmed","admin_name":"관리자"}`, body)

	start := models.NewDate(time.Date(2025, 8, 10, 0, 0, 0, 0, time.Local))
	_, err = client.Create(ctx, models.GuestRequest{Name: "홍길동", Phone: "01012345678", Password: "1234", StartDate: start, EndDate: start, Duration: 2})
	require.NoError(t, err)
	req, body = rec.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Contains(t, body, `"start_date":"2025-08-10"`)

	_, err = client.Update(ctx, models.GuestRequest{ReservationID: 5, Name: "홍길동", Phone: "01012345678", StartDate: start, Duration: 3})
	require.NoError(t, err)
	req, body = rec.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, body, `"reservation_id":5`)

	res, err := client.VerifyGuest(ctx, models.GuestCredentials{Name: "홍길동", Phone: "01012345678", Password: "1234"})
	require.NoError(t, err)
	assert.False(t, res.Verified)
	req, _ = rec.last()
	assert.Equal(t, "/api/v1/user/auth/verify", req.URL.Path)
}

func TestReservationsClientDelete(t *testing.T) {
	rec := &recorded{}
	gw, _ := newTestGateway(t, jsonHandler(rec, http.StatusNoContent, ""))

	err := NewReservationsClient(gw).Delete(context.Background(), models.GuestCredentials{ReservationID: 5, Name: "홍길동", Phone: "01012345678", Password: "1234"})
	require.NoError(t, err)
	req, body := rec.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.JSONEq(t, `{"reservation_id":5,"name":"홍길동","phone":"01012345678","password":"1234"}`, body)
}

func TestReservationsClientCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var listings atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			listings.Add(1)
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "start_date": "2025-08-10", "duration": 2, "status": "pending"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 2})
	})
	gw, _ := newTestGateway(t, handler)
	client := NewReservationsClient(gw)
	client.UseRedisCache(rdb, time.Minute)

	first, err := client.GuestMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	second, err := client.GuestMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), listings.Load())
	assert.True(t, mr.Exists(listingCachePrefix+"/user/reservations/monthly/2025/08"))

	_, err = client.Create(ctx, models.GuestRequest{Name: "홍길동", Duration: 1})
	require.NoError(t, err)
	assert.False(t, mr.Exists(listingCachePrefix+"/user/reservations/monthly/2025/08"))

	_, err = client.GuestMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listings.Load())

	mr.FastForward(2 * time.Minute)
	_, err = client.GuestMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, int32(3), listings.Load())
}

func TestReservationsClientCacheDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	gw, _ := newTestGateway(t, jsonHandler(&recorded{}, http.StatusOK, `[]`))
	client := NewReservationsClient(gw)
	client.UseRedisCache(rdb, time.Minute)

	out, err := client.GuestMonthly(context.Background(), 2025, time.August)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReservationsClientUncachedListing(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var listings atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		listings.Add(1)
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 9, "start_date": "2025-08-10", "duration": 2, "status": "confirmed"}})
	})
	gw, _ := newTestGateway(t, handler)
	client := NewReservationsClient(gw)
	client.UseRedisCache(rdb, time.Minute)

	// another process left an empty listing behind and created id 9 since
	key := listingCachePrefix + "/user/reservations/monthly/2025/08"
	require.NoError(t, mr.Set(key, `[]`))

	cached, err := client.GuestMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Empty(t, cached)
	assert.Equal(t, int32(0), listings.Load())

	fresh, err := client.GuestMonthlyUncached(ctx, 2025, time.August)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(9), fresh[0].ID)
	assert.Equal(t, int32(1), listings.Load())

	cached, err = client.GuestMonthly(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)
	assert.Equal(t, int32(1), listings.Load())
}
