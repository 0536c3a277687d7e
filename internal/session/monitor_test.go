package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMonitorStartStopIdempotent(t *testing.T) {
	f := newFixture(t, time.Hour)

	assert.False(t, f.ctrl.StartMonitor(), "no session, nothing to monitor")
	assert.False(t, f.ctrl.StopMonitor())

	f.login(t, tokenExpiringIn(t, time.Hour))
	assert.True(t, f.ctrl.MonitorRunning())
	assert.False(t, f.ctrl.StartMonitor())

	assert.True(t, f.ctrl.StopMonitor())
	assert.False(t, f.ctrl.StopMonitor())
	assert.False(t, f.ctrl.MonitorRunning())

	assert.True(t, f.ctrl.StartMonitor())
	assert.True(t, f.ctrl.MonitorRunning())
}

func TestMonitorLoop(t *testing.T) {
	var m monitor
	var ticks atomic.Int32

	require.True(t, m.start(5*time.Millisecond, func(context.Context) { ticks.Add(1) }))
	require.False(t, m.start(5*time.Millisecond, func(context.Context) { t.Error("second loop ticked") }))

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)

	require.True(t, m.stop())
	time.Sleep(20 * time.Millisecond)
	stopped := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())
}

func TestMonitorCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("HealthyTokenNotRefreshed", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.login(t, tokenExpiringIn(t, 2*time.Minute))

		f.ctrl.check(ctx)
		f.ctrl.check(ctx)
		f.auth.AssertNotCalled(t, "Refresh", mock.Anything)
	})

	t.Run("ExpiringTokenRefreshedOnce", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.login(t, tokenExpiringIn(t, 50*time.Second))
		f.auth.On("Refresh", mock.Anything).Return(grant(tokenExpiringIn(t, time.Hour)), nil).Once()

		f.ctrl.check(ctx)
		f.ctrl.check(ctx)
		f.auth.AssertNumberOfCalls(t, "Refresh", 1)
	})

	t.Run("RefreshIgnoresMonitorCancel", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.login(t, tokenExpiringIn(t, 10*time.Second))
		f.auth.On("Refresh", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })).
			Return(grant(tokenExpiringIn(t, time.Hour)), nil).Once()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		f.ctrl.check(cancelled)
		f.auth.AssertExpectations(t)
	})
}

func TestMonitorRefreshesBeforeExpiry(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	f.login(t, tokenExpiringIn(t, 45*time.Second))
	f.auth.On("Refresh", mock.Anything).Return(grant(tokenExpiringIn(t, time.Hour)), nil).Once()

	assert.Eventually(t, func() bool {
		return f.ctrl.TokenStatus().SecondsRemaining > 60
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	f.auth.AssertNumberOfCalls(t, "Refresh", 1)
	assert.True(t, f.ctrl.MonitorRunning())
}

func TestMonitorStopsAfterRefreshFailure(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	tok := tokenExpiringIn(t, 30*time.Second)
	f.login(t, tok)
	f.auth.On("Refresh", mock.Anything).Return(nil, errors.New("status 500")).Once()
	f.auth.On("Logout", mock.Anything, tok).Return(nil).Once()

	assert.Eventually(t, func() bool { return f.ctrl.State() == LoggedOut }, time.Second, 5*time.Millisecond)
	assert.False(t, f.ctrl.MonitorRunning())

	time.Sleep(50 * time.Millisecond)
	f.auth.AssertNumberOfCalls(t, "Refresh", 1)
	assert.Equal(t, []string{ReasonRefreshFailed}, f.logoutReasons())
}
