package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "okhouse"

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outbound backend requests by method, route and result.",
		},
		[]string{"method", "route", "result"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Outbound backend request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	sessionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refresh_total",
			Help:      "Access token refresh attempts by result.",
		},
		[]string{"result"},
	)

	sessionLogouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_logout_total",
			Help:      "Session teardowns by reason.",
		},
		[]string{"reason"},
	)

	monitorTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_monitor_ticks_total",
			Help:      "Background token checks performed.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_cache_lookups_total",
			Help:      "Reservation listing cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, apiDuration, sessionRefreshes, sessionLogouts, monitorTicks, cacheLookups)
	})
}

// ObserveAPI records one outbound request. result is "ok" or an error class.
func ObserveAPI(method, route, result string, elapsed time.Duration) {
	apiRequests.WithLabelValues(method, route, result).Inc()
	apiDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func IncRefresh(ok bool) {
	if ok {
		sessionRefreshes.WithLabelValues("ok").Inc()
		return
	}
	sessionRefreshes.WithLabelValues("failed").Inc()
}

func IncLogout(reason string) {
	sessionLogouts.WithLabelValues(reason).Inc()
}

func IncMonitorTick() {
	monitorTicks.Inc()
}

func IncCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
