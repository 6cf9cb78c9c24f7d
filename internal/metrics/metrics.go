// Package metrics provides Prometheus instrumentation for the PitchDesk platform.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pitchdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ChatTurnsTotal counts widget chat turns by outcome.
	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "chat_turns_total",
			Help:      "Total chat turns processed by outcome.",
		},
		[]string{"outcome"},
	)

	// EntitlementDenialsTotal counts entitlement gate denials by reason.
	EntitlementDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "entitlement_denials_total",
			Help:      "Total entitlement gate denials by reason.",
		},
		[]string{"reason"},
	)

	// FunnelTransitionsTotal counts funnel stage classifications.
	FunnelTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "funnel_transitions_total",
			Help:      "Total funnel classifications by resulting stage.",
		},
		[]string{"stage"},
	)

	// LeadsCapturedTotal counts leads created or updated from chat turns.
	LeadsCapturedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchdesk",
		Name:      "leads_captured_total",
		Help:      "Total leads captured from conversations.",
	})

	// TrialsExpiredTotal counts subscriptions expired by the sweep.
	TrialsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchdesk",
		Name:      "trials_expired_total",
		Help:      "Total trialing subscriptions transitioned to expired.",
	})

	// StripeWebhookTotal counts inbound Stripe webhook events by type and outcome.
	StripeWebhookTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "stripe_webhook_events_total",
			Help:      "Total Stripe webhook events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	// WebhookDeliveriesTotal counts webhook delivery attempts by result.
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "webhook_deliveries_total",
			Help:      "Total webhook deliveries by result.",
		},
		[]string{"result"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pitchdesk",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// RateLimitedTotal counts requests rejected by rate limiting, by scope.
	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchdesk",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by rate limiting, by scope (ip, minute, day).",
		},
		[]string{"scope"},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitchdesk", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitchdesk", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitchdesk", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitchdesk", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitchdesk", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitchdesk", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatTurnsTotal,
		EntitlementDenialsTotal,
		FunnelTransitionsTotal,
		LeadsCapturedTotal,
		TrialsExpiredTotal,
		StripeWebhookTotal,
		WebhookDeliveriesTotal,
		ActiveWebSocketClients,
		RateLimitedTotal,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
