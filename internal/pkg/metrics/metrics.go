package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telfera_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telfera_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	leadsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telfera_leads_submitted_total",
			Help: "Public lead submissions by outcome",
		},
		[]string{"result"},
	)

	leadStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telfera_lead_status_changes_total",
			Help: "Lead status changes by target status",
		},
		[]string{"status"},
	)

	rateLimitDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telfera_rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	auditEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telfera_audit_entries_total",
			Help: "Committed audit log entries by action",
		},
		[]string{"action"},
	)

	notificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telfera_notification_errors_total",
			Help: "Failed lead notifications by channel",
		},
		[]string{"channel"},
	)
)

// Middleware records request count and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// route templates keep label cardinality bounded (":id" instead of uuids)
		route := c.Route().Path
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry in Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func LeadSubmitted(result string) {
	leadsSubmitted.WithLabelValues(result).Inc()
}

func LeadStatusChanged(status string) {
	leadStatusChanges.WithLabelValues(status).Inc()
}

func RateLimitDenied(scope string) {
	rateLimitDenied.WithLabelValues(scope).Inc()
}

func AuditEntry(action string) {
	auditEntries.WithLabelValues(action).Inc()
}

func NotificationFailed(channel string) {
	notificationErrors.WithLabelValues(channel).Inc()
}
