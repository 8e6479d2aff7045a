// Package metrics defines the portal's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the portal exports.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	DashboardRender prometheus.Histogram
	StoredRecords   prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regportal",
			Name:      "registrations_total",
			Help:      "Registration submissions by result (ok, invalid, error).",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regportal",
			Name:      "logins_total",
			Help:      "Admin login attempts by result (ok, rejected).",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regportal",
			Name:      "notifications_total",
			Help:      "Registration notifications by result (sent, failed, skipped).",
		}, []string{"result"}),
		DashboardRender: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "regportal",
			Name:      "dashboard_render_seconds",
			Help:      "Time to load the store and render the dashboard.",
			Buckets:   prometheus.DefBuckets,
		}),
		StoredRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "regportal",
			Name:      "stored_records",
			Help:      "Record count seen by the last dashboard load.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regportal",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "regportal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.Registrations, m.Logins, m.Notifications,
		m.DashboardRender, m.StoredRecords,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Middleware records request counts and latency keyed by the matched route
// pattern, so unmatched paths collapse into one series.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
