package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	FunctionCallsTotal   *prometheus.CounterVec
	FunctionCallDuration *prometheus.HistogramVec

	WebSocketConnections prometheus.Gauge
	NotificationsPushed  *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics registers the collectors on first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			FunctionCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "function_calls_total",
					Help: "Function invocations by function, action and status",
				},
				[]string{"function", "action", "status"},
			),
			FunctionCallDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "function_call_duration_seconds",
					Help:    "Function invocation latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"function", "action"},
			),
			WebSocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Open notification stream connections",
				},
			),
			NotificationsPushed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_pushed_total",
					Help: "Notifications written to websocket clients",
				},
				[]string{"type"},
			),
		}
	})
	return metricsInstance
}

// RecordFunctionCall records one function invocation.
func RecordFunctionCall(function, action string, status int, elapsed time.Duration) {
	m := GetMetrics()
	m.FunctionCallsTotal.WithLabelValues(function, action, strconv.Itoa(status)).Inc()
	m.FunctionCallDuration.WithLabelValues(function, action).Observe(elapsed.Seconds())
}

// MetricsMiddleware collects request count and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	m := GetMetrics()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
