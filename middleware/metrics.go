package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	openOrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "open_orders_created_total",
			Help: "Total number of open order requests posted",
		},
	)

	openOrdersCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "open_orders_cancelled_total",
			Help: "Total number of open order requests cancelled",
		},
	)

	bidsPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_placed_total",
			Help: "Total number of bids placed",
		},
	)

	bidsAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_accepted_total",
			Help: "Total number of bids accepted",
		},
	)

	notificationsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Total number of notifications emitted per sink",
		},
		[]string{"sink", "result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(openOrdersCreatedTotal)
	prometheus.MustRegister(openOrdersCancelledTotal)
	prometheus.MustRegister(bidsPlacedTotal)
	prometheus.MustRegister(bidsAcceptedTotal)
	prometheus.MustRegister(notificationsEmittedTotal)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordOpenOrderCreated() {
	openOrdersCreatedTotal.Inc()
}

func RecordOpenOrderCancelled() {
	openOrdersCancelledTotal.Inc()
}

func RecordBidPlaced() {
	bidsPlacedTotal.Inc()
}

func RecordBidAccepted() {
	bidsAcceptedTotal.Inc()
}

// RecordNotification counts one delivery attempt to sink; result is "ok" or "error"
func RecordNotification(sink, result string) {
	notificationsEmittedTotal.WithLabelValues(sink, result).Inc()
}
