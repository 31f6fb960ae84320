// Package metrics exposes Prometheus instrumentation for the HTTP surface and
// the cart engine.
package metrics

import (
	"net/http" // Handler type
	"strconv"  // Status code labels
	"time"     // Request timing

	"shop_system/internal/apperr" // Application errors

	"github.com/gin-gonic/gin"                                  // Gin web framework
	"github.com/prometheus/client_golang/prometheus"            // Prometheus metrics
	"github.com/prometheus/client_golang/prometheus/collectors" // Go and process collectors
	"github.com/prometheus/client_golang/prometheus/promhttp"   // Metrics HTTP handler
)

var (
	// RequestTotal counts HTTP requests by route template.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks request latency by route template.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CartOperations counts cart mutations by outcome ("ok" or an error kind).
	CartOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Total cart operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

// Registry holds the shop collectors plus Go runtime and process metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(RequestTotal, RequestDuration, CartOperations)
}

// Middleware records count and latency for every request. Unmatched routes
// share one label so scanners cannot blow up cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		RequestTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordCartOp counts one cart operation and its result.
func RecordCartOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	CartOperations.WithLabelValues(operation, outcome).Inc()
}
