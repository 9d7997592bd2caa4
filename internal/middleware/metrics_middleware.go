package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "thr_http_request_duration_seconds",
	Help:    "HTTP request latency by route, method and status.",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "method", "status"})

// RequestMetrics создает middleware, записывающее длительность каждого
// запроса. В качестве метки route используется шаблон маршрута
// (например, /api/rooms/:id/answers), а не конкретный URL, чтобы не
// раздувать кардинальность метрики.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.WithLabelValues(
			route,
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
