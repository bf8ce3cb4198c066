package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesPostedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_posted_total",
		Help: "Total number of chat messages persisted",
	})
	SessionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_created_total",
		Help: "Total number of login sessions issued",
	})
	RoomsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_rooms_created_total",
		Help: "Total number of chat rooms created",
	})
	DBQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of SQL statements in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		MessagesPostedTotal,
		SessionsCreatedTotal,
		RoomsCreatedTotal,
		DBQueryDuration,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

// ObserveQuery 记录一条 SQL 的耗时，status 为 ok 或 error。
func ObserveQuery(elapsed time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	DBQueryDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// GinMiddleware 统计基础请求指标，供 Prometheus 拉取。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
