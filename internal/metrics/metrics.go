package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bookmood/internal/apperr"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmood_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookmood_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	AppErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmood_app_errors_total",
			Help: "Total number of handled errors by kind and code",
		},
		[]string{"kind", "code"},
	)

	ReviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmood_reviews_created_total",
		Help: "Total number of reviews created",
	})

	ReviewsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmood_reviews_deleted_total",
		Help: "Total number of reviews deleted",
	})

	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmood_signups_total",
		Help: "Total number of users created",
	})

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmood_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)

// Middleware records request count and latency. The route label is the
// matched route pattern, so ids in paths do not explode cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if ae, ok := apperr.As(err); ok {
				status = ae.Status()
			} else if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		HTTPRequestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		HTTPRequestDurationSeconds.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}
