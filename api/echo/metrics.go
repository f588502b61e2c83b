package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sadhana_http_requests_total",
			Help: "Number of HTTP requests processed, by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sadhana_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds, by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			route := ctx.Path()
			method := ctx.Request().Method
			status := ctx.Response().Status
			if err != nil {
				// the error handler has not run yet; resolve the code it will use
				status = errorStatusCode(err)
			}

			requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
