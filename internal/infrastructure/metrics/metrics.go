package metrics

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics counts and times Event Store API requests.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates the HTTP collectors and registers them with reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// Middleware records every request passing through echo.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			m.requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	}
}

// Outcomes reported by the agenda controller.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeRejected  = "rejected"
	OutcomeIgnored   = "ignored"
	OutcomeUnchanged = "unchanged"
	OutcomeRollback  = "rollback"
)

// AgendaMetrics counts agenda operations by outcome. A nil *AgendaMetrics
// is valid and records nothing.
type AgendaMetrics struct {
	operations *prometheus.CounterVec
}

// NewAgendaMetrics creates the agenda collectors and registers them with reg.
func NewAgendaMetrics(reg prometheus.Registerer) *AgendaMetrics {
	m := &AgendaMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenda_operations_total",
				Help: "Agenda operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
	reg.MustRegister(m.operations)
	return m
}

// Observe increments the counter for operation/outcome.
func (m *AgendaMetrics) Observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}
