package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAgendaMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAgendaMetrics(reg)

	m.Observe("relocate", OutcomeRollback)
	m.Observe("relocate", OutcomeRollback)
	m.Observe("create", OutcomeSuccess)

	if got := testutil.ToFloat64(m.operations.WithLabelValues("relocate", OutcomeRollback)); got != 2 {
		t.Fatalf("relocate rollback = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("create", OutcomeSuccess)); got != 1 {
		t.Fatalf("create success = %v, want 1", got)
	}
}

func TestAgendaMetrics_NilIsNoop(t *testing.T) {
	var m *AgendaMetrics
	m.Observe("create", OutcomeSuccess)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/health", "200")); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
}
