package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/inkbook/studio/internal/adapters/ics"
	"github.com/inkbook/studio/internal/adapters/repository"
	"github.com/inkbook/studio/internal/application/services"
	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/config"
	"github.com/inkbook/studio/internal/infrastructure/database"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/infrastructure/validation"
	"github.com/inkbook/studio/internal/ports"
)

type testValidator struct{ v *validator.Validate }

func (tv *testValidator) Validate(i interface{}) error { return validation.Struct(tv.v, i) }

// newTestAPI wires the handler over an in-memory store. The caller is taken
// from the X-Test-User header.
func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	log := logger.FromZap(zaptest.NewLogger(t))

	db, err := database.New(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	svc := services.NewEventService(repository.NewEventRepository(db.DB), nil, 0, log)
	h := NewEventHandler(svc, time.UTC, log)

	e := echo.New()
	e.Validator = &testValidator{v: validation.New()}
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(UserContextKey, c.Request().Header.Get("X-Test-User"))
			return next(c)
		}
	})
	RegisterEventRoutes(api, h)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", user)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) entities.Event {
	t.Helper()
	var ev entities.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode event: %v (%s)", err, rec.Body.String())
	}
	return ev
}

func TestEventAPI_Lifecycle(t *testing.T) {
	e := newTestAPI(t)

	rec := call(t, e, http.MethodPost, "/api/v1/events", "u1",
		`{"userId":"u1","title":"Koi sleeve","date":"2025-01-06","time":"09:30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeEvent(t, rec)
	if created.ID == "" || created.Version != 1 || created.Color != entities.ColorFor("Koi sleeve") {
		t.Fatalf("unexpected created event %+v", created)
	}

	rec = call(t, e, http.MethodGet, "/api/v1/events/u1", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []entities.Event
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	move := `{"title":"Koi sleeve","date":"2025-01-07","time":"10:00","color":"` + created.Color + `","version":1}`
	rec = call(t, e, http.MethodPut, "/api/v1/events/"+created.ID, "u1", move)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if moved := decodeEvent(t, rec); moved.Version != 2 || moved.Date != "2025-01-07" {
		t.Fatalf("unexpected updated event %+v", moved)
	}

	// Same body again carries a stale version.
	rec = call(t, e, http.MethodPut, "/api/v1/events/"+created.ID, "u1", move)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update status = %d", rec.Code)
	}

	rec = call(t, e, http.MethodDelete, "/api/v1/events/"+created.ID, "u1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = call(t, e, http.MethodDelete, "/api/v1/events/"+created.ID, "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestEventAPI_Validation(t *testing.T) {
	e := newTestAPI(t)

	for _, body := range []string{
		`{"title":"","date":"2025-01-06","time":"09:30"}`,
		`{"title":"Koi","date":"06/01/2025","time":"09:30"}`,
		`{"title":"Koi","date":"2025-01-06","time":"19:00"}`,
		`{"title":"Koi","date":"2025-01-06","time":"09:30","color":"#123456"}`,
		`not json`,
	} {
		rec := call(t, e, http.MethodPost, "/api/v1/events", "u1", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d", body, rec.Code)
		}
	}
}

func TestEventAPI_Ownership(t *testing.T) {
	e := newTestAPI(t)

	rec := call(t, e, http.MethodPost, "/api/v1/events", "u1", `{"title":"Koi","date":"2025-01-06","time":"09:30"}`)
	created := decodeEvent(t, rec)

	if rec := call(t, e, http.MethodGet, "/api/v1/events/u1", "u2", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign list status = %d", rec.Code)
	}
	if rec := call(t, e, http.MethodDelete, "/api/v1/events/"+created.ID, "u2", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete status = %d", rec.Code)
	}
	if rec := call(t, e, http.MethodPost, "/api/v1/events", "u2", `{"userId":"u1","title":"Koi","date":"2025-01-06","time":"09:30"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("create for another user status = %d", rec.Code)
	}
}

func TestEventAPI_ExportICS(t *testing.T) {
	e := newTestAPI(t)
	call(t, e, http.MethodPost, "/api/v1/events", "u1", `{"title":"Koi","date":"2025-01-06","time":"09:30"}`)

	rec := call(t, e, http.MethodGet, "/api/v1/events/u1/ics", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VEVENT") || !strings.Contains(body, "SUMMARY:Koi") {
		t.Fatalf("unexpected calendar:\n%s", body)
	}
}

type stubEventService struct {
	events []*entities.Event
}

func (s *stubEventService) ListEvents(ctx context.Context, userID string) ([]*entities.Event, error) {
	return s.events, nil
}

func (s *stubEventService) CreateEvent(ctx context.Context, userID string, req ports.CreateEventRequest) (*entities.Event, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEventService) UpdateEvent(ctx context.Context, userID, id string, req ports.UpdateEventRequest) (*entities.Event, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEventService) DeleteEvent(ctx context.Context, userID, id string) error {
	return errors.New("not implemented")
}

func TestEventAPI_ExportFailureIsServerError(t *testing.T) {
	svc := &stubEventService{events: []*entities.Event{{ID: "e1", UserID: "u1", Title: "Koi", Date: "2025-01-06", Time: "09:30"}}}
	h := NewEventHandler(svc, time.UTC, logger.FromZap(zaptest.NewLogger(t)))
	h.writeCalendar = func(w io.Writer, events []entities.Event, opts ics.Options) error {
		_, _ = w.Write([]byte("BEGIN:VCALENDAR\r\n"))
		return errors.New("disk full")
	}

	e := echo.New()
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(UserContextKey, "u1")
			return next(c)
		}
	})
	RegisterEventRoutes(api, h)

	rec := call(t, e, http.MethodGet, "/api/v1/events/u1/ics", "u1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("export status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Fatalf("partial calendar leaked into the response: %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}
}
