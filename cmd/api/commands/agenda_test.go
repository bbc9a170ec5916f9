package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/inkbook/studio/internal/adapters/eventstore"
	"github.com/inkbook/studio/internal/application/services"
	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/config"
	"github.com/inkbook/studio/internal/infrastructure/database"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/infrastructure/server"
)

// startStore runs an Event Store over in-memory sqlite and points the
// agenda configuration at it.
func startStore(t *testing.T) *eventstore.Client {
	t.Helper()

	jwtCfg := config.JWTConfig{Secret: "s3cret", Issuer: "inkbook-identity", ExpiresIn: time.Hour}
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"},
		JWT:      jwtCfg,
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Agenda:   config.AgendaConfig{Timezone: "UTC", Timeout: time.Second},
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}

	srv, err := server.New(cfg, db, nil, logger.FromZap(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	token, err := services.NewTokenService(jwtCfg).IssueToken("artist-1", 0)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	t.Setenv("AGENDA_STORE_URL", ts.URL+"/api/v1")
	t.Setenv("AGENDA_TOKEN", token)
	t.Setenv("AGENDA_USER_ID", "artist-1")
	t.Setenv("AGENDA_TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")

	client, err := eventstore.NewClient(ts.URL+"/api/v1", token, time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func onlyEvent(t *testing.T, client *eventstore.Client) entities.Event {
	t.Helper()
	events, err := client.List(context.Background(), "artist-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %+v", events)
	}
	return events[0]
}

func TestAgendaCommands(t *testing.T) {
	client := startStore(t)

	out, err := run(t, "", "agenda", "add", "--title", "Koi sleeve", "--date", "2025-01-06", "--time", "09:30")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if !strings.Contains(out, `Appointment "Koi sleeve" booked for 2025-01-06 at 09:30`) {
		t.Fatalf("unexpected add output: %s", out)
	}
	ev := onlyEvent(t, client)

	out, err = run(t, "", "agenda", "week", "--date", "2025-01-08", "--plain")
	if err != nil {
		t.Fatalf("week: %v\n%s", err, out)
	}
	if !strings.Contains(out, "09:30 Koi sleeve") || !strings.Contains(out, "Mon 06 Jan") {
		t.Fatalf("unexpected week output:\n%s", out)
	}

	out, err = run(t, "", "agenda", "move", ev.ID, "slot-2025-01-07-10:00")
	if err != nil {
		t.Fatalf("move: %v\n%s", err, out)
	}
	if !strings.Contains(out, "moved to 2025-01-07 at 10:00") {
		t.Fatalf("unexpected move output: %s", out)
	}
	if moved := onlyEvent(t, client); moved.Date != "2025-01-07" || moved.Time != "10:00" || moved.Version != ev.Version+1 {
		t.Fatalf("move not stored: %+v", moved)
	}

	out, err = run(t, "", "agenda", "move", ev.ID, "slot-2025-01-07")
	if err != nil || !strings.Contains(out, "Nothing moved") {
		t.Fatalf("malformed key should be ignored: %v\n%s", err, out)
	}

	out, err = run(t, "", "agenda", "edit", ev.ID, "--title", "Koi half sleeve")
	if err != nil {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	if edited := onlyEvent(t, client); edited.Title != "Koi half sleeve" || edited.Date != "2025-01-07" {
		t.Fatalf("edit not stored: %+v", edited)
	}

	out, err = run(t, "", "agenda", "export")
	if err != nil || !strings.Contains(out, "SUMMARY:Koi half sleeve") {
		t.Fatalf("export: %v\n%s", err, out)
	}

	out, err = run(t, "n\n", "agenda", "delete", ev.ID)
	if err != nil || !strings.Contains(out, "Cancelled") {
		t.Fatalf("declined delete: %v\n%s", err, out)
	}
	onlyEvent(t, client)

	out, err = run(t, "", "agenda", "delete", ev.ID, "--yes", "--stats")
	if err != nil {
		t.Fatalf("delete: %v\n%s", err, out)
	}
	if !strings.Contains(out, `Appointment "Koi half sleeve" deleted`) || !strings.Contains(out, "delete/success") {
		t.Fatalf("unexpected delete output: %s", out)
	}
	events, _ := client.List(context.Background(), "artist-1")
	if len(events) != 0 {
		t.Fatalf("event not deleted: %+v", events)
	}
}

func TestAgendaAdd_RejectsOffGrid(t *testing.T) {
	client := startStore(t)

	if _, err := run(t, "", "agenda", "add", "--title", "Late", "--date", "2025-01-06", "--time", "19:00"); err == nil {
		t.Fatal("expected validation error")
	}
	events, _ := client.List(context.Background(), "artist-1")
	if len(events) != 0 {
		t.Fatalf("nothing should be stored: %+v", events)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil || !strings.Contains(out, "InkBook studio") {
		t.Fatalf("version: %v %q", err, out)
	}
}
