package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/config"
	"github.com/inkbook/studio/internal/infrastructure/database"
	"github.com/inkbook/studio/internal/ports"
)

func newTestRepo(t *testing.T) ports.EventRepository {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewEventRepository(db.DB)
}

func TestEventRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	late := &entities.Event{UserID: "u1", Title: "Sleeve session", Date: "2025-01-07", Time: "14:00"}
	early := &entities.Event{UserID: "u1", Title: "Consult", Date: "2025-01-06", Time: "09:30"}
	other := &entities.Event{UserID: "u2", Title: "Flash", Date: "2025-01-06", Time: "10:00"}
	for _, e := range []*entities.Event{late, early, other} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if e.ID == "" || e.Version != 1 {
			t.Fatalf("create did not assign id/version: %+v", e)
		}
	}

	events, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(events) != 2 || events[0].ID != early.ID || events[1].ID != late.ID {
		t.Fatalf("unexpected list order: %+v", events)
	}

	got, err := repo.GetByID(ctx, early.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Consult" || got.Date != "2025-01-06" || got.Time != "09:30" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestEventRepository_UpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e := &entities.Event{UserID: "u1", Title: "Koi", Date: "2025-01-06", Time: "09:00"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatal(err)
	}

	moved := *e
	moved.Date, moved.Time = "2025-01-07", "10:00"
	if err := repo.Update(ctx, &moved, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if moved.Version != 2 {
		t.Fatalf("version = %d, want 2", moved.Version)
	}

	stale := *e
	stale.Time = "11:00"
	if err := repo.Update(ctx, &stale, 1); !errors.Is(err, entities.ErrVersionConflict) {
		t.Fatalf("stale update err = %v, want ErrVersionConflict", err)
	}

	missing := entities.Event{ID: "nope", Title: "x", Date: "2025-01-06", Time: "09:00"}
	if err := repo.Update(ctx, &missing, 1); !errors.Is(err, entities.ErrEventNotFound) {
		t.Fatalf("missing update err = %v, want ErrEventNotFound", err)
	}

	got, _ := repo.GetByID(ctx, e.ID)
	if got.Date != "2025-01-07" || got.Time != "10:00" || got.Version != 2 {
		t.Fatalf("stored record %+v", got)
	}
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e := &entities.Event{UserID: "u1", Title: "Koi", Date: "2025-01-06", Time: "09:00"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, e.ID); !errors.Is(err, entities.ErrEventNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := repo.GetByID(ctx, e.ID); !errors.Is(err, entities.ErrEventNotFound) {
		t.Fatalf("GetByID after delete err = %v", err)
	}
}
