package database

import (
	"context"
	"testing"

	"github.com/inkbook/studio/internal/infrastructure/config"
)

func TestSQLite_EnsureSchema(t *testing.T) {
	db, err := New(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := db.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema() run %d error = %v", i, err)
		}
	}

	var n int
	if err := db.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM events`); err != nil {
		t.Fatalf("events table missing: %v", err)
	}
	if err := db.HealthCheck(); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if got := db.GetConnectionInfo()["driver"]; got != "sqlite" {
		t.Fatalf("driver = %v", got)
	}
}
