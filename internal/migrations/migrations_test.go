package migrations_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/database"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/migrations"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, quietLogger()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	// Verify all tables exist by querying sqlite_master.
	want := []string{"route_documents", "progress_slots"}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if v, err := migrations.Version(ctx, db); err != nil || v != 0 {
		t.Fatalf("fresh database: version %d, err %v", v, err)
	}
	if err := migrations.Run(ctx, db, quietLogger()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := migrations.Version(ctx, db)
	if err != nil || first != 1 {
		t.Fatalf("after first run: version %d, err %v", first, err)
	}
	if err := migrations.Run(ctx, db, quietLogger()); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
	if second, err := migrations.Version(ctx, db); err != nil || second != first {
		t.Fatalf("second run changed version %d -> %d (err %v)", first, second, err)
	}
}
