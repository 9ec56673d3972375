package progress

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/database"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/migrations"
)

func newSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLite(db)
}

func TestSQLite(t *testing.T) {
	testBackend(t, newSQLite(t))
}

func TestSQLiteDevices(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	for _, dev := range []string{"tablet-2", "tablet-1", "tablet-2"} {
		if err := s.Set(ctx, dev, engine.SlotHintsUsed, "1"); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	got, err := s.Devices(ctx)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if !slices.Equal(got, []string{"tablet-1", "tablet-2"}) {
		t.Fatalf("unexpected devices %v", got)
	}
}
