package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

// SeedRoute stores the route file at path if no route is stored yet.
// Idempotent: does nothing once a document exists. A missing file is not an
// error; the server then runs without a route until one is imported.
func SeedRoute(ctx context.Context, logger *slog.Logger, store *RouteStore, path string) error {
	if _, err := store.Get(ctx); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	doc, err := route.ReadDocument(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("no route file to seed", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := route.Parse(doc); err != nil {
		return fmt.Errorf("seeding %s: %w", path, err)
	}
	if err := store.Put(ctx, doc); err != nil {
		return err
	}

	logger.Info("route seeded", "path", path)
	return nil
}

// LoadStored activates the stored route document on every device. Any
// failure leaves the registry without a route and is returned.
func LoadStored(ctx context.Context, store *RouteStore, registry *Registry) error {
	doc, err := store.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("no route stored: %w", err)
	}
	if err != nil {
		registry.Fail(ctx, err)
		return err
	}
	def, err := route.Parse(doc)
	if err != nil {
		registry.Fail(ctx, err)
		return err
	}
	return registry.Activate(ctx, def)
}
