package server

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/handler/health"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/progress"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Registry *Registry
	Routes   *RouteStore
	Broker   *Broker
	Progress progress.Backend
	Checks   map[string]health.Checker

	// AdminUser and AdminPasswordHash guard /api/admin. Without a hash the
	// admin routes are not mounted.
	AdminUser         string
	AdminPasswordHash string
}

// streams is cancelled when the server shuts down; long-lived event
// connections end with it.
func addRoutes(r chi.Router, logger *slog.Logger, streams context.Context, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Speurtocht API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	r.Get("/api/route", handleRouteInfo(deps.Registry))

	// Device routes: {device} resolved by deviceMiddleware.
	r.Route("/api/devices/{device}", func(r chi.Router) {
		r.Use(deviceMiddleware(deps.Registry, logger))
		r.Get("/state", handleDeviceState())
		r.Post("/scan", handleScan(logger))
		r.Post("/submit", handleSubmit(logger))
		r.Post("/hint", handleAction(logger, (*engine.Engine).RequestHint))
		r.Post("/puzzle-scan", handleAction(logger, (*engine.Engine).RequestPuzzleScan))
		r.Post("/continue", handleAction(logger, (*engine.Engine).AcknowledgeNavigation))
		r.Post("/reset", handleAction(logger, (*engine.Engine).Reset))
		r.With(streamScope(streams)).Get("/events", handleEvents(deps.Broker))
		r.With(streamScope(streams)).Get("/ws", handleWS(logger, deps.Broker))
	})

	if deps.AdminPasswordHash == "" {
		logger.Warn("admin routes disabled: no password hash configured")
		return
	}
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.AdminUser, []byte(deps.AdminPasswordHash)))
		r.Get("/route", handleAdminGetRoute(deps.Routes))
		r.Put("/route", handleAdminPutRoute(logger, deps.Routes, deps.Registry))
		r.Get("/codes", handleAdminCodes(deps.Registry))
		r.Get("/codes.xlsx", handleAdminCodesXLSX(logger, deps.Registry))
		r.Get("/devices", handleAdminDevices(logger, deps.Registry, deps.Progress))
	})
}
