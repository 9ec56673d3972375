package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

// ScanRequest is the request body for POST /api/devices/{device}/scan.
type ScanRequest struct {
	Code string `json:"code"`
}

// SubmitRequest is the request body for POST /api/devices/{device}/submit.
type SubmitRequest struct {
	Answer string `json:"answer"`
}

// DeviceStateResponse is the response for GET /api/devices/{device}/state.
type DeviceStateResponse struct {
	Device  string         `json:"device"`
	Event   engine.Event   `json:"event"`
	Session engine.Session `json:"session"`
	Scanner bool           `json:"scanner"`
}

func handleDeviceState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := deviceFrom(r)
		writeJSON(w, http.StatusOK, DeviceStateResponse{
			Device:  d.ID,
			Event:   d.Engine.Snapshot(),
			Session: d.Engine.Session(),
			Scanner: d.Feed.Running(),
		})
	}
}

func handleScan(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ev, err := deviceFrom(r).Engine.Scan(r.Context(), req.Code)
		writeAction(w, logger, ev, err)
	}
}

func handleSubmit(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ev, err := deviceFrom(r).Engine.Submit(r.Context(), req.Answer)
		writeAction(w, logger, ev, err)
	}
}

// handleAction serves the operations that take no body.
func handleAction(logger *slog.Logger, op func(*engine.Engine, context.Context) (engine.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := op(deviceFrom(r).Engine, r.Context())
		writeAction(w, logger, ev, err)
	}
}
