package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ActionResponse is returned by every device action. Event is set whenever
// the engine produced one, including for rejected actions.
type ActionResponse struct {
	Event *engine.Event `json:"event,omitempty"`
	Error string        `json:"error,omitempty"`
	Code  string        `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeAction replies with the outcome of an engine operation.
func writeAction(w http.ResponseWriter, logger *slog.Logger, ev engine.Event, err error) {
	var resp ActionResponse
	if ev.Kind != "" {
		resp.Event = &ev
	}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	status, code := engineStatus(err)
	resp.Code = code
	resp.Error = err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("device action failed", "error", err)
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

// engineStatus maps engine errors to an HTTP status and a stable code.
func engineStatus(err error) (int, string) {
	var (
		unknown   *engine.UnrecognizedCodeError
		order     *engine.OutOfOrderError
		mismatch  *engine.PuzzleMismatchError
		exhausted *engine.AttemptsExhaustedError
	)
	switch {
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity, "unrecognized_code"
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, "puzzle_mismatch"
	case errors.As(err, &order):
		return http.StatusConflict, "out_of_order"
	case errors.As(err, &exhausted):
		return http.StatusLocked, "attempts_exhausted"
	case errors.Is(err, engine.ErrScanIgnored):
		return http.StatusConflict, "scan_ignored"
	case errors.Is(err, engine.ErrPuzzleNeedsScan):
		return http.StatusConflict, "puzzle_needs_scan"
	case errors.Is(err, engine.ErrUnexpectedEvent):
		return http.StatusConflict, "unexpected_event"
	case errors.Is(err, engine.ErrNoRoute):
		return http.StatusServiceUnavailable, "no_route"
	case errors.Is(err, engine.ErrNoHint):
		return http.StatusNotFound, "no_hint"
	}
	return http.StatusInternalServerError, "internal"
}
