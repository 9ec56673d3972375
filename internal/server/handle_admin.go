package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/codesheet"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/progress"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

const maxRouteDocument = 1 << 20

// RouteProblemsResponse is returned when an imported document is rejected.
type RouteProblemsResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// RouteImportResponse is returned after a route was activated.
type RouteImportResponse struct {
	Seasons []string  `json:"seasons"`
	Active  RouteInfo `json:"active"`
}

// AdminDevice is one entry of GET /api/admin/devices.
type AdminDevice struct {
	ID      string          `json:"id"`
	Open    bool            `json:"open"`
	State   engine.State    `json:"state"`
	Session *engine.Session `json:"session,omitempty"`
	Event   *engine.Event   `json:"event,omitempty"`
}

// deviceLister is implemented by progress backends that can enumerate
// devices.
type deviceLister interface {
	Devices(ctx context.Context) ([]string, error)
}

func handleAdminGetRoute(store *RouteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Get(r.Context())
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no route stored")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if r.URL.Query().Get("format") == "yaml" {
			var v any
			if err := yaml.Unmarshal(doc, &v); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			yaml.NewEncoder(w).Encode(v)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
	}
}

// handleAdminPutRoute validates a route document, stores it and activates it
// on every device. A rejected document leaves the active route untouched.
func handleAdminPutRoute(logger *slog.Logger, store *RouteStore, devices *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRouteDocument))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "route document too large")
			return
		}

		if isYAML(r.Header.Get("Content-Type")) {
			if body, err = route.YAMLToJSON(body); err != nil {
				writeJSON(w, http.StatusBadRequest, RouteProblemsResponse{Error: err.Error()})
				return
			}
		}

		def, err := route.Parse(body)
		if err != nil {
			resp := RouteProblemsResponse{Error: "route document rejected"}
			var malformed *route.MalformedRouteError
			if errors.As(err, &malformed) {
				resp.Problems = malformed.Problems
			} else {
				resp.Error = err.Error()
			}
			writeJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		if _, err := def.Active(devices.Season()); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, RouteProblemsResponse{Error: err.Error()})
			return
		}

		if err := store.Put(r.Context(), body); err != nil {
			logger.Error("storing route", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := devices.Activate(r.Context(), def); err != nil {
			logger.Error("activating route", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		rt := devices.Active().Route
		writeJSON(w, http.StatusOK, RouteImportResponse{
			Seasons: def.SeasonIDs(),
			Active: RouteInfo{
				AppName:     def.AppName,
				Season:      rt.Season,
				Title:       rt.Title,
				Intro:       rt.Intro.Text,
				Start:       rt.Intro.Start,
				Total:       rt.Len(),
				FinishTitle: rt.Finish.Title,
			},
		})
	}
}

func isYAML(contentType string) bool {
	mt, _, _ := mime.ParseMediaType(contentType)
	return slices.Contains([]string{"application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml"}, mt)
}

func handleAdminCodes(devices *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := devices.Active().Route
		if rt == nil {
			writeError(w, http.StatusServiceUnavailable, "no route loaded")
			return
		}
		writeJSON(w, http.StatusOK, codesheet.Codes(rt))
	}
}

func handleAdminCodesXLSX(logger *slog.Logger, devices *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := devices.Active().Route
		if rt == nil {
			writeError(w, http.StatusServiceUnavailable, "no route loaded")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="codes-`+rt.Season+`.xlsx"`)
		if err := codesheet.Write(w, rt); err != nil {
			logger.Error("writing code sheet", "error", err)
		}
	}
}

// handleAdminDevices lists open devices and, when the backend can enumerate
// them, devices with stored progress that have not connected since start.
// handleAdminDevices lists open devices, plus stored ones when the backend
// can enumerate them.
func handleAdminDevices(logger *slog.Logger, devices *Registry, backend progress.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := devices.IDs()
		open := make(map[string]bool, len(ids))
		for _, id := range ids {
			open[id] = true
		}
		if lister, ok := backend.(deviceLister); ok {
			stored, err := lister.Devices(r.Context())
			if err != nil {
				logger.Error("listing devices", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			for _, id := range stored {
				if !open[id] {
					ids = append(ids, id)
				}
			}
			slices.Sort(ids)
		}

		items := make([]AdminDevice, 0, len(ids))
		for _, id := range ids {
			item := AdminDevice{ID: id, Open: open[id], State: engine.Scanning}
			if item.Open {
				d, err := devices.Get(r.Context(), id)
				if err != nil {
					logger.Error("opening device", "device", id, "error", err)
					continue
				}
				ev := d.Engine.Snapshot()
				sess := d.Engine.Session()
				item.State = ev.State
				item.Event = &ev
				item.Session = &sess
			}
			items = append(items, item)
		}
		writeJSON(w, http.StatusOK, items)
	}
}
