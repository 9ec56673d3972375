package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey int

const (
	ctxKeyDevice ctxKey = iota
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func deviceMiddleware(devices *Registry, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "device")
			if !deviceIDPattern.MatchString(id) {
				writeError(w, http.StatusBadRequest, "invalid device id")
				return
			}

			d, err := devices.Get(r.Context(), id)
			if err != nil {
				logger.Error("opening device", "device", id, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyDevice, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deviceFrom(r *http.Request) *Device {
	return r.Context().Value(ctxKeyDevice).(*Device)
}

// adminAuthMiddleware checks HTTP basic credentials against the configured
// user and bcrypt hash.
func adminAuthMiddleware(user string, passwordHash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if ok {
				userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
				passOK := bcrypt.CompareHashAndPassword(passwordHash, []byte(p)) == nil
				ok = userOK && passOK
			}
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="quest admin", charset="UTF-8"`)
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// streamScope ends the request context when streams is done, so long-lived
// handlers return on shutdown instead of holding the drain open.
func streamScope(streams context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithCancel(r.Context())
			defer cancel()
			stop := context.AfterFunc(streams, cancel)
			defer stop()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
