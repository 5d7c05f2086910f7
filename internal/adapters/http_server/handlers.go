// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_sync/internal/app"
	"hotel_sync/internal/domain"
	"hotel_sync/internal/hotels"
	"hotel_sync/internal/refdata"
)

type Handlers struct {
	Sync    *app.SyncService
	Queries *app.QueryService
	Hotels  *hotels.Resolver
	Refs    *refdata.Cache
	Creds   domain.CredentialProvider
	Keys    KeyResolver
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Use(Auth(h.Keys))

		// server-sent events; no request timeout
		r.Get("/sync/runs/{token}/progress", h.streamProgress)

		r.Group(func(r chi.Router) {
			r.Use(Timeout(s.timeout))

			r.Post("/sync/runs", h.startRun)
			r.Get("/sync/runs", h.listRuns)
			r.Get("/sync/runs/{token}/result", h.runResult)
			r.Post("/sync/runs/{token}/retry", h.retryRun)

			r.Get("/hotels/search", h.searchHotels)
			r.Get("/hotels/mappings", h.listMappings)
			r.Post("/hotels/mappings", h.learnMapping)
			r.Delete("/hotels/mappings/{name}", h.forgetMapping)

			r.Get("/refdata/stats", h.refStats)
			r.Delete("/refdata/cache", h.clearRefs)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps error kinds onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrResolution), errors.Is(err, domain.ErrConfiguration):
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrPartnerRejected), errors.Is(err, domain.ErrNoDirectory):
		writeProblem(w, http.StatusBadGateway, "Partner unavailable", err.Error())
	case errors.Is(err, app.ErrShuttingDown):
		writeProblem(w, http.StatusServiceUnavailable, "Shutting down", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled request error")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// queryInt reads an optional positive integer; ok is false on garbage.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
