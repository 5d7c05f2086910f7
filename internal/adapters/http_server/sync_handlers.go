package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_sync/internal/app"
	"hotel_sync/internal/domain"
)

type startRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

type runAccepted struct {
	Token  string           `json:"run_token"`
	Status domain.RunStatus `json:"status"`
	Total  int              `json:"total_items"`
}

func (h *Handlers) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"item_ids\": [...]}")
		return
	}
	run, err := h.Sync.Start(r.Context(), tenantOf(r), req.ItemIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runAccepted{Token: run.Token, Status: run.Status, Total: run.Total})
}

func (h *Handlers) retryRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Sync.RetryFailed(r.Context(), tenantOf(r), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runAccepted{Token: run.Token, Status: run.Status, Total: run.Total})
}

func (h *Handlers) runResult(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.Result(r.Context(), tenantOf(r), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", app.DefaultHistoryLimit)
	if !ok || limit > app.MaxHistoryLimit {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit must be an integer between 1 and %d", app.MaxHistoryLimit))
		return
	}
	runs, err := h.Queries.History(r.Context(), tenantOf(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// streamProgress relays the run's events as server-sent events. Disconnecting
// does not stop the run.
func (h *Handlers) streamProgress(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	token := chi.URLParam(r, "token")
	err := h.Sync.StreamProgress(r.Context(), tenantOf(r), token, func(ev domain.ProgressEvent) error {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil && r.Context().Err() == nil {
		log.Warn().Err(err).Str("run", token).Msg("progress stream ended early")
	}
}
