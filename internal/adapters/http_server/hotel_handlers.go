package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hotel_sync/internal/hotels"
)

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "q is required")
		return
	}
	limit, ok := queryInt(r, "limit", hotels.DefaultLimit)
	if !ok || limit > 50 {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 50")
		return
	}
	minScore := float64(hotels.DefaultMinScore)
	if s := r.URL.Query().Get("min_score"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || v > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid min_score", "min_score must be between 0 and 100")
			return
		}
		minScore = v
	}

	tenantID := tenantOf(r)
	cfg, err := h.Creds.PartnerConfig(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Hotels.Resolve(r.Context(), tenantID, cfg, q, hotels.SearchOptions{Limit: limit, MinScore: minScore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type mappingRequest struct {
	HotelName        string `json:"hotel_name"`
	PartnerHotelID   int64  `json:"partner_hotel_id"`
	PartnerHotelName string `json:"partner_hotel_name"`
}

func (h *Handlers) learnMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected hotel_name and partner_hotel_id")
		return
	}
	m, err := h.Hotels.Learn(r.Context(), tenantOf(r), req.HotelName, req.PartnerHotelID, req.PartnerHotelName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) listMappings(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 100)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
		return
	}
	ms, err := h.Hotels.Mappings(r.Context(), tenantOf(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": ms})
}

func (h *Handlers) forgetMapping(w http.ResponseWriter, r *http.Request) {
	if err := h.Hotels.Forget(r.Context(), tenantOf(r), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) refStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Refs.Stats(tenantOf(r)))
}

func (h *Handlers) clearRefs(w http.ResponseWriter, r *http.Request) {
	h.Refs.Clear(r.Context(), tenantOf(r))
	w.WriteHeader(http.StatusNoContent)
}
