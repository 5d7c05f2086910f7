package domain

import "time"

// PartnerHotel is one entry of the partner's hotel directory.
type PartnerHotel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RefCode maps a partner reference code (room type, board) to its id.
type RefCode struct {
	Code string
	ID   int64
}

// HotelMapping is a learned (tenant, normalized name) -> partner hotel link.
type HotelMapping struct {
	TenantID         int64     `json:"-"`
	OriginalName     string    `json:"hotel_name"`
	NormalizedName   string    `json:"normalized_name"`
	PartnerHotelID   int64     `json:"partner_hotel_id"`
	PartnerHotelName string    `json:"partner_hotel_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type HotelCandidate struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"similarity"`
}

// HotelResolution is the answer to a hotel name lookup.
type HotelResolution struct {
	Query       string           `json:"query"`
	Normalized  string           `json:"query_normalized"`
	Exact       *HotelCandidate  `json:"exact_match,omitempty"`
	Suggestions []HotelCandidate `json:"suggestions"`
	FromMapping bool             `json:"from_mapping"`
	Cached      bool             `json:"cached"`
	Degraded    bool             `json:"degraded"`
}
