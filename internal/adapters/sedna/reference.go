package sedna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotel_sync/internal/domain"
)

// Directory endpoints, tried in order.
var hotelEndpoints = []string{
	"/api/Shop/GetHotels",
	"/api/Integratiion/GetHotelList",
	"/api/Service2/GetHotelList",
}

func (c *Client) RoomTypes(ctx context.Context, cfg domain.PartnerConfig) ([]domain.RefCode, error) {
	q := url.Values{}
	q.Set("operatorId", strconv.FormatInt(cfg.OperatorID, 10))
	b, err := c.send(ctx, call{
		endpoint:   "GetRoomTypeList",
		method:     http.MethodPost,
		url:        endpointURL(cfg, "/api/Integratiion/GetRoomTypeList", q),
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	items, err := decodeList(b)
	if err != nil {
		return nil, fmt.Errorf("%w: GetRoomTypeList: %w", domain.ErrTransport, err)
	}
	return refCodes(items, "RoomTypeId", "roomTypeId", "Id", "id"), nil
}

func (c *Client) Boards(ctx context.Context, cfg domain.PartnerConfig) ([]domain.RefCode, error) {
	b, err := c.send(ctx, call{
		endpoint:   "GetBoardList",
		method:     http.MethodGet,
		url:        endpointURL(cfg, "/api/Service2/GetBoardList", nil),
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	items, err := decodeList(b)
	if err != nil {
		return nil, fmt.Errorf("%w: GetBoardList: %w", domain.ErrTransport, err)
	}
	return refCodes(items, "BoardId", "boardId", "Id", "id"), nil
}

// Hotels returns the tenant's hotel directory. Endpoints answering 404 or an
// empty list are skipped; when none answers, ErrNoDirectory is returned.
func (c *Client) Hotels(ctx context.Context, cfg domain.PartnerConfig) ([]domain.PartnerHotel, error) {
	for _, path := range hotelEndpoints {
		b, err := c.send(ctx, call{
			endpoint:   path[strings.LastIndex(path, "/")+1:],
			method:     http.MethodGet,
			url:        endpointURL(cfg, path, credentials(cfg)),
			idempotent: true,
		})
		if err != nil {
			if isStatus(err, http.StatusNotFound) || isStatus(err, http.StatusMethodNotAllowed) {
				continue // try next pattern
			}
			return nil, err // non-404: stop early
		}
		items, err := decodeList(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrTransport, path, err)
		}
		hotels := make([]domain.PartnerHotel, 0, len(items))
		for _, it := range items {
			id, ok := intField(it, "RecId", "recId", "Id", "id")
			name := strField(it, "Name", "name")
			if !ok || name == "" {
				continue
			}
			hotels = append(hotels, domain.PartnerHotel{ID: id, Name: name})
		}
		if len(hotels) > 0 {
			return hotels, nil
		}
	}
	return nil, domain.ErrNoDirectory
}

// decodeList accepts either a bare JSON array or an object wrapping it in "Data".
func decodeList(b []byte) ([]map[string]any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	dec := func(raw []byte) ([]map[string]any, error) {
		var out []map[string]any
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		if err := d.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
	if b[0] == '[' {
		return dec(b)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, err
	}
	for _, k := range []string{"Data", "data"} {
		if raw, ok := wrapped[k]; ok && len(raw) > 0 && string(raw) != "null" {
			return dec(raw)
		}
	}
	return nil, nil
}

func refCodes(items []map[string]any, idKeys ...string) []domain.RefCode {
	out := make([]domain.RefCode, 0, len(items))
	for _, it := range items {
		code := strings.ToUpper(strings.TrimSpace(strField(it, "Code", "code")))
		id, ok := intField(it, idKeys...)
		if code == "" || !ok || id == 0 {
			continue
		}
		out = append(out, domain.RefCode{Code: code, ID: id})
	}
	return out
}

func strField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(m map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, true
			}
		case float64:
			return int64(v), true
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
