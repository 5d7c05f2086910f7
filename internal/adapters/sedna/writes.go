package sedna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"hotel_sync/internal/domain"
)

// apiResult is the partner's standard answer; ErrorType 0 means success.
type apiResult struct {
	ErrorType int     `json:"ErrorType"`
	Message   *string `json:"Message"`
	RecID     *int64  `json:"RecId"`
}

// InsertReservation is not retried: the partner call is not idempotent.
func (c *Client) InsertReservation(ctx context.Context, cfg domain.PartnerConfig, r domain.PartnerReservation) (int64, error) {
	q := credentials(cfg)
	if r.Voucher != "" {
		q.Set("voucherNo", r.Voucher)
	}
	b, err := c.send(ctx, call{
		endpoint: "InsertReservation",
		method:   http.MethodPost,
		url:      endpointURL(cfg, "/api/Reservation/InsertReservation", q),
		body:     []domain.PartnerReservation{r},
	})
	if err != nil {
		return 0, err
	}
	return recordID("InsertReservation", b)
}

// SaveStopSale creates (RecID 0) or updates (RecID set) a stop sale.
func (c *Client) SaveStopSale(ctx context.Context, cfg domain.PartnerConfig, s domain.PartnerStopSale) (int64, error) {
	b, err := c.send(ctx, call{
		endpoint: "SaveStopSale",
		method:   http.MethodPost,
		url:      endpointURL(cfg, "/api/Integratiion/SaveStopSale", credentials(cfg)),
		body:     s,
	})
	if err != nil {
		return 0, err
	}
	return recordID("SaveStopSale", b)
}

// recordID interprets the partner answer, which may come wrapped in a list.
func recordID(endpoint string, b []byte) (int64, error) {
	b = bytes.TrimSpace(b)
	var res apiResult
	if len(b) > 0 && b[0] == '[' {
		var list []apiResult
		if err := json.Unmarshal(b, &list); err != nil {
			return 0, fmt.Errorf("%w: %s: decode: %w", domain.ErrTransport, endpoint, err)
		}
		if len(list) == 0 {
			return 0, fmt.Errorf("%w: %s: empty response", domain.ErrTransport, endpoint)
		}
		res = list[0]
	} else if err := json.Unmarshal(b, &res); err != nil {
		return 0, fmt.Errorf("%w: %s: decode: %w", domain.ErrTransport, endpoint, err)
	}

	if res.ErrorType != 0 {
		msg := ""
		if res.Message != nil {
			msg = *res.Message
		}
		return 0, &domain.PartnerRejectedError{Code: res.ErrorType, Message: msg}
	}
	if res.RecID == nil || *res.RecID == 0 {
		return 0, fmt.Errorf("%w: %s accepted without RecId", domain.ErrPartnerRejected, endpoint)
	}
	return *res.RecID, nil
}
