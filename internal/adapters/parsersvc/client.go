// Package parsersvc triggers the parsing collaborator over HTTP.
package parsersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotel_sync/internal/adapters/observability"
	"hotel_sync/internal/domain"
)

// Client asks the parser service to extract and commit the record behind a
// source item. The call returns once the record is committed.
type Client struct {
	base string
	hc   *http.Client
}

var _ domain.Parser = (*Client)(nil)

func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: &http.Client{Timeout: timeout}}
}

type problem struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

func (c *Client) Parse(ctx context.Context, tenantID, sourceID int64) error {
	url := c.base + "/v1/items/" + strconv.FormatInt(sourceID, 10) + "/parse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", strconv.FormatInt(tenantID, 10))

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("parser", "parse", 0, time.Since(start))
		return domain.Transportf("parser: %v", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("parser", "parse", resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 == 2 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(b))
	var p problem
	if json.Unmarshal(b, &p) == nil {
		if p.Detail != "" {
			msg = p.Detail
		} else if p.Title != "" {
			msg = p.Title
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.NotFoundf("source item %d", sourceID)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return domain.Validationf("source item %d: %s", sourceID, msg)
	default:
		return fmt.Errorf("%w: parser status %d: %s", domain.ErrTransport, resp.StatusCode, msg)
	}
}
