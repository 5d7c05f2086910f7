package httpserver_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "hotel_sync/internal/adapters/http_server"
	"hotel_sync/internal/adapters/tenants"
	"hotel_sync/internal/app"
	"hotel_sync/internal/domain"
	"hotel_sync/internal/hotels"
	"hotel_sync/internal/refdata"
	"hotel_sync/internal/storage/memory"
)

const apiKey = "key-acme"

type fakePartner struct{}

func (fakePartner) RoomTypes(ctx context.Context, cfg domain.PartnerConfig) ([]domain.RefCode, error) {
	return []domain.RefCode{{Code: "DBL", ID: 12}}, nil
}
func (fakePartner) Boards(ctx context.Context, cfg domain.PartnerConfig) ([]domain.RefCode, error) {
	return []domain.RefCode{{Code: "AI", ID: 3}}, nil
}
func (fakePartner) Hotels(ctx context.Context, cfg domain.PartnerConfig) ([]domain.PartnerHotel, error) {
	return []domain.PartnerHotel{{ID: 301, Name: "Grand Palace Antalya"}, {ID: 302, Name: "Sea View Hotel"}}, nil
}
func (fakePartner) InsertReservation(ctx context.Context, cfg domain.PartnerConfig, r domain.PartnerReservation) (int64, error) {
	return 5001, nil
}
func (fakePartner) SaveStopSale(ctx context.Context, cfg domain.PartnerConfig, s domain.PartnerStopSale) (int64, error) {
	return 6001, nil
}

type env struct {
	srv   *httptest.Server
	store *memory.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	reg, err := tenants.New(tenants.Tenant{
		ID:      1,
		APIKeys: []string{apiKey},
		Partner: domain.PartnerConfig{BaseURL: "http://partner", Username: "acme", OperatorID: 571},
	})
	require.NoError(t, err)

	st := memory.New()
	log := zerolog.Nop()
	p := fakePartner{}
	refs := refdata.New(p, time.Hour, log)
	resolver := hotels.NewResolver(p, st, nil, time.Hour, log)
	writer := app.NewPartnerWriter(st, p, resolver, refs, log)
	sup := app.NewSupervisor(0, log)
	t.Cleanup(func() { _ = sup.Shutdown(context.Background()) })

	s := httpserver.New(5 * time.Second)
	s.MountHandlers(&httpserver.Handlers{
		Sync:    app.NewSyncService(st, st, st, reg, writer, app.NewProgressHub(), sup, app.SyncOptions{}, log),
		Queries: app.NewQueryService(st, nil, time.Minute),
		Hotels:  resolver,
		Refs:    refs,
		Creds:   reg,
		Keys:    reg,
	})
	srv := httptest.NewServer(s.Mux())
	t.Cleanup(srv.Close)
	return &env{srv: srv, store: st}
}

func (e *env) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.srv.URL + "/v1/sync/runs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartRun_InvalidBatch(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodPost, "/v1/sync/runs", `{"item_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "between 1 and 100")
	assert.Zero(t, e.store.RunCount())
}

func TestRunLifecycle_ProgressAndResult(t *testing.T) {
	e := newEnv(t)
	e.store.PutSource(1, domain.SourceInfo{SourceID: 7, Kind: domain.ItemReservation, Parsed: true})
	e.store.PutReservation(domain.Reservation{
		ID: 70, TenantID: 1, SourceID: 7, HotelName: "Grand Palace Antalya",
		CheckIn: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
		Adults: 2, RoomCode: "DBL", BoardCode: "AI", VoucherNo: "V-7",
		Guests: []domain.Guest{{Title: "Mr", FirstName: "Jon", LastName: "Doe"}},
	})

	resp, body := e.do(t, http.MethodPost, "/v1/sync/runs", `{"item_ids":[7,404]}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	var accepted struct {
		Token string `json:"run_token"`
		Total int    `json:"total_items"`
	}
	require.NoError(t, json.Unmarshal(body, &accepted))
	assert.Equal(t, 2, accepted.Total)

	// EventSource clients pass the key as a query parameter
	sse, err := http.Get(e.srv.URL + "/v1/sync/runs/" + accepted.Token + "/progress?token=" + apiKey)
	require.NoError(t, err)
	defer sse.Body.Close()
	assert.Equal(t, "text/event-stream", sse.Header.Get("Content-Type"))

	var events []domain.ProgressEvent
	sc := bufio.NewScanner(sse.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, domain.EventComplete, last.Type)
	assert.Equal(t, 1, last.Summary.Successful)
	assert.Equal(t, 1, last.Summary.Failed)

	resp, body = e.do(t, http.MethodGet, "/v1/sync/runs/"+accepted.Token+"/result", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result domain.RunResult
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Successful, 1)
	assert.Equal(t, int64(5001), *result.Successful[0].PartnerID)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, int64(404), result.Failed[0].SourceID)

	resp, _ = e.do(t, http.MethodGet, "/v1/sync/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/v1/sync/runs?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/v1/sync/runs/"+accepted.Token+"/retry", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/v1/sync/runs/unknown/result", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHotelSearchAndMappings(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/v1/hotels/search?q=Grand+Palace+Antalya", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res domain.HotelResolution
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.Exact)
	assert.Equal(t, int64(301), res.Exact.ID)

	resp, _ = e.do(t, http.MethodGet, "/v1/hotels/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/v1/hotels/mappings", `{"hotel_name":"Seaview Htl","partner_hotel_id":302}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body = e.do(t, http.MethodGet, "/v1/hotels/mappings", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"partner_hotel_id":302`)

	resp, _ = e.do(t, http.MethodDelete, "/v1/hotels/mappings/Seaview%20Htl", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = e.do(t, http.MethodDelete, "/v1/hotels/mappings/Seaview%20Htl", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/v1/hotels/mappings", `{"hotel_name":"","partner_hotel_id":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefStats(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/v1/refdata/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"cache_ttl_hours":1`)

	resp, _ = e.do(t, http.MethodDelete, "/v1/refdata/cache", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
