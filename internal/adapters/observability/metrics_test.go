package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_sync/internal/adapters/observability"
	"hotel_sync/internal/domain"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("sedna", "InsertReservation", 200, 40*time.Millisecond)
	observability.ObserveItem(domain.ItemResult{SourceID: 1, Type: domain.ItemReservation, Err: domain.ErrTransport})

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	assert.Contains(t, out, "hotel_sync_http_requests_total")
	assert.Contains(t, out, "hotel_sync_partner_requests_total")
	assert.True(t, strings.Contains(out, `error="transport"`), "expected transport label in sync_items_total")
}

func TestLabelErr(t *testing.T) {
	assert.Equal(t, "none", observability.LabelErr(nil))
	assert.Equal(t, "validation", observability.LabelErr(domain.Validationf("bad")))
	assert.Equal(t, "partner_rejected", observability.LabelErr(&domain.PartnerRejectedError{Code: 3}))
	assert.Equal(t, "internal", observability.LabelErr(errors.New("boom")))
}
