package parsersvc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"hotel_sync/internal/adapters/parsersvc"
	"hotel_sync/internal/domain"
)

func TestParse(t *testing.T) {
	var gotPath, gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotTenant = r.URL.Path, r.Header.Get("X-Tenant-ID")
		switch r.URL.Path {
		case "/v1/items/7/parse":
			w.WriteHeader(http.StatusNoContent)
		case "/v1/items/8/parse":
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"title":"Unprocessable","detail":"no check-in date found"}`))
		case "/v1/items/9/parse":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := parsersvc.New(srv.URL+"/", 0)
	ctx := context.Background()

	assert.NoError(t, c.Parse(ctx, 3, 7))
	assert.Equal(t, "/v1/items/7/parse", gotPath)
	assert.Equal(t, "3", gotTenant)

	err := c.Parse(ctx, 3, 8)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "no check-in date found")

	assert.ErrorIs(t, c.Parse(ctx, 3, 9), domain.ErrTransport)
	assert.ErrorIs(t, c.Parse(ctx, 3, 10), domain.ErrNotFound)
}
