package tenants_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_sync/internal/adapters/tenants"
	"hotel_sync/internal/domain"
)

const sample = `
tenants:
  - id: 2
    name: beta
    api_keys: [key-beta]
  - id: 1
    name: acme
    api_keys: [key-acme, key-acme-2]
    partner:
      base_url: https://sedna.example
      username: acme
      password: ${ACME_SEDNA_PASSWORD}
      operator_id: 571
      operator_code: ACME
`

func TestLoad(t *testing.T) {
	t.Setenv("ACME_SEDNA_PASSWORD", "s3cret")
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	reg, err := tenants.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, reg.IDs())

	id, ok := reg.TenantByKey("key-acme-2")
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	_, ok = reg.TenantByKey("nope")
	assert.False(t, ok)

	cfg, err := reg.PartnerConfig(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, int64(571), cfg.OperatorID)
	assert.Equal(t, "ACME", cfg.OperatorCode)

	_, err = reg.PartnerConfig(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = reg.PartnerConfig(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := tenants.New(tenants.Tenant{ID: 1}, tenants.Tenant{ID: 1})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = tenants.New(tenants.Tenant{ID: 1, APIKeys: []string{"k"}}, tenants.Tenant{ID: 2, APIKeys: []string{"k"}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = tenants.Parse([]byte("tenants: [oops"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
