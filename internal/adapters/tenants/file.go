// Package tenants reads the tenants file: per-tenant partner credentials and
// API keys. It stands in for the tenant-settings collaborator.
package tenants

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"hotel_sync/internal/domain"
)

type Tenant struct {
	ID      int64                `yaml:"id"`
	Name    string               `yaml:"name"`
	APIKeys []string             `yaml:"api_keys"`
	Partner domain.PartnerConfig `yaml:"partner"`
}

type file struct {
	Tenants []Tenant `yaml:"tenants"`
}

// Registry is immutable after Load.
type Registry struct {
	byID  map[int64]Tenant
	byKey map[string]int64
}

var _ domain.CredentialProvider = (*Registry)(nil)

// Load reads path, expanding ${ENV} references so secrets can stay out of
// the file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: tenants file: %v", domain.ErrConfiguration, err)
	}
	return New(f.Tenants...)
}

// New builds a registry; ids and API keys must be unique.
func New(ts ...Tenant) (*Registry, error) {
	r := &Registry{byID: map[int64]Tenant{}, byKey: map[string]int64{}}
	for _, t := range ts {
		if t.ID <= 0 {
			return nil, fmt.Errorf("%w: tenant %q has invalid id %d", domain.ErrConfiguration, t.Name, t.ID)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tenant id %d", domain.ErrConfiguration, t.ID)
		}
		r.byID[t.ID] = t
		for _, k := range t.APIKeys {
			if k == "" {
				continue
			}
			if owner, dup := r.byKey[k]; dup {
				return nil, fmt.Errorf("%w: api key shared by tenants %d and %d", domain.ErrConfiguration, owner, t.ID)
			}
			r.byKey[k] = t.ID
		}
	}
	return r, nil
}

func (r *Registry) PartnerConfig(ctx context.Context, tenantID int64) (domain.PartnerConfig, error) {
	t, ok := r.byID[tenantID]
	if !ok {
		return domain.PartnerConfig{}, domain.NotFoundf("tenant %d", tenantID)
	}
	if !t.Partner.Configured() {
		return domain.PartnerConfig{}, fmt.Errorf("%w for tenant %d", domain.ErrConfiguration, tenantID)
	}
	return t.Partner, nil
}

// TenantByKey resolves an API key to its tenant.
func (r *Registry) TenantByKey(key string) (int64, bool) {
	id, ok := r.byKey[key]
	return id, ok
}

// IDs lists every tenant, configured or not, in ascending order.
func (r *Registry) IDs() []int64 {
	out := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
