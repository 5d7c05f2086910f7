package app

import (
	"context"
	"errors"
	"fmt"

	"hotel_sync/internal/domain"
)

type RefWarmer interface {
	Refresh(ctx context.Context, tenantID int64, cfg domain.PartnerConfig) error
}

type DirectoryWarmer interface {
	RefreshDirectory(ctx context.Context, tenantID int64, cfg domain.PartnerConfig) (int, error)
}

// WarmService pre-fetches a tenant's reference data and hotel directory so
// the first run of the day does not pay for the refresh.
type WarmService struct {
	creds domain.CredentialProvider
	refs  RefWarmer
	dirs  DirectoryWarmer
}

func NewWarmService(c domain.CredentialProvider, refs RefWarmer, dirs DirectoryWarmer) *WarmService {
	return &WarmService{creds: c, refs: refs, dirs: dirs}
}

// WarmTenant returns the number of directory hotels fetched. Tenants without
// a partner integration are skipped without error.
func (s *WarmService) WarmTenant(ctx context.Context, tenantID int64) (int, error) {
	cfg, err := s.creds.PartnerConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) || errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if !cfg.Configured() {
		return 0, nil
	}
	if err := s.refs.Refresh(ctx, tenantID, cfg); err != nil {
		return 0, fmt.Errorf("reference data for tenant %d: %w", tenantID, err)
	}
	n, err := s.dirs.RefreshDirectory(ctx, tenantID, cfg)
	if err != nil {
		return 0, fmt.Errorf("hotel directory for tenant %d: %w", tenantID, err)
	}
	return n, nil
}
