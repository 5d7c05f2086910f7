package hotels

import (
	"context"
	"errors"
	"strconv"

	"hotel_sync/internal/domain"
)

// Directory is a cached copy of a tenant's partner hotel list.
type Directory struct {
	Hotels   []domain.PartnerHotel `json:"hotels"`
	Degraded bool                  `json:"degraded"`
}

// builtinHotels stand in for partners that expose no directory endpoint.
var builtinHotels = []domain.PartnerHotel{
	{ID: 18, Name: "Test Hotel Antalya"},
	{ID: 42, Name: "Mandarin Oriental"},
	{ID: 56, Name: "Grand Mandarin Resort"},
	{ID: 78, Name: "Mandarin Palace Hotel"},
	{ID: 99, Name: "Royal Beach Resort"},
	{ID: 120, Name: "Sun Palace Hotel"},
	{ID: 150, Name: "Blue Bay Resort"},
}

func (r *Resolver) fetchDirectory(cfg domain.PartnerConfig) func(context.Context) (Directory, error) {
	return func(ctx context.Context) (Directory, error) {
		hs, err := r.partner.Hotels(ctx, cfg)
		if errors.Is(err, domain.ErrNoDirectory) {
			r.log.Warn().Msg("partner has no hotel directory; using built-in list")
			return Directory{Hotels: builtinHotels, Degraded: true}, nil
		}
		if err != nil {
			return Directory{}, err
		}
		return Directory{Hotels: hs}, nil
	}
}

// directory returns the tenant's directory, falling back to a stale copy
// when the partner is unreachable.
func (r *Resolver) directory(ctx context.Context, tenantID int64, cfg domain.PartnerConfig) (Directory, bool, error) {
	l := r.dirs.Get(ctx, strconv.FormatInt(tenantID, 10), r.fetchDirectory(cfg))
	if l.Err != nil {
		if !l.Found {
			return Directory{}, false, l.Err
		}
		r.log.Warn().Err(l.Err).Int64("tenant", tenantID).Msg("hotel directory refresh failed; serving stale copy")
	}
	return l.Data, l.Cached, nil
}

// RefreshDirectory force-fetches the tenant's directory.
func (r *Resolver) RefreshDirectory(ctx context.Context, tenantID int64, cfg domain.PartnerConfig) (int, error) {
	snap, err := r.dirs.Refresh(ctx, strconv.FormatInt(tenantID, 10), r.fetchDirectory(cfg))
	if err != nil {
		return 0, err
	}
	return len(snap.Data.Hotels), nil
}
