package hotels

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hotel_sync/internal/domain"
	"hotel_sync/internal/refdata"
)

const (
	DefaultLimit    = 10
	DefaultMinScore = 50
)

type SearchOptions struct {
	Limit    int
	MinScore float64 // 0..100
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	return o
}

type Resolver struct {
	partner  domain.PartnerClient
	mappings domain.MappingStore
	dirs     *refdata.Snapshots[Directory]
	now      func() time.Time
	log      zerolog.Logger
}

// NewResolver caches directories per tenant for ttl; shared may be nil.
func NewResolver(p domain.PartnerClient, m domain.MappingStore, shared domain.Cache, ttl time.Duration, log zerolog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Resolver{
		partner:  p,
		mappings: m,
		dirs:     refdata.NewSnapshots[Directory]("hotels:directory", shared, ttl, nil),
		now:      time.Now,
		log:      log.With().Str("component", "hotels").Logger(),
	}
}

// Resolve looks up name for the tenant. A learned mapping is authoritative;
// otherwise the directory is searched for an exact then fuzzy match.
func (r *Resolver) Resolve(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, name string, opts SearchOptions) (domain.HotelResolution, error) {
	opts = opts.withDefaults()
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.HotelResolution{}, domain.Validationf("hotel name is required")
	}
	norm := Normalize(name)
	res := domain.HotelResolution{Query: name, Normalized: norm, Suggestions: []domain.HotelCandidate{}}

	if norm != "" {
		m, ok, err := r.mappings.GetMapping(ctx, tenantID, norm)
		if err != nil {
			return domain.HotelResolution{}, err
		}
		if ok {
			res.Exact = &domain.HotelCandidate{ID: m.PartnerHotelID, Name: m.PartnerHotelName, Score: 1}
			res.FromMapping = true
			res.Cached = true
			return res, nil
		}
	}

	dir, cached, err := r.directory(ctx, tenantID, cfg)
	if err != nil {
		return domain.HotelResolution{}, err
	}
	res.Cached = cached
	res.Degraded = dir.Degraded

	if h, ok := exactMatch(norm, dir.Hotels); ok {
		res.Exact = &domain.HotelCandidate{ID: h.ID, Name: h.Name, Score: 1}
		return res, nil
	}
	res.Suggestions = fuzzyMatch(norm, dir.Hotels, opts.Limit, opts.MinScore)
	return res, nil
}

// HotelID accepts a mapping or an exact match only; fuzzy suggestions are
// reported in the error and never used.
func (r *Resolver) HotelID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, name string) (int64, error) {
	res, err := r.Resolve(ctx, tenantID, cfg, name, SearchOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return 0, domain.Resolutionf("hotel name is missing")
		}
		return 0, err
	}
	if res.Exact != nil {
		return res.Exact.ID, nil
	}
	if len(res.Suggestions) > 0 {
		best := res.Suggestions[0]
		return 0, domain.Resolutionf("hotel %q not found; best suggestion %q (id %d, similarity %.2f)",
			name, best.Name, best.ID, best.Score)
	}
	return 0, domain.Resolutionf("hotel %q not found", name)
}

// Learn stores (or replaces) the tenant's mapping for original.
func (r *Resolver) Learn(ctx context.Context, tenantID int64, original string, partnerID int64, partnerName string) (domain.HotelMapping, error) {
	original = strings.TrimSpace(original)
	if original == "" || partnerID <= 0 {
		return domain.HotelMapping{}, domain.Validationf("hotel name and partner hotel id are required")
	}
	norm := Normalize(original)
	if norm == "" {
		return domain.HotelMapping{}, domain.Validationf("hotel name %q has no distinctive words", original)
	}
	m := domain.HotelMapping{
		TenantID:         tenantID,
		OriginalName:     original,
		NormalizedName:   norm,
		PartnerHotelID:   partnerID,
		PartnerHotelName: partnerName,
		CreatedAt:        r.now().UTC(),
	}
	if err := r.mappings.UpsertMapping(ctx, m); err != nil {
		return domain.HotelMapping{}, err
	}
	r.log.Info().Int64("tenant", tenantID).Str("name", norm).Int64("partner_hotel", partnerID).Msg("hotel mapping learned")
	return m, nil
}

func (r *Resolver) Mappings(ctx context.Context, tenantID int64, limit int) ([]domain.HotelMapping, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.mappings.ListMappings(ctx, tenantID, limit)
}

func (r *Resolver) Forget(ctx context.Context, tenantID int64, name string) error {
	ok, err := r.mappings.DeleteMapping(ctx, tenantID, Normalize(name))
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("no mapping for %q", name)
	}
	return nil
}
