package app

import (
	"context"
	"fmt"
	"time"

	"hotel_sync/internal/domain"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// QueryService serves run reports. Completed runs are immutable, so their
// results are cached; live runs always hit the ledger.
type QueryService struct {
	ledger   domain.Ledger
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(l domain.Ledger, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{ledger: l, cache: c, cacheTTL: ttl}
}

func (s *QueryService) Result(ctx context.Context, tenantID int64, token string) (domain.RunResult, error) {
	key := fmt.Sprintf("run:%d:%s", tenantID, token)
	var out domain.RunResult
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	run, err := s.ledger.RunByToken(ctx, tenantID, token)
	if err != nil {
		return domain.RunResult{}, err
	}
	items, err := s.ledger.Items(ctx, run.ID)
	if err != nil {
		return domain.RunResult{}, err
	}
	out = buildResult(run, items)

	if s.cache != nil && run.Status == domain.RunCompleted {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func buildResult(run domain.SyncRun, items []domain.SyncItem) domain.RunResult {
	out := domain.RunResult{
		Token:      run.Token,
		Status:     run.Status,
		Summary:    domain.SummaryOf(run),
		Successful: []domain.ItemView{},
		Failed:     []domain.ItemView{},
	}
	for _, it := range items {
		v := domain.ItemView{SourceID: it.SourceID, Type: it.Type, PartnerID: it.PartnerID, Error: it.Error}
		switch it.Status {
		case domain.ItemSuccess:
			out.Successful = append(out.Successful, v)
		case domain.ItemFailed:
			out.Failed = append(out.Failed, v)
		}
	}
	return out
}

// History lists the tenant's runs, newest first.
func (s *QueryService) History(ctx context.Context, tenantID int64, limit int) ([]domain.RunHistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	runs, err := s.ledger.ListRuns(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RunHistoryEntry, 0, len(runs))
	for _, r := range runs {
		out = append(out, domain.RunHistoryEntry{
			Token:       r.Token,
			Status:      r.Status,
			Total:       r.Total,
			Successful:  r.Successful,
			Failed:      r.Failed,
			StartedAt:   r.StartedAt,
			CompletedAt: r.CompletedAt,
		})
	}
	return out, nil
}
