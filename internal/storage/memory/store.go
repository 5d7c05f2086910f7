// Package memory is an in-process implementation of the storage ports.
// It backs tests and STORAGE=memory deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hotel_sync/internal/domain"
)

type key struct{ tenant, id int64 }

type mappingKey struct {
	tenant int64
	name   string
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextRun int64
	runs    map[int64]*domain.SyncRun
	tokens  map[string]int64
	items   map[int64][]*domain.SyncItem

	sources      map[key]*domain.SourceInfo
	reservations map[key]*domain.Reservation // by source id
	stopSales    map[key]*domain.StopSale    // by source id
	mappings     map[mappingKey]domain.HotelMapping
}

var (
	_ domain.Ledger       = (*Store)(nil)
	_ domain.RecordStore  = (*Store)(nil)
	_ domain.MappingStore = (*Store)(nil)
	_ domain.Parser       = (*Store)(nil)
)

func New() *Store {
	return &Store{
		now:          time.Now,
		runs:         map[int64]*domain.SyncRun{},
		tokens:       map[string]int64{},
		items:        map[int64][]*domain.SyncItem{},
		sources:      map[key]*domain.SourceInfo{},
		reservations: map[key]*domain.Reservation{},
		stopSales:    map[key]*domain.StopSale{},
		mappings:     map[mappingKey]domain.HotelMapping{},
	}
}

// ---- seeding ----

func (s *Store) PutSource(tenantID int64, info domain.SourceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[key{tenantID, info.SourceID}] = &info
}

func (s *Store) PutReservation(r domain.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[key{r.TenantID, r.SourceID}] = &r
}

func (s *Store) PutStopSale(ss domain.StopSale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopSales[key{ss.TenantID, ss.SourceID}] = &ss
}

// RunCount reports how many runs were ever persisted.
func (s *Store) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// ---- Ledger ----

func (s *Store) CreateRun(ctx context.Context, run domain.SyncRun, items []domain.SyncItem) (domain.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.tokens[run.Token]; dup {
		return domain.SyncRun{}, fmt.Errorf("run token %q already exists", run.Token)
	}
	s.nextRun++
	run.ID = s.nextRun
	if run.Status == "" {
		run.Status = domain.RunPending
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now().UTC()
	}
	r := run
	s.runs[run.ID] = &r
	s.tokens[run.Token] = run.ID
	list := make([]*domain.SyncItem, 0, len(items))
	for _, it := range items {
		it := it
		it.RunID = run.ID
		if it.Status == "" {
			it.Status = domain.ItemPending
		}
		list = append(list, &it)
	}
	s.items[run.ID] = list
	return run, nil
}

func (s *Store) MarkRunning(ctx context.Context, runID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return domain.NotFoundf("run %d", runID)
	}
	if r.Status == domain.RunPending {
		r.Status = domain.RunRunning
	}
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, runID int64, res domain.ItemResult, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items[runID] {
		if it.SourceID != res.SourceID || it.Status != domain.ItemPending {
			continue
		}
		it.Type = res.Type
		it.Status = res.Status()
		it.PartnerID = res.PartnerID
		it.Error = res.ErrorText()
		t := at
		it.ProcessedAt = &t
		return nil
	}
	return domain.NotFoundf("pending item %d in run %d", res.SourceID, runID)
}

func (s *Store) CompleteRun(ctx context.Context, runID int64, successful, failed int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return domain.NotFoundf("run %d", runID)
	}
	r.Successful, r.Failed = successful, failed
	r.Status = domain.RunCompleted
	t := at
	r.CompletedAt = &t
	return nil
}

func (s *Store) RunByToken(ctx context.Context, tenantID int64, token string) (domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	if !ok || s.runs[id].TenantID != tenantID {
		return domain.SyncRun{}, domain.NotFoundf("run %s", token)
	}
	return *s.runs[id], nil
}

func (s *Store) Items(ctx context.Context, runID int64) ([]domain.SyncItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SyncItem, 0, len(s.items[runID]))
	for _, it := range s.items[runID] {
		out = append(out, *it)
	}
	return out, nil
}

func (s *Store) ListRuns(ctx context.Context, tenantID int64, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SyncRun
	for _, r := range s.runs {
		if r.TenantID == tenantID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- RecordStore ----

func (s *Store) SourceInfo(ctx context.Context, tenantID, sourceID int64) (domain.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.sources[key{tenantID, sourceID}]
	if !ok {
		return domain.SourceInfo{}, domain.NotFoundf("source item %d", sourceID)
	}
	return *info, nil
}

func (s *Store) ReservationBySource(ctx context.Context, tenantID, sourceID int64) (domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[key{tenantID, sourceID}]
	if !ok {
		return domain.Reservation{}, domain.NotFoundf("reservation for source item %d", sourceID)
	}
	return *r, nil
}

func (s *Store) StopSaleBySource(ctx context.Context, tenantID, sourceID int64) (domain.StopSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ss, ok := s.stopSales[key{tenantID, sourceID}]
	if !ok {
		return domain.StopSale{}, domain.NotFoundf("stop sale for source item %d", sourceID)
	}
	return *ss, nil
}

func (s *Store) MarkReservationSynced(ctx context.Context, tenantID, id, partnerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.reservations {
		if k.tenant == tenantID && r.ID == id {
			r.Synced = true
			r.PartnerID = &partnerID
			return nil
		}
	}
	return domain.NotFoundf("reservation %d", id)
}

func (s *Store) MarkStopSaleSynced(ctx context.Context, tenantID, id, partnerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ss := range s.stopSales {
		if k.tenant == tenantID && ss.ID == id {
			ss.Synced = true
			ss.PartnerID = &partnerID
			return nil
		}
	}
	return domain.NotFoundf("stop sale %d", id)
}

// Parse marks a source as parsed when a record for it was committed.
func (s *Store) Parse(ctx context.Context, tenantID, sourceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{tenantID, sourceID}
	info, ok := s.sources[k]
	if !ok {
		return domain.NotFoundf("source item %d", sourceID)
	}
	_, isRes := s.reservations[k]
	_, isStop := s.stopSales[k]
	switch {
	case isRes:
		info.Kind = domain.ItemReservation
	case isStop:
		info.Kind = domain.ItemStopSale
	default:
		return fmt.Errorf("source item %d: nothing extracted", sourceID)
	}
	info.Parsed = true
	return nil
}

// ---- MappingStore ----

func (s *Store) GetMapping(ctx context.Context, tenantID int64, normalized string) (domain.HotelMapping, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[mappingKey{tenantID, normalized}]
	return m, ok, nil
}

func (s *Store) UpsertMapping(ctx context.Context, m domain.HotelMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[mappingKey{m.TenantID, m.NormalizedName}] = m
	return nil
}

func (s *Store) ListMappings(ctx context.Context, tenantID int64, limit int) ([]domain.HotelMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.HotelMapping{}
	for k, m := range s.mappings {
		if k.tenant == tenantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NormalizedName < out[j].NormalizedName })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteMapping(ctx context.Context, tenantID int64, normalized string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := mappingKey{tenantID, normalized}
	_, ok := s.mappings[k]
	delete(s.mappings, k)
	return ok, nil
}
