package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hotel_sync/internal/adapters/observability"
	"hotel_sync/internal/domain"
)

// ItemWriter writes one committed record to the partner.
type ItemWriter interface {
	SyncReservation(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, sourceID int64) (int64, error)
	SyncStopSale(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, sourceID int64) (int64, error)
}

type SyncOptions struct {
	ItemDelay time.Duration // pause between items of one run
	Heartbeat time.Duration // stream inactivity before a heartbeat
	QueueWait time.Duration // how long a stream waits for a run's channel
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.ItemDelay < 0 {
		o.ItemDelay = 0
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = 30 * time.Second
	}
	if o.QueueWait <= 0 {
		o.QueueWait = 5 * time.Second
	}
	return o
}

// SyncService runs batches of source items through the partner writer.
type SyncService struct {
	ledger  domain.Ledger
	records domain.RecordStore
	parser  domain.Parser
	creds   domain.CredentialProvider
	writer  ItemWriter
	hub     *ProgressHub
	sup     *Supervisor
	opts    SyncOptions
	now     func() time.Time
	log     zerolog.Logger
}

func NewSyncService(l domain.Ledger, rs domain.RecordStore, p domain.Parser, c domain.CredentialProvider,
	w ItemWriter, hub *ProgressHub, sup *Supervisor, opts SyncOptions, log zerolog.Logger) *SyncService {
	return &SyncService{
		ledger:  l,
		records: rs,
		parser:  p,
		creds:   c,
		writer:  w,
		hub:     hub,
		sup:     sup,
		opts:    opts.withDefaults(),
		now:     time.Now,
		log:     log.With().Str("component", "sync").Logger(),
	}
}

// Start validates and persists a run, then processes it in the background.
// Duplicate ids are collapsed, first occurrence wins.
func (s *SyncService) Start(ctx context.Context, tenantID int64, itemIDs []int64) (domain.SyncRun, error) {
	if n := len(itemIDs); n < domain.MinBatchItems || n > domain.MaxBatchItems {
		return domain.SyncRun{}, domain.Validationf("between %d and %d item ids required, got %d",
			domain.MinBatchItems, domain.MaxBatchItems, n)
	}
	ids := make([]int64, 0, len(itemIDs))
	seen := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		if id <= 0 {
			return domain.SyncRun{}, domain.Validationf("invalid item id %d", id)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if !s.sup.Accepting() {
		return domain.SyncRun{}, ErrShuttingDown
	}

	items := make([]domain.SyncItem, 0, len(ids))
	for _, id := range ids {
		kind := domain.ItemUnknown
		info, err := s.records.SourceInfo(ctx, tenantID, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.SyncRun{}, fmt.Errorf("classify item %d: %w", id, err)
		}
		if err == nil && info.Kind != "" {
			kind = info.Kind
		}
		items = append(items, domain.SyncItem{SourceID: id, Type: kind, Status: domain.ItemPending})
	}

	run, err := s.ledger.CreateRun(ctx, domain.SyncRun{
		Token:     uuid.NewString(),
		TenantID:  tenantID,
		Total:     len(items),
		Status:    domain.RunPending,
		StartedAt: s.now().UTC(),
	}, items)
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("create run: %w", err)
	}

	// one progress event per item plus the completion event
	s.hub.Open(run.Token, tenantID, len(items)+2)
	err = s.sup.GoOrDrop("run "+run.Token,
		func(ctx context.Context) { s.execute(ctx, run, items) },
		func() { s.dropRun(run) })
	if err != nil {
		s.hub.Close(run.Token)
		return domain.SyncRun{}, err
	}
	s.log.Info().Str("run", run.Token).Int64("tenant", tenantID).Int("items", run.Total).Msg("sync run started")
	return run, nil
}

// dropRun ends the stream of a run that shutdown removed from the queue. The
// ledger row stays pending.
func (s *SyncService) dropRun(run domain.SyncRun) {
	s.hub.Publish(run.Token, domain.ErrorEvent("Sync cancelled: service shutting down"))
	s.hub.Close(run.Token)
	s.log.Warn().Str("run", run.Token).Int64("tenant", run.TenantID).Msg("queued sync run dropped")
}

// execute processes items strictly in order. Ledger writes use a context
// that survives cancellation so the run always completes.
func (s *SyncService) execute(ctx context.Context, run domain.SyncRun, items []domain.SyncItem) {
	log := s.log.With().Str("run", run.Token).Int64("tenant", run.TenantID).Logger()
	persist := context.WithoutCancel(ctx)
	observability.ObserveRun("started")
	defer observability.ObserveRun("completed")

	if err := s.ledger.MarkRunning(persist, run.ID); err != nil {
		log.Error().Err(err).Msg("mark running failed")
	}
	cfg, cfgErr := s.partnerConfig(ctx, run.TenantID)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("partner integration unavailable; every item will fail")
	}

	successful, failed := 0, 0
	for i, it := range items {
		if i > 0 && s.opts.ItemDelay > 0 {
			sleepCtx(ctx, s.opts.ItemDelay)
		}
		res := s.processItem(ctx, run.TenantID, cfg, cfgErr, it, log)
		if res.OK() {
			successful++
		} else {
			failed++
			log.Warn().Err(res.Err).Int64("item", res.SourceID).Str("type", string(res.Type)).Msg("item failed")
		}
		if err := s.ledger.UpdateItem(persist, run.ID, res, s.now().UTC()); err != nil {
			log.Error().Err(err).Int64("item", res.SourceID).Msg("record item result failed")
		}
		observability.ObserveItem(res)
		if !s.hub.Publish(run.Token, domain.ProgressOf(i+1, len(items), res)) {
			log.Debug().Int64("item", res.SourceID).Msg("progress event dropped")
		}
	}

	completed := s.now().UTC()
	if err := s.ledger.CompleteRun(persist, run.ID, successful, failed, completed); err != nil {
		log.Error().Err(err).Msg("complete run failed")
	}
	run.Status, run.Successful, run.Failed, run.CompletedAt = domain.RunCompleted, successful, failed, &completed
	s.hub.Publish(run.Token, domain.CompleteOf(domain.SummaryOf(run)))
	s.hub.Close(run.Token)
	log.Info().Int("successful", successful).Int("failed", failed).Dur("took", run.Duration()).Msg("sync run completed")
}

// processItem never panics and never returns an error; the outcome is
// carried by the result.
func (s *SyncService) processItem(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, cfgErr error,
	it domain.SyncItem, log zerolog.Logger) (res domain.ItemResult) {
	res = domain.ItemResult{SourceID: it.SourceID, Type: it.Type}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("stack", string(debug.Stack())).Int64("item", it.SourceID).Msg("item panicked")
			res.PartnerID = nil
			res.Err = fmt.Errorf("internal error: %v", p)
		}
	}()

	if cfgErr != nil {
		res.Err = cfgErr
		return res
	}
	info, err := s.records.SourceInfo(ctx, tenantID, it.SourceID)
	if err != nil {
		res.Err = err
		return res
	}
	if !info.Parsed {
		if err := s.parser.Parse(ctx, tenantID, it.SourceID); err != nil {
			res.Err = fmt.Errorf("parse item %d: %w", it.SourceID, err)
			return res
		}
		if info, err = s.records.SourceInfo(ctx, tenantID, it.SourceID); err != nil {
			res.Err = err
			return res
		}
	}
	res.Type = info.Kind

	var id int64
	switch info.Kind {
	case domain.ItemReservation:
		id, err = s.writer.SyncReservation(ctx, tenantID, cfg, it.SourceID)
	case domain.ItemStopSale:
		id, err = s.writer.SyncStopSale(ctx, tenantID, cfg, it.SourceID)
	default:
		err = domain.Validationf("item %d is neither a reservation nor a stop sale", it.SourceID)
	}
	if err != nil {
		res.Err = err
		return res
	}
	if id != 0 {
		res.PartnerID = &id
	}
	return res
}

func (s *SyncService) partnerConfig(ctx context.Context, tenantID int64) (domain.PartnerConfig, error) {
	cfg, err := s.creds.PartnerConfig(ctx, tenantID)
	if err != nil {
		return domain.PartnerConfig{}, err
	}
	if !cfg.Configured() {
		return domain.PartnerConfig{}, fmt.Errorf("%w for tenant %d", domain.ErrConfiguration, tenantID)
	}
	return cfg, nil
}

// StreamProgress delivers the run's events to send until the run completes,
// ctx ends, or send fails. Lookup problems are reported as one error event.
func (s *SyncService) StreamProgress(ctx context.Context, tenantID int64, token string, send func(domain.ProgressEvent) error) error {
	run, err := s.ledger.RunByToken(ctx, tenantID, token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Str("run", token).Msg("run lookup failed")
			return send(domain.ErrorEvent("Sync lookup failed"))
		}
		return send(domain.ErrorEvent("Sync not found"))
	}

	ch, ok := s.hub.Subscribe(token, tenantID)
	if !ok {
		if run.Status == domain.RunCompleted {
			return send(domain.CompleteOf(domain.SummaryOf(run)))
		}
		if ch, ok = s.hub.Wait(ctx, token, tenantID, s.opts.QueueWait); !ok {
			// the run may have finished while we waited
			if run, err = s.ledger.RunByToken(ctx, tenantID, token); err == nil && run.Status == domain.RunCompleted {
				return send(domain.CompleteOf(domain.SummaryOf(run)))
			}
			return send(domain.ErrorEvent("Sync queue timeout"))
		}
	}

	hb := time.NewTimer(s.opts.Heartbeat)
	defer hb.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, open := <-ch:
			if !open {
				return nil
			}
			if err := send(ev); err != nil {
				return err
			}
			if ev.Type == domain.EventComplete {
				return nil
			}
			if !hb.Stop() {
				select {
				case <-hb.C:
				default:
				}
			}
			hb.Reset(s.opts.Heartbeat)
		case <-hb.C:
			if err := send(domain.HeartbeatEvent()); err != nil {
				return err
			}
			hb.Reset(s.opts.Heartbeat)
		}
	}
}

// RetryFailed starts a new run over the failed items of a completed run.
func (s *SyncService) RetryFailed(ctx context.Context, tenantID int64, token string) (domain.SyncRun, error) {
	run, err := s.ledger.RunByToken(ctx, tenantID, token)
	if err != nil {
		return domain.SyncRun{}, err
	}
	if run.Status != domain.RunCompleted {
		return domain.SyncRun{}, domain.Validationf("run %s is still %s", token, run.Status)
	}
	items, err := s.ledger.Items(ctx, run.ID)
	if err != nil {
		return domain.SyncRun{}, err
	}
	var ids []int64
	for _, it := range items {
		if it.Status == domain.ItemFailed {
			ids = append(ids, it.SourceID)
		}
	}
	if len(ids) == 0 {
		return domain.SyncRun{}, domain.Validationf("no failed items to retry in run %s", token)
	}
	return s.Start(ctx, tenantID, ids)
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
