package domain

import (
	"context"
	"time"
)

// Ledger persists runs and their items.
type Ledger interface {
	// Write paths
	CreateRun(ctx context.Context, run SyncRun, items []SyncItem) (SyncRun, error)
	MarkRunning(ctx context.Context, runID int64) error
	UpdateItem(ctx context.Context, runID int64, r ItemResult, at time.Time) error
	CompleteRun(ctx context.Context, runID int64, successful, failed int, at time.Time) error

	// Read paths
	RunByToken(ctx context.Context, tenantID int64, token string) (SyncRun, error)
	Items(ctx context.Context, runID int64) ([]SyncItem, error)
	ListRuns(ctx context.Context, tenantID int64, limit int) ([]SyncRun, error)
}

// RecordStore is the parsing collaborator's store of source items and records.
type RecordStore interface {
	SourceInfo(ctx context.Context, tenantID, sourceID int64) (SourceInfo, error)
	ReservationBySource(ctx context.Context, tenantID, sourceID int64) (Reservation, error)
	StopSaleBySource(ctx context.Context, tenantID, sourceID int64) (StopSale, error)
	MarkReservationSynced(ctx context.Context, tenantID, id, partnerID int64) error
	MarkStopSaleSynced(ctx context.Context, tenantID, id, partnerID int64) error
}

type MappingStore interface {
	GetMapping(ctx context.Context, tenantID int64, normalized string) (HotelMapping, bool, error)
	UpsertMapping(ctx context.Context, m HotelMapping) error
	ListMappings(ctx context.Context, tenantID int64, limit int) ([]HotelMapping, error)
	DeleteMapping(ctx context.Context, tenantID int64, normalized string) (bool, error)
}

// Parser turns a raw source item into a committed record.
type Parser interface {
	Parse(ctx context.Context, tenantID, sourceID int64) error
}

type CredentialProvider interface {
	PartnerConfig(ctx context.Context, tenantID int64) (PartnerConfig, error)
}

type PartnerClient interface {
	RoomTypes(ctx context.Context, cfg PartnerConfig) ([]RefCode, error)
	Boards(ctx context.Context, cfg PartnerConfig) ([]RefCode, error)
	Hotels(ctx context.Context, cfg PartnerConfig) ([]PartnerHotel, error)
	InsertReservation(ctx context.Context, cfg PartnerConfig, r PartnerReservation) (int64, error)
	SaveStopSale(ctx context.Context, cfg PartnerConfig, s PartnerStopSale) (int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
