package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"hotel_sync/internal/domain"
)

// HotelLookup resolves a hotel name to a partner hotel id without guessing.
type HotelLookup interface {
	HotelID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, name string) (int64, error)
}

// RefLookup resolves room-type and board codes to partner ids.
type RefLookup interface {
	RoomTypeID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, code string) (int64, bool)
	RoomTypeIDs(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, codes []string) []int64
	BoardID(ctx context.Context, cfg domain.PartnerConfig, code string) (int64, bool)
	BoardIDs(ctx context.Context, cfg domain.PartnerConfig, codes []string) []int64
}

// PartnerWriter pushes committed records into the partner system.
type PartnerWriter struct {
	records domain.RecordStore
	partner domain.PartnerClient
	hotels  HotelLookup
	refs    RefLookup
	log     zerolog.Logger
}

func NewPartnerWriter(rs domain.RecordStore, p domain.PartnerClient, h HotelLookup, refs RefLookup, log zerolog.Logger) *PartnerWriter {
	return &PartnerWriter{records: rs, partner: p, hotels: h, refs: refs, log: log.With().Str("component", "writer").Logger()}
}

func (w *PartnerWriter) hotelID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, assigned *int64, name string) (int64, error) {
	if assigned != nil && *assigned > 0 {
		return *assigned, nil
	}
	return w.hotels.HotelID(ctx, tenantID, cfg, name)
}

// SyncReservation writes the reservation committed for sourceID in a single
// call and returns the partner-assigned id.
func (w *PartnerWriter) SyncReservation(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, sourceID int64) (int64, error) {
	r, err := w.records.ReservationBySource(ctx, tenantID, sourceID)
	if err != nil {
		return 0, err
	}
	if r.Synced {
		return deref(r.PartnerID), nil
	}

	hotelID, err := w.hotelID(ctx, tenantID, cfg, r.PartnerHotelID, r.HotelName)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(r.RoomCode) == "" {
		return 0, domain.Resolutionf("reservation %d has no room code", r.ID)
	}
	roomID, ok := w.refs.RoomTypeID(ctx, tenantID, cfg, r.RoomCode)
	if !ok {
		return 0, domain.Resolutionf("room type %q is unknown to the partner", r.RoomCode)
	}
	if strings.TrimSpace(r.BoardCode) == "" {
		return 0, domain.Resolutionf("reservation %d has no board code", r.ID)
	}
	boardID, ok := w.refs.BoardID(ctx, cfg, r.BoardCode)
	if !ok {
		return 0, domain.Resolutionf("board %q is unknown to the partner", r.BoardCode)
	}

	id, err := w.partner.InsertReservation(ctx, cfg, reservationPayload(r, cfg, hotelID, roomID, boardID))
	if err != nil {
		return 0, err
	}
	if err := w.records.MarkReservationSynced(ctx, tenantID, r.ID, id); err != nil {
		w.log.Error().Err(err).Int64("reservation", r.ID).Int64("partner_id", id).Msg("partner accepted reservation but marking it synced failed")
		return 0, fmt.Errorf("reservation stored at partner as %d but not marked synced: %w", id, err)
	}
	return id, nil
}

// SyncStopSale writes the stop sale committed for sourceID in two phases:
// create the bare parent, then update it with its room and board children.
// A phase-2 failure leaves the parent at the partner; nothing rolls it back.
func (w *PartnerWriter) SyncStopSale(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, sourceID int64) (int64, error) {
	s, err := w.records.StopSaleBySource(ctx, tenantID, sourceID)
	if err != nil {
		return 0, err
	}
	if s.Synced {
		return deref(s.PartnerID), nil
	}
	if s.DateTo.Before(s.DateFrom) {
		return 0, domain.Validationf("stop sale %d ends before it starts", s.ID)
	}

	hotelID, err := w.hotelID(ctx, tenantID, cfg, s.PartnerHotelID, s.HotelName)
	if err != nil {
		return 0, err
	}
	// empty means "all rooms" / "all boards"
	roomIDs := w.refs.RoomTypeIDs(ctx, tenantID, cfg, s.RoomCodes)
	boardIDs := w.refs.BoardIDs(ctx, cfg, s.BoardCodes)

	parent := stopSaleParent(s, cfg, hotelID)
	id, err := w.partner.SaveStopSale(ctx, cfg, parent)
	if err != nil {
		return 0, fmt.Errorf("create stop sale: %w", err)
	}

	if _, err := w.partner.SaveStopSale(ctx, cfg, stopSaleUpdate(parent, id, roomIDs, boardIDs)); err != nil {
		w.log.Warn().Err(err).Int64("stop_sale", s.ID).Int64("partner_id", id).Msg("stop sale left incomplete at partner")
		return 0, fmt.Errorf("update stop sale %d (created at partner, left without rooms/boards): %w", id, err)
	}

	if err := w.records.MarkStopSaleSynced(ctx, tenantID, s.ID, id); err != nil {
		w.log.Error().Err(err).Int64("stop_sale", s.ID).Int64("partner_id", id).Msg("partner accepted stop sale but marking it synced failed")
		return 0, fmt.Errorf("stop sale stored at partner as %d but not marked synced: %w", id, err)
	}
	return id, nil
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
