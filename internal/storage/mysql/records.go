package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"hotel_sync/internal/domain"
)

func (r *Repo) SourceInfo(ctx context.Context, tenantID, sourceID int64) (domain.SourceInfo, error) {
	var kind sql.NullString
	var parsed bool
	err := r.db.QueryRowContext(ctx, sourceInfoSQL, tenantID, sourceID).Scan(&kind, &parsed)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SourceInfo{}, domain.NotFoundf("source item %d", sourceID)
	}
	if err != nil {
		return domain.SourceInfo{}, err
	}
	return domain.SourceInfo{SourceID: sourceID, Kind: domain.ItemType(kind.String), Parsed: parsed}, nil
}

func (r *Repo) ReservationBySource(ctx context.Context, tenantID, sourceID int64) (domain.Reservation, error) {
	var res domain.Reservation
	var hotelID, partnerID sql.NullInt64
	var price sql.NullFloat64
	err := r.db.QueryRowContext(ctx, reservationBySourceSQL, tenantID, sourceID).Scan(
		&res.ID, &res.TenantID, &res.SourceID, &res.HotelName, &hotelID,
		&res.CheckIn, &res.CheckOut,
		&res.Adults, &res.Children,
		&res.RoomCode, &res.BoardCode,
		&price, &res.Currency, &res.VoucherNo,
		&res.Synced, &partnerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.NotFoundf("reservation for source item %d", sourceID)
	}
	if err != nil {
		return domain.Reservation{}, err
	}
	res.PartnerHotelID = ptrInt64(hotelID)
	res.PartnerID = ptrInt64(partnerID)
	if price.Valid {
		p := price.Float64
		res.TotalPrice = &p
	}
	if res.Guests, err = r.guests(ctx, res.ID); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (r *Repo) guests(ctx context.Context, reservationID int64) ([]domain.Guest, error) {
	rows, err := r.db.QueryContext(ctx, guestsSQL, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Guest
	for rows.Next() {
		var g domain.Guest
		var birth sql.NullTime
		var age sql.NullInt64
		if err := rows.Scan(&g.Title, &g.FirstName, &g.LastName, &birth, &age, &g.Nationality); err != nil {
			return nil, err
		}
		g.BirthDate = ptrTime(birth)
		if age.Valid {
			a := int(age.Int64)
			g.Age = &a
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) StopSaleBySource(ctx context.Context, tenantID, sourceID int64) (domain.StopSale, error) {
	var ss domain.StopSale
	var hotelID, partnerID sql.NullInt64
	var rooms, boards []byte
	var reason sql.NullString
	err := r.db.QueryRowContext(ctx, stopSaleBySourceSQL, tenantID, sourceID).Scan(
		&ss.ID, &ss.TenantID, &ss.SourceID, &ss.HotelName, &hotelID,
		&ss.DateFrom, &ss.DateTo,
		&rooms, &boards,
		&ss.IsClose, &reason,
		&ss.Synced, &partnerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StopSale{}, domain.NotFoundf("stop sale for source item %d", sourceID)
	}
	if err != nil {
		return domain.StopSale{}, err
	}
	ss.PartnerHotelID = ptrInt64(hotelID)
	ss.PartnerID = ptrInt64(partnerID)
	ss.Reason = reason.String
	// NULL or malformed code lists mean "all"
	_ = json.Unmarshal(rooms, &ss.RoomCodes)
	_ = json.Unmarshal(boards, &ss.BoardCodes)
	return ss, nil
}

func (r *Repo) MarkReservationSynced(ctx context.Context, tenantID, id, partnerID int64) error {
	return r.markSynced(ctx, markReservationSyncedSQL, "reservation", tenantID, id, partnerID)
}

func (r *Repo) MarkStopSaleSynced(ctx context.Context, tenantID, id, partnerID int64) error {
	return r.markSynced(ctx, markStopSaleSyncedSQL, "stop sale", tenantID, id, partnerID)
}

func (r *Repo) markSynced(ctx context.Context, stmt, what string, tenantID, id, partnerID int64) error {
	res, err := r.db.ExecContext(ctx, stmt, partnerID, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("%s %d", what, id)
	}
	return nil
}
