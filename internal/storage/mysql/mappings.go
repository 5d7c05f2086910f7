package mysql

import (
	"context"
	"database/sql"
	"errors"

	"hotel_sync/internal/domain"
)

func scanMapping(s scanner) (domain.HotelMapping, error) {
	var m domain.HotelMapping
	err := s.Scan(&m.TenantID, &m.OriginalName, &m.NormalizedName, &m.PartnerHotelID, &m.PartnerHotelName, &m.CreatedAt)
	return m, err
}

func (r *Repo) GetMapping(ctx context.Context, tenantID int64, normalized string) (domain.HotelMapping, bool, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx, getMappingSQL, tenantID, normalized))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HotelMapping{}, false, nil
	}
	if err != nil {
		return domain.HotelMapping{}, false, err
	}
	return m, true, nil
}

// UpsertMapping is last-write-wins on (tenant, normalized name).
func (r *Repo) UpsertMapping(ctx context.Context, m domain.HotelMapping) error {
	_, err := r.db.ExecContext(ctx, upsertMappingSQL,
		m.TenantID, m.NormalizedName, m.OriginalName, m.PartnerHotelID, m.PartnerHotelName, m.CreatedAt.UTC())
	return err
}

func (r *Repo) ListMappings(ctx context.Context, tenantID int64, limit int) ([]domain.HotelMapping, error) {
	rows, err := r.db.QueryContext(ctx, listMappingsSQL, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HotelMapping{}
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteMapping(ctx context.Context, tenantID int64, normalized string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteMappingSQL, tenantID, normalized)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
