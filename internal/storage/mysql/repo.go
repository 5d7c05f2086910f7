package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel_sync/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func ptrInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func ptrTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

// Repo implements the ledger, record and mapping ports on MySQL.
// The DSN must carry parseTime=true.
type Repo struct{ db *sql.DB }

var (
	_ domain.Ledger       = (*Repo)(nil)
	_ domain.RecordStore  = (*Repo)(nil)
	_ domain.MappingStore = (*Repo)(nil)
)

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- Ledger ----

// CreateRun writes the run and all its items in one transaction.
func (r *Repo) CreateRun(ctx context.Context, run domain.SyncRun, items []domain.SyncItem) (domain.SyncRun, error) {
	if run.Status == "" {
		run.Status = domain.RunPending
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.SyncRun{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, insertRunSQL, run.Token, run.TenantID, run.Total, string(run.Status), run.StartedAt.UTC())
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("insert run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return domain.SyncRun{}, err
	}

	if len(items) > 0 {
		values := make([]string, 0, len(items))
		args := make([]any, 0, len(items)*5)
		for i, it := range items {
			status := it.Status
			if status == "" {
				status = domain.ItemPending
			}
			values = append(values, "(?,?,?,?,?)")
			args = append(args, run.ID, i, it.SourceID, string(it.Type), string(status))
		}
		if _, err := tx.ExecContext(ctx, insertItemsPrefix+strings.Join(values, ","), args...); err != nil {
			return domain.SyncRun{}, fmt.Errorf("insert items: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.SyncRun{}, err
	}
	return run, nil
}

func (r *Repo) MarkRunning(ctx context.Context, runID int64) error {
	_, err := r.db.ExecContext(ctx, markRunningSQL, runID)
	return err
}

func (r *Repo) UpdateItem(ctx context.Context, runID int64, res domain.ItemResult, at time.Time) error {
	out, err := r.db.ExecContext(ctx, updateItemSQL,
		string(res.Type),
		string(res.Status()),
		valInt64(res.PartnerID),
		valStr(res.ErrorText()),
		at.UTC(),
		runID, res.SourceID,
	)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return domain.NotFoundf("pending item %d in run %d", res.SourceID, runID)
	}
	return nil
}

func (r *Repo) CompleteRun(ctx context.Context, runID int64, successful, failed int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, completeRunSQL, successful, failed, at.UTC(), runID)
	return err
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(s scanner) (domain.SyncRun, error) {
	var run domain.SyncRun
	var status string
	var completed sql.NullTime
	if err := s.Scan(&run.ID, &run.Token, &run.TenantID, &run.Total, &status,
		&run.Successful, &run.Failed, &run.StartedAt, &completed); err != nil {
		return domain.SyncRun{}, err
	}
	run.Status = domain.RunStatus(status)
	run.CompletedAt = ptrTime(completed)
	return run, nil
}

func (r *Repo) RunByToken(ctx context.Context, tenantID int64, token string) (domain.SyncRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, runByTokenSQL, tenantID, token))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SyncRun{}, domain.NotFoundf("run %s", token)
	}
	return run, err
}

func (r *Repo) Items(ctx context.Context, runID int64) ([]domain.SyncItem, error) {
	rows, err := r.db.QueryContext(ctx, itemsSQL, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncItem
	for rows.Next() {
		var it domain.SyncItem
		var typ, status string
		var partnerID sql.NullInt64
		var errText sql.NullString
		var processed sql.NullTime
		if err := rows.Scan(&it.RunID, &it.SourceID, &typ, &status, &partnerID, &errText, &processed); err != nil {
			return nil, err
		}
		it.Type, it.Status = domain.ItemType(typ), domain.ItemStatus(status)
		it.PartnerID = ptrInt64(partnerID)
		if errText.Valid {
			s := errText.String
			it.Error = &s
		}
		it.ProcessedAt = ptrTime(processed)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) ListRuns(ctx context.Context, tenantID int64, limit int) ([]domain.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, listRunsSQL, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
