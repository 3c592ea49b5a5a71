package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx satisfied by both pgxpool.Pool and pgx.Tx,
// so the lock guard can run inside a caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LockedPeriodExists reports whether any locked period for the organisation
// covers the candidate date. Booking transactions call this before building
// entries so a locked period never produces partial ledger writes.
func LockedPeriodExists(ctx context.Context, q Querier, orgID int64, date time.Time) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM accounting_periods WHERE org_id=$1 AND locked AND $2::date BETWEEN from_date AND to_date)`,
		orgID, date).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Repository encapsulates period administration.
type Repository interface {
	Create(ctx context.Context, orgID int64, from, to time.Time) (Period, error)
	Get(ctx context.Context, orgID, id int64) (Period, error)
	List(ctx context.Context, orgID int64) ([]Period, error)
	SetLock(ctx context.Context, orgID, id int64, locked bool) (Period, error)
	LockedCovering(ctx context.Context, orgID int64, date time.Time) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, orgID int64, from, to time.Time) (Period, error) {
	var p Period
	err := r.db.QueryRow(ctx, `INSERT INTO accounting_periods (org_id, from_date, to_date, locked)
VALUES ($1,$2,$3,false) RETURNING id, org_id, from_date, to_date, locked, created_at, updated_at`,
		orgID, from, to).
		Scan(&p.ID, &p.OrgID, &p.FromDate, &p.ToDate, &p.Locked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Period{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, orgID, id int64) (Period, error) {
	var p Period
	err := r.db.QueryRow(ctx, `SELECT id, org_id, from_date, to_date, locked, created_at, updated_at
FROM accounting_periods WHERE org_id=$1 AND id=$2`, orgID, id).
		Scan(&p.ID, &p.OrgID, &p.FromDate, &p.ToDate, &p.Locked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT id, org_id, from_date, to_date, locked, created_at, updated_at
FROM accounting_periods WHERE org_id=$1 ORDER BY from_date`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.OrgID, &p.FromDate, &p.ToDate, &p.Locked, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetLock toggles the lock flag. The update is idempotent: re-locking a
// locked period is a no-op that still returns the current row.
func (r *repository) SetLock(ctx context.Context, orgID, id int64, locked bool) (Period, error) {
	var p Period
	err := r.db.QueryRow(ctx, `UPDATE accounting_periods SET locked=$3, updated_at=NOW()
WHERE org_id=$1 AND id=$2 RETURNING id, org_id, from_date, to_date, locked, created_at, updated_at`,
		orgID, id, locked).
		Scan(&p.ID, &p.OrgID, &p.FromDate, &p.ToDate, &p.Locked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) LockedCovering(ctx context.Context, orgID int64, date time.Time) (bool, error) {
	return LockedPeriodExists(ctx, r.db, orgID, date)
}
