package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates posted ledger entries for reporting. Read-only;
// safe against a replica or snapshot isolation.
type Repository interface {
	SumByAccount(ctx context.Context, orgID int64, from, to time.Time) ([]AccountSum, error)
	ListOrgIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SumByAccount(ctx context.Context, orgID int64, from, to time.Time) ([]AccountSum, error) {
	rows, err := r.db.Query(ctx, `SELECT account_no, SUM(amount)
FROM ledger_entries
WHERE org_id=$1 AND entry_date >= $2 AND entry_date <= $3
GROUP BY account_no ORDER BY account_no`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sums []AccountSum
	for rows.Next() {
		var s AccountSum
		if err := rows.Scan(&s.AccountNo, &s.Amount); err != nil {
			return nil, err
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

func (r *repository) ListOrgIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT org_id FROM ledger_entries ORDER BY org_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
