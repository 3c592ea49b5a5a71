package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the pgx subset needed to insert entries; pgx.Tx satisfies it,
// so the posting engine writes inside the caller's booking transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// InsertEntries appends candidate entries. Callers validate balance first
// and run this inside the same transaction as the status flip.
func InsertEntries(ctx context.Context, ex Execer, entries []Entry) error {
	for _, e := range entries {
		if _, err := ex.Exec(ctx, `INSERT INTO ledger_entries
(guid, org_id, account_no, voucher_no, voucher_type, entry_date, amount, description, vat_code, entry_type, contact_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			e.GUID, e.OrgID, e.AccountNo, e.VoucherNo, e.VoucherType, e.EntryDate,
			e.Amount, e.Description, e.VATCode, e.EntryType, e.ContactID); err != nil {
			return err
		}
	}
	return nil
}

// ListFilter narrows entry listings.
type ListFilter struct {
	From      time.Time
	To        time.Time
	AccountNo int64
}

// Repository encapsulates ledger reads and the import path.
type Repository interface {
	List(ctx context.Context, orgID int64, filter ListFilter) ([]Entry, error)
	ExportSnapshot(ctx context.Context, orgID int64, from, to time.Time) (Snapshot, error)
	ImportEntries(ctx context.Context, orgID int64, entries []Entry) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `guid, org_id, account_no, voucher_no, voucher_type, entry_date, amount, description, vat_code, entry_type, contact_id, created_at`

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.GUID, &e.OrgID, &e.AccountNo, &e.VoucherNo, &e.VoucherType, &e.EntryDate,
			&e.Amount, &e.Description, &e.VATCode, &e.EntryType, &e.ContactID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, orgID int64, filter ListFilter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
WHERE org_id=$1 AND entry_date >= $2 AND entry_date <= $3`
	args := []any{orgID, filter.From, filter.To}
	if filter.AccountNo != 0 {
		query += ` AND account_no=$4`
		args = append(args, filter.AccountNo)
	}
	query += ` ORDER BY entry_date, voucher_no, created_at`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ExportSnapshot returns entries ordered by voucher number then insertion
// order, plus the headers of the documents they reference.
func (r *repository) ExportSnapshot(ctx context.Context, orgID int64, from, to time.Time) (Snapshot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
WHERE org_id=$1 AND entry_date >= $2 AND entry_date <= $3
ORDER BY voucher_no, created_at`, orgID, from, to)
	if err != nil {
		return Snapshot{}, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return Snapshot{}, err
	}
	docRows, err := r.db.Query(ctx, `SELECT DISTINCT d.guid, d.class, d.number, d.doc_date, d.currency, d.contact_id, d.total_incl_vat
FROM documents d
JOIN ledger_entries e ON e.org_id = d.org_id AND e.voucher_no = d.number AND e.voucher_type = d.class
WHERE d.org_id=$1 AND e.entry_date >= $2 AND e.entry_date <= $3 AND d.number IS NOT NULL
ORDER BY d.number`, orgID, from, to)
	if err != nil {
		return Snapshot{}, err
	}
	defer docRows.Close()
	var docs []DocumentHeader
	for docRows.Next() {
		var d DocumentHeader
		if err := docRows.Scan(&d.GUID, &d.Class, &d.Number, &d.DocumentDate, &d.Currency, &d.ContactID, &d.TotalInclVAT); err != nil {
			return Snapshot{}, err
		}
		docs = append(docs, d)
	}
	if err := docRows.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Entries: entries, Documents: docs}, nil
}

// ImportEntries inserts externally produced entries (audit-file import).
// Duplicate rows, identified by voucher, account, date and amount, are
// skipped so re-running an import is idempotent. Returns inserted count.
func (r *repository) ImportEntries(ctx context.Context, orgID int64, entries []Entry) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	inserted := 0
	for _, e := range entries {
		tag, err := tx.Exec(ctx, `INSERT INTO ledger_entries
(guid, org_id, account_no, voucher_no, voucher_type, entry_date, amount, description, vat_code, entry_type, contact_id)
SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
WHERE NOT EXISTS (
  SELECT 1 FROM ledger_entries
  WHERE org_id=$2 AND voucher_no=$4 AND account_no=$3 AND entry_date=$6 AND amount=$7)`,
			e.GUID, orgID, e.AccountNo, e.VoucherNo, e.VoucherType, e.EntryDate,
			e.Amount, e.Description, e.VATCode, e.EntryType, e.ContactID)
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}
