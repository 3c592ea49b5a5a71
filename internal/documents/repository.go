package documents

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kontor-erp/kontor-erp/internal/ledger"
	"github.com/kontor-erp/kontor-erp/internal/periods"
	"github.com/kontor-erp/kontor-erp/internal/sequence"
)

// ListFilter narrows document listings.
type ListFilter struct {
	Class  Class
	Status Status
	Limit  int
	Offset int
}

// Repository encapsulates document persistence.
type Repository interface {
	Get(ctx context.Context, orgID int64, guid uuid.UUID) (Document, error)
	GetLines(ctx context.Context, guid uuid.UUID) ([]Line, error)
	List(ctx context.Context, orgID int64, filter ListFilter) ([]Document, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a booking or
// lifecycle transaction. Sequence allocation, the period guard and entry
// insertion run on the same pgx.Tx so the whole operation is atomic.
type TxRepository interface {
	InsertDocument(ctx context.Context, doc Document) error
	UpdateDocument(ctx context.Context, doc Document) error
	ReplaceLines(ctx context.Context, guid uuid.UUID, lines []Line) error
	GetForUpdate(ctx context.Context, orgID int64, guid uuid.UUID) (Document, error)
	GetLines(ctx context.Context, guid uuid.UUID) ([]Line, error)
	HardDelete(ctx context.Context, orgID int64, guid uuid.UUID) error
	SoftDelete(ctx context.Context, orgID int64, guid uuid.UUID, at time.Time) error
	SetBooked(ctx context.Context, orgID int64, guid uuid.UUID, number int64) error
	SetCreditedBy(ctx context.Context, orgID int64, sourceGUID, creditGUID uuid.UUID) error
	NextNumber(ctx context.Context, orgID int64, class Class) (int64, error)
	LockedPeriodExists(ctx context.Context, orgID int64, date time.Time) (bool, error)
	InsertEntries(ctx context.Context, entries []ledger.Entry) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const documentColumns = `guid, org_id, class, number, doc_date, currency, contact_id, template, payment_term_days, status,
total_excl_vat, total_vatable, total_non_vatable, total_incl_vat, total_vat,
paid_at, credited_by_guid, created_at, updated_at, deleted_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.GUID, &d.OrgID, &d.Class, &d.Number, &d.DocumentDate, &d.Currency, &d.ContactID,
		&d.Template, &d.PaymentTermDays, &d.Status,
		&d.Totals.ExclVAT, &d.Totals.VATable, &d.Totals.NonVATable, &d.Totals.InclVAT, &d.Totals.VAT,
		&d.PaidAt, &d.CreditedByGUID, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return d, nil
}

func (r *repository) Get(ctx context.Context, orgID int64, guid uuid.UUID) (Document, error) {
	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE org_id=$1 AND guid=$2`, orgID, guid)
	return scanDocument(row)
}

func (r *repository) GetLines(ctx context.Context, guid uuid.UUID) ([]Line, error) {
	return queryLines(ctx, r.db, guid)
}

func (r *repository) List(ctx context.Context, orgID int64, filter ListFilter) ([]Document, int, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE org_id=$1 AND deleted_at IS NULL`
	countQuery := `SELECT COUNT(*) FROM documents WHERE org_id=$1 AND deleted_at IS NULL`
	args := []any{orgID}
	if filter.Class != "" {
		args = append(args, filter.Class)
		cond := ` AND class=$2`
		query += cond
		countQuery += cond
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		cond := ` AND status=$` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	return docs, total, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertDocument(ctx context.Context, d Document) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO documents
(guid, org_id, class, number, doc_date, currency, contact_id, template, payment_term_days, status,
total_excl_vat, total_vatable, total_non_vatable, total_incl_vat, total_vat, credited_by_guid)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		d.GUID, d.OrgID, d.Class, d.Number, d.DocumentDate, d.Currency, d.ContactID,
		d.Template, d.PaymentTermDays, d.Status,
		d.Totals.ExclVAT, d.Totals.VATable, d.Totals.NonVATable, d.Totals.InclVAT, d.Totals.VAT,
		d.CreditedByGUID)
	return err
}

func (r *txRepository) UpdateDocument(ctx context.Context, d Document) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE documents SET doc_date=$3, currency=$4, contact_id=$5, template=$6,
payment_term_days=$7, total_excl_vat=$8, total_vatable=$9, total_non_vatable=$10, total_incl_vat=$11, total_vat=$12,
updated_at=NOW() WHERE org_id=$1 AND guid=$2`,
		d.OrgID, d.GUID, d.DocumentDate, d.Currency, d.ContactID, d.Template,
		d.PaymentTermDays, d.Totals.ExclVAT, d.Totals.VATable, d.Totals.NonVATable, d.Totals.InclVAT, d.Totals.VAT)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, guid uuid.UUID, lines []Line) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM document_lines WHERE document_guid=$1`, guid); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO document_lines
(document_guid, account_no, description, quantity, unit_price, discount_pct, vat_code, vat_rate, base_amount, incl_vat_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			guid, line.AccountNo, line.Description, line.Quantity, line.UnitPrice,
			line.DiscountPct, line.VATCode, line.VATRate, line.BaseAmount, line.InclVATAmount); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, orgID int64, guid uuid.UUID) (Document, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE org_id=$1 AND guid=$2 FOR UPDATE`, orgID, guid)
	return scanDocument(row)
}

func (r *txRepository) GetLines(ctx context.Context, guid uuid.UUID) ([]Line, error) {
	return queryLines(ctx, r.tx, guid)
}

func (r *txRepository) HardDelete(ctx context.Context, orgID int64, guid uuid.UUID) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM document_lines WHERE document_guid=$1`, guid); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM documents WHERE org_id=$1 AND guid=$2`, orgID, guid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) SoftDelete(ctx context.Context, orgID int64, guid uuid.UUID, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE documents SET deleted_at=$3, updated_at=NOW() WHERE org_id=$1 AND guid=$2 AND deleted_at IS NULL`,
		orgID, guid, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) SetBooked(ctx context.Context, orgID int64, guid uuid.UUID, number int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE documents SET status=$3, number=$4, updated_at=NOW() WHERE org_id=$1 AND guid=$2`,
		orgID, guid, StatusBooked, number)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) SetCreditedBy(ctx context.Context, orgID int64, sourceGUID, creditGUID uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE documents SET credited_by_guid=$3, updated_at=NOW() WHERE org_id=$1 AND guid=$2`,
		orgID, sourceGUID, creditGUID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) NextNumber(ctx context.Context, orgID int64, class Class) (int64, error) {
	return sequence.Next(ctx, r.tx, orgID, string(class))
}

func (r *txRepository) LockedPeriodExists(ctx context.Context, orgID int64, date time.Time) (bool, error) {
	return periods.LockedPeriodExists(ctx, r.tx, orgID, date)
}

func (r *txRepository) InsertEntries(ctx context.Context, entries []ledger.Entry) error {
	return ledger.InsertEntries(ctx, r.tx, entries)
}

type lineQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q lineQuerier, guid uuid.UUID) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, document_guid, account_no, description, quantity, unit_price, discount_pct, vat_code, vat_rate, base_amount, incl_vat_amount
FROM document_lines WHERE document_guid=$1 ORDER BY id`, guid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.DocumentGUID, &l.AccountNo, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.DiscountPct, &l.VATCode, &l.VATRate, &l.BaseAmount, &l.InclVATAmount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

