package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kontor-erp/kontor-erp/internal/documents"
)

// Repository encapsulates payment persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListForDocument(ctx context.Context, orgID int64, guid uuid.UUID) ([]Payment, error)
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]DocumentView, error)
}

// TxRepository exposes the operations joined into one payment transaction.
type TxRepository interface {
	GetDocumentForUpdate(ctx context.Context, orgID int64, guid uuid.UUID) (DocumentView, error)
	InsertPayment(ctx context.Context, p Payment) error
	SumPayments(ctx context.Context, orgID int64, guid uuid.UUID) (float64, error)
	SetPaymentStatus(ctx context.Context, orgID int64, guid uuid.UUID, status documents.Status, paidAt *time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
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

func (r *repository) ListForDocument(ctx context.Context, orgID int64, guid uuid.UUID) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, org_id, document_guid, paid_at, amount, method, note, created_at
FROM payments WHERE org_id=$1 AND document_guid=$2 ORDER BY paid_at, id`, orgID, guid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrgID, &p.DocumentGUID, &p.PaidAt, &p.Amount, &p.Method, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOverdueCandidates returns booked or partially paid documents whose
// due date has passed, across organisations, for the nightly scan.
func (r *repository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]DocumentView, error) {
	rows, err := r.db.Query(ctx, `SELECT guid, org_id, status, doc_date, payment_term_days, total_incl_vat, deleted_at
FROM documents
WHERE deleted_at IS NULL AND status IN ('BOOKED','PARTIAL')
AND doc_date + payment_term_days * INTERVAL '1 day' < $1`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DocumentView
	for rows.Next() {
		var d DocumentView
		if err := rows.Scan(&d.GUID, &d.OrgID, &d.Status, &d.DocumentDate, &d.PaymentTermDays, &d.TotalInclVAT, &d.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetDocumentForUpdate(ctx context.Context, orgID int64, guid uuid.UUID) (DocumentView, error) {
	var d DocumentView
	err := r.tx.QueryRow(ctx, `SELECT guid, org_id, status, doc_date, payment_term_days, total_incl_vat, deleted_at
FROM documents WHERE org_id=$1 AND guid=$2 FOR UPDATE`, orgID, guid).
		Scan(&d.GUID, &d.OrgID, &d.Status, &d.DocumentDate, &d.PaymentTermDays, &d.TotalInclVAT, &d.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DocumentView{}, ErrDocumentNotFound
		}
		return DocumentView{}, err
	}
	return d, nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO payments (org_id, document_guid, paid_at, amount, method, note)
VALUES ($1,$2,$3,$4,$5,$6)`, p.OrgID, p.DocumentGUID, p.PaidAt, p.Amount, p.Method, p.Note)
	return err
}

func (r *txRepository) SumPayments(ctx context.Context, orgID int64, guid uuid.UUID) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE org_id=$1 AND document_guid=$2`,
		orgID, guid).Scan(&sum)
	return sum, err
}

func (r *txRepository) SetPaymentStatus(ctx context.Context, orgID int64, guid uuid.UUID, status documents.Status, paidAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE documents SET status=$3, paid_at=$4, updated_at=NOW() WHERE org_id=$1 AND guid=$2`,
		orgID, guid, status, paidAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
