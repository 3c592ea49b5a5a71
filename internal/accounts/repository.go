package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates master-data reads for accounts and VAT codes.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Account, error)
	NamesByNumber(ctx context.Context, orgID int64) (map[int64]string, error)
	VATRates(ctx context.Context, orgID int64) (map[string]float64, error)
	GetSettings(ctx context.Context, orgID int64) (Settings, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT org_id, no, name, kind, is_active, created_at, updated_at
FROM accounts WHERE org_id=$1 ORDER BY no`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.OrgID, &a.No, &a.Name, &a.Kind, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// NamesByNumber returns account display names keyed by account number.
func (r *repository) NamesByNumber(ctx context.Context, orgID int64) (map[int64]string, error) {
	rows, err := r.db.Query(ctx, `SELECT no, name FROM accounts WHERE org_id=$1`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[int64]string)
	for rows.Next() {
		var no int64
		var name string
		if err := rows.Scan(&no, &name); err != nil {
			return nil, err
		}
		names[no] = name
	}
	return names, rows.Err()
}

// VATRates returns the organisation's VAT registry keyed by code.
func (r *repository) VATRates(ctx context.Context, orgID int64) (map[string]float64, error) {
	rows, err := r.db.Query(ctx, `SELECT code, rate FROM vat_codes WHERE org_id=$1`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rates := make(map[string]float64)
	for rows.Next() {
		var code string
		var rate float64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, err
		}
		rates[code] = rate
	}
	return rates, rows.Err()
}

func (r *repository) GetSettings(ctx context.Context, orgID int64) (Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx, `SELECT org_id, receivable_account, payable_account, vat_account,
overdue_fee, overdue_annual_rate_pct, default_payment_term_days, updated_at
FROM org_settings WHERE org_id=$1`, orgID).
		Scan(&s.OrgID, &s.ReceivableAccount, &s.PayableAccount, &s.VATAccount,
			&s.OverdueFee, &s.OverdueAnnualRatePct, &s.DefaultPaymentTermDays, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrSettingsNotFound
		}
		return Settings{}, err
	}
	return s, nil
}
