package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "master data",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				org_id BIGINT NOT NULL,
				no BIGINT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				kind TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (org_id, no)
			)`,
			`CREATE TABLE IF NOT EXISTS vat_codes (
				org_id BIGINT NOT NULL,
				code TEXT NOT NULL,
				rate DOUBLE PRECISION NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (org_id, code)
			)`,
			`CREATE TABLE IF NOT EXISTS org_settings (
				org_id BIGINT PRIMARY KEY,
				receivable_account BIGINT NOT NULL,
				payable_account BIGINT NOT NULL,
				vat_account BIGINT NOT NULL,
				overdue_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
				overdue_annual_rate_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
				default_payment_term_days INT NOT NULL DEFAULT 14,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
	{
		version: 2,
		name:    "documents and lines",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				guid UUID PRIMARY KEY,
				org_id BIGINT NOT NULL,
				class TEXT NOT NULL,
				number BIGINT,
				doc_date DATE NOT NULL,
				currency TEXT NOT NULL DEFAULT 'DKK',
				contact_id BIGINT,
				template TEXT,
				payment_term_days INT NOT NULL DEFAULT 14,
				status TEXT NOT NULL DEFAULT 'DRAFT',
				total_excl_vat DOUBLE PRECISION NOT NULL DEFAULT 0,
				total_vatable DOUBLE PRECISION NOT NULL DEFAULT 0,
				total_non_vatable DOUBLE PRECISION NOT NULL DEFAULT 0,
				total_incl_vat DOUBLE PRECISION NOT NULL DEFAULT 0,
				total_vat DOUBLE PRECISION NOT NULL DEFAULT 0,
				paid_at TIMESTAMPTZ,
				credited_by_guid UUID,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				deleted_at TIMESTAMPTZ
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS documents_org_class_number
				ON documents (org_id, class, number) WHERE number IS NOT NULL`,
			`CREATE INDEX IF NOT EXISTS documents_org_status ON documents (org_id, status)`,
			`CREATE TABLE IF NOT EXISTS document_lines (
				id BIGSERIAL PRIMARY KEY,
				document_guid UUID NOT NULL REFERENCES documents(guid) ON DELETE CASCADE,
				account_no BIGINT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
				unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
				discount_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
				vat_code TEXT,
				vat_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
				base_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
				incl_vat_amount DOUBLE PRECISION NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS document_lines_doc ON document_lines (document_guid)`,
		},
	},
	{
		version: 3,
		name:    "ledger entries",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS ledger_entries (
				guid UUID PRIMARY KEY,
				org_id BIGINT NOT NULL,
				account_no BIGINT NOT NULL,
				voucher_no BIGINT NOT NULL,
				voucher_type TEXT NOT NULL,
				entry_date DATE NOT NULL,
				amount DOUBLE PRECISION NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				vat_code TEXT,
				entry_type TEXT NOT NULL DEFAULT 'NORMAL',
				contact_id BIGINT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS ledger_entries_org_account_date
				ON ledger_entries (org_id, account_no, entry_date)`,
			`CREATE INDEX IF NOT EXISTS ledger_entries_org_voucher
				ON ledger_entries (org_id, voucher_no)`,
		},
	},
	{
		version: 4,
		name:    "accounting periods",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS accounting_periods (
				id BIGSERIAL PRIMARY KEY,
				org_id BIGINT NOT NULL,
				from_date DATE NOT NULL,
				to_date DATE NOT NULL,
				locked BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (org_id, from_date, to_date)
			)`,
			`CREATE INDEX IF NOT EXISTS accounting_periods_org
				ON accounting_periods (org_id, from_date)`,
		},
	},
	{
		version: 5,
		name:    "sequence counters",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS sequence_counters (
				org_id BIGINT NOT NULL,
				doc_class TEXT NOT NULL,
				last_number BIGINT NOT NULL DEFAULT 0,
				PRIMARY KEY (org_id, doc_class)
			)`,
		},
	},
	{
		version: 6,
		name:    "payments",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS payments (
				id BIGSERIAL PRIMARY KEY,
				org_id BIGINT NOT NULL,
				document_guid UUID NOT NULL REFERENCES documents(guid),
				paid_at TIMESTAMPTZ NOT NULL,
				amount DOUBLE PRECISION NOT NULL,
				method TEXT NOT NULL DEFAULT '',
				note TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS payments_document ON payments (org_id, document_guid)`,
		},
	},
}

// Migrate applies pending schema migrations in order. Each migration runs
// inside its own transaction and is recorded in schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("platform/db: create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := WithTx(ctx, pool, func(tx pgx.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("platform/db: migration %d (%s): %w", m.version, m.name, err)
				}
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				m.version, m.name)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func migrationApplied(ctx context.Context, pool *pgxpool.Pool, version int) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("platform/db: check migration %d: %w", version, err)
	}
	return exists, nil
}
