// Package sequence assigns gap-free document numbers per organisation and
// document class. Allocation rides an atomic counter upsert so two
// concurrent bookings can never claim the same number; the unique
// constraint on booked document numbers is the backstop, with a short
// retry when it trips.
package sequence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// maxRetries bounds the conflict retries before surfacing a transient error.
const maxRetries = 2

// ErrAllocationConflict surfaces when retries are exhausted.
var ErrAllocationConflict = shared.NewError(shared.KindConflict, "sequence: number allocation conflict, retry the operation")

// Querier is the pgx subset the allocator needs; both pgxpool.Pool and
// pgx.Tx satisfy it, so allocation can join the booking transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Next atomically increments and returns the counter for the organisation
// and document class. "Next" is last_number+1 computed inside the store, not
// read-then-write, which closes the SELECT MAX+1 race.
func Next(ctx context.Context, q Querier, orgID int64, docClass string) (int64, error) {
	var number int64
	err := q.QueryRow(ctx, `INSERT INTO sequence_counters (org_id, doc_class, last_number)
VALUES ($1,$2,1)
ON CONFLICT (org_id, doc_class) DO UPDATE SET last_number = sequence_counters.last_number + 1
RETURNING last_number`, orgID, docClass).Scan(&number)
	if err != nil {
		return 0, err
	}
	return number, nil
}

// Peek returns the highest number assigned so far without advancing the
// counter. Safe, idempotent read.
func Peek(ctx context.Context, q Querier, orgID int64, docClass string) (int64, error) {
	var number int64
	err := q.QueryRow(ctx, `SELECT last_number FROM sequence_counters WHERE org_id=$1 AND doc_class=$2`,
		orgID, docClass).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return number, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, the signal for an allocation collision.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// WithRetry runs fn, retrying with a fresh allocation when the unique
// constraint on (org, class, number) trips. Anything else fails fast.
func WithRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return ErrAllocationConflict
}
