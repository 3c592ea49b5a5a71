package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// fakeCounterStore emulates the atomic counter upsert: every QueryRow call
// increments the per-(org, class) counter under a lock, exactly like the
// ON CONFLICT DO UPDATE does inside Postgres.
type fakeCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counters: make(map[string]int64)}
}

func (f *fakeCounterStore) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%v:%v", args[0], args[1])
	f.counters[key]++
	value := f.counters[key]
	return fakeRow{value: value}
}

type fakeRow struct {
	value int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.value
	}
	return nil
}

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	store := newFakeCounterStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := Next(ctx, store, 1, "INVOICE")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNextCountersAreIndependent(t *testing.T) {
	store := newFakeCounterStore()
	ctx := context.Background()

	a, err := Next(ctx, store, 1, "INVOICE")
	require.NoError(t, err)
	b, err := Next(ctx, store, 1, "CREDIT_NOTE")
	require.NoError(t, err)
	c, err := Next(ctx, store, 2, "INVOICE")
	require.NoError(t, err)

	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(1), b, "classes do not share a counter")
	assert.Equal(t, int64(1), c, "organisations do not share a counter")
}

func TestNextConcurrentAllocationsAreDistinct(t *testing.T) {
	store := newFakeCounterStore()
	ctx := context.Background()
	const n = 64

	results := make([]int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			number, err := Next(ctx, store, 1, "INVOICE")
			if err != nil {
				return err
			}
			results[i] = number
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[int64]bool, n)
	for _, number := range results {
		assert.False(t, seen[number], "number %d allocated twice", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestWithRetryRetriesOnlyUniqueViolations(t *testing.T) {
	attempts := 0
	err := WithRetry(func() error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "23505"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	boom := errors.New("boom")
	err = WithRetry(func() error {
		attempts++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts, "non-conflict errors fail fast")
}

func TestWithRetryGivesUpEventually(t *testing.T) {
	attempts := 0
	err := WithRetry(func() error {
		attempts++
		return &pgconn.PgError{Code: "23505"}
	})
	require.ErrorIs(t, err, ErrAllocationConflict)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}
