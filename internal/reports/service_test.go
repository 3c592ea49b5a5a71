package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

type mockReportsRepo struct {
	sums  []AccountSum
	calls int
}

func (m *mockReportsRepo) SumByAccount(ctx context.Context, orgID int64, from, to time.Time) ([]AccountSum, error) {
	m.calls++
	return m.sums, nil
}

func (m *mockReportsRepo) ListOrgIDs(ctx context.Context) ([]int64, error) {
	return []int64{1}, nil
}

type mockNames struct{}

func (mockNames) NamesByNumber(ctx context.Context, orgID int64) (map[int64]string, error) {
	return map[int64]string{
		1500: "Trade receivables",
		1920: "Bank account",
		5010: "Sales, domestic",
		7220: "Office supplies",
	}, nil
}

func testSums() []AccountSum {
	return []AccountSum{
		{AccountNo: 5010, Amount: -200},
		{AccountNo: 1500, Amount: 250},
		{AccountNo: 2740, Amount: -50},
		{AccountNo: 7220, Amount: 120.004},
	}
}

func newReportsService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, mockNames{}, NewCache(client, time.Minute))
}

var (
	from = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
)

func TestPredicate(t *testing.T) {
	balance := Predicate(TypeBalance)
	assert.True(t, balance(1500))
	assert.True(t, balance(5010))

	result := Predicate(TypeResult)
	assert.False(t, result(1500), "balance accounts stay out of the result report")
	assert.False(t, result(2740))
	assert.True(t, result(5010))
	assert.True(t, result(6100))
	assert.True(t, result(7220))
	assert.True(t, result(8050))
	assert.False(t, result(9100))
}

func TestBuildOrdersAndJoinsNames(t *testing.T) {
	names, _ := mockNames{}.NamesByNumber(context.Background(), 1)
	rows := Build(TypeBalance, testSums(), names)

	require.Len(t, rows, 4)
	assert.Equal(t, int64(1500), rows[0].AccountNo)
	assert.Equal(t, "Trade receivables", rows[0].AccountName)
	assert.Equal(t, int64(7220), rows[3].AccountNo)
	assert.InDelta(t, 120.0, rows[3].Amount, 0.001, "amounts are rounded to 2dp")
}

func TestBuildResultFiltersBalanceAccounts(t *testing.T) {
	rows := Build(TypeResult, testSums(), nil)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(5010), rows[0].AccountNo)
	assert.Equal(t, int64(7220), rows[1].AccountNo)
}

func TestGenerateServesSnapshotOnRepeat(t *testing.T) {
	repo := &mockReportsRepo{sums: testSums()}
	svc := newReportsService(t, repo)

	first, err := svc.Generate(context.Background(), 1, TypeBalance, from, to)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), 1, TypeBalance, from, to)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls, "second call must come from the snapshot")
}

func TestGenerateRecomputesAfterBump(t *testing.T) {
	repo := &mockReportsRepo{sums: testSums()}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, mockNames{}, cache)

	_, err := svc.Generate(context.Background(), 1, TypeBalance, from, to)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(context.Background()))

	_, err = svc.Generate(context.Background(), 1, TypeBalance, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls, "bump invalidates the snapshot")
}

func TestGenerateDistinguishesArguments(t *testing.T) {
	repo := &mockReportsRepo{sums: testSums()}
	svc := newReportsService(t, repo)

	_, err := svc.Generate(context.Background(), 1, TypeBalance, from, to)
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), 1, TypeResult, from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.calls, "each report type keeps its own snapshot")
}

func TestGenerateWithoutCacheFallsBack(t *testing.T) {
	repo := &mockReportsRepo{sums: testSums()}
	svc := NewService(repo, mockNames{}, nil)

	rows, err := svc.Generate(context.Background(), 1, TypeResult, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, repo.calls)
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	repo := &mockReportsRepo{sums: testSums()}
	svc := newReportsService(t, repo)

	_, err := svc.Generate(context.Background(), 1, Type("cashflow"), from, to)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	assert.Zero(t, repo.calls)
}

func TestWarmupMaterialisesBothReports(t *testing.T) {
	repo := &mockReportsRepo{sums: testSums()}
	svc := newReportsService(t, repo)

	require.NoError(t, svc.Warmup(context.Background(), 1, from, to))
	assert.Equal(t, 2, repo.calls)

	_, err := svc.Generate(context.Background(), 1, TypeBalance, from, to)
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), 1, TypeResult, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls, "warm snapshots serve both report types")
}
