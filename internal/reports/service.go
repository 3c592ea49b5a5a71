package reports

import (
	"context"
	"time"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// NameSource resolves account display names.
type NameSource interface {
	NamesByNumber(ctx context.Context, orgID int64) (map[int64]string, error)
}

// Service generates balance and result reports from posted entries,
// serving a materialised snapshot when one exists for the exact arguments.
type Service struct {
	repo  Repository
	names NameSource
	cache *Cache
}

func NewService(repo Repository, names NameSource, cache *Cache) *Service {
	return &Service{repo: repo, names: names, cache: cache}
}

// Generate returns ordered report rows for the organisation and period.
func (s *Service) Generate(ctx context.Context, orgID int64, t Type, from, to time.Time) ([]Row, error) {
	if !t.Valid() {
		return nil, shared.NewError(shared.KindValidation, "reports: unknown report type "+string(t))
	}
	loader := func(ctx context.Context) ([]Row, error) {
		sums, err := s.repo.SumByAccount(ctx, orgID, from, to)
		if err != nil {
			return nil, err
		}
		names, err := s.names.NamesByNumber(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return Build(t, sums, names), nil
	}
	if s.cache == nil {
		return loader(ctx)
	}
	key, err := s.cache.Key(ctx, orgID, t, from, to)
	if err != nil {
		return nil, err
	}
	return s.cache.Fetch(ctx, key, loader)
}

// Warmup materialises the standard snapshots for an organisation, used by
// the background warmup job after postings.
func (s *Service) Warmup(ctx context.Context, orgID int64, from, to time.Time) error {
	for _, t := range []Type{TypeBalance, TypeResult} {
		if _, err := s.Generate(ctx, orgID, t, from, to); err != nil {
			return err
		}
	}
	return nil
}

// OrgIDs lists organisations with at least one posted entry.
func (s *Service) OrgIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListOrgIDs(ctx)
}
