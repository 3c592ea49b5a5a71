package periods

import (
	"context"
	"time"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Service exposes period administration and the lock guard.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, orgID int64, from, to time.Time) (Period, error) {
	if !to.After(from) {
		return Period{}, shared.NewError(shared.KindValidation, "periods: to date must be after from date")
	}
	return s.repo.Create(ctx, orgID, from, to)
}

func (s *Service) List(ctx context.Context, orgID int64) ([]Period, error) {
	return s.repo.List(ctx, orgID)
}

// Lock marks the period locked. Idempotent.
func (s *Service) Lock(ctx context.Context, orgID, id int64) (Period, error) {
	return s.repo.SetLock(ctx, orgID, id, true)
}

// Unlock clears the lock flag. Idempotent.
func (s *Service) Unlock(ctx context.Context, orgID, id int64) (Period, error) {
	return s.repo.SetLock(ctx, orgID, id, false)
}

// EnsureOpen refuses dates covered by a locked period.
func (s *Service) EnsureOpen(ctx context.Context, orgID int64, date time.Time) error {
	locked, err := s.repo.LockedCovering(ctx, orgID, date)
	if err != nil {
		return err
	}
	if locked {
		return &LockedError{Date: date}
	}
	return nil
}
