package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/accounts"
	"github.com/kontor-erp/kontor-erp/internal/documents"
	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// SettingsSource supplies the organisation's overdue fee and rate.
type SettingsSource interface {
	GetSettings(ctx context.Context, orgID int64) (accounts.Settings, error)
}

// Input describes an incoming payment.
type Input struct {
	Amount float64
	PaidAt time.Time
	Method string
	Note   string
}

// Service applies payments against booked documents and derives the
// payment substate, remaining balance and overdue charges.
type Service struct {
	repo     Repository
	settings SettingsSource
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, settings SettingsSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, settings: settings, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Record appends a payment and recomputes the document's payment state.
func (s *Service) Record(ctx context.Context, orgID int64, guid uuid.UUID, in Input) (Result, error) {
	if in.Amount == 0 {
		return Result{}, ErrZeroAmount
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = s.now()
	}
	cfg, err := s.settings.GetSettings(ctx, orgID)
	if err != nil {
		return Result{}, err
	}
	var result Result
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocumentForUpdate(ctx, orgID, guid)
		if err != nil {
			return err
		}
		if doc.DeletedAt != nil {
			return ErrDocumentNotFound
		}
		if !doc.Status.IsBooked() {
			return ErrNotBooked
		}
		if err := tx.InsertPayment(ctx, Payment{
			OrgID:        orgID,
			DocumentGUID: guid,
			PaidAt:       in.PaidAt,
			Amount:       shared.Round2(in.Amount),
			Method:       in.Method,
			Note:         in.Note,
		}); err != nil {
			return err
		}
		paid, err := tx.SumPayments(ctx, orgID, guid)
		if err != nil {
			return err
		}
		result = deriveState(doc, paid, cfg, s.now())
		var paidAt *time.Time
		if result.Status == documents.StatusPaid {
			at := in.PaidAt
			paidAt = &at
		}
		return tx.SetPaymentStatus(ctx, orgID, guid, result.Status, paidAt)
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// deriveState computes remaining balance, overdue charges and the
// resulting substate for a booked document.
func deriveState(doc DocumentView, paid float64, cfg accounts.Settings, now time.Time) Result {
	remaining := shared.Round2(doc.TotalInclVAT - paid)
	result := Result{PaidTotal: shared.Round2(paid)}
	due := doc.DueDate()
	if now.After(due) && remaining > shared.BalanceEpsilon {
		daysOverdue := int(now.Sub(due).Hours() / 24)
		interest := shared.MulRound2(remaining, cfg.OverdueAnnualRatePct/100, float64(daysOverdue)/365)
		additional := shared.Round2(cfg.OverdueFee + interest)
		result.AdditionalCharges = additional
		result.RemainingAmount = shared.Round2(remaining + additional)
		result.Status = documents.StatusOverdue
		return result
	}
	result.RemainingAmount = remaining
	switch {
	case shared.NearZero(remaining):
		result.RemainingAmount = 0
		result.Status = documents.StatusPaid
	case remaining < 0:
		result.Status = documents.StatusOverPaid
	default:
		result.Status = documents.StatusPartial
	}
	return result
}

// ListForDocument returns the payment history for a document.
func (s *Service) ListForDocument(ctx context.Context, orgID int64, guid uuid.UUID) ([]Payment, error) {
	return s.repo.ListForDocument(ctx, orgID, guid)
}

// ScanOverdue flips booked documents past their due date to Overdue.
// Run nightly by the worker; skips documents whose organisation settings
// cannot be loaded rather than failing the whole sweep.
func (s *Service) ScanOverdue(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.repo.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	flipped := 0
	for _, doc := range candidates {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			current, err := tx.GetDocumentForUpdate(ctx, doc.OrgID, doc.GUID)
			if err != nil {
				return err
			}
			if current.Status != documents.StatusBooked && current.Status != documents.StatusPartial {
				return nil
			}
			return tx.SetPaymentStatus(ctx, doc.OrgID, doc.GUID, documents.StatusOverdue, nil)
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("overdue scan skip", slog.String("document", doc.GUID.String()), slog.Any("error", err))
			}
			continue
		}
		flipped++
	}
	return flipped, nil
}
