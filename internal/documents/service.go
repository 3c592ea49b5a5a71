package documents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/accounts"
	"github.com/kontor-erp/kontor-erp/internal/ledger"
	"github.com/kontor-erp/kontor-erp/internal/periods"
	"github.com/kontor-erp/kontor-erp/internal/sequence"
	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// MasterData supplies the read-only lookups the lifecycle needs: the VAT
// registry and the organisation's posting defaults.
type MasterData interface {
	VATRates(ctx context.Context, orgID int64) (map[string]float64, error)
	GetSettings(ctx context.Context, orgID int64) (accounts.Settings, error)
}

// CacheBumper invalidates cached report snapshots after a posting.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// WarmupEnqueuer schedules a background snapshot rebuild for one
// organisation.
type WarmupEnqueuer interface {
	EnqueueReportWarmup(ctx context.Context, orgID int64) error
}

// Service is the document lifecycle controller. It owns the state machine
// and orchestrates the period guard, the sequence allocator and the
// posting engine inside a single transaction per operation.
type Service struct {
	repo   Repository
	master MasterData
	logger *slog.Logger
	bumper CacheBumper
	warmer WarmupEnqueuer
	now    func() time.Time
}

func NewService(repo Repository, master MasterData, logger *slog.Logger) *Service {
	return &Service{repo: repo, master: master, logger: logger, now: time.Now}
}

// WithCacheBumper attaches an optional report-cache invalidation hook.
func (s *Service) WithCacheBumper(b CacheBumper) *Service {
	s.bumper = b
	return s
}

// WithWarmupEnqueuer attaches an optional hook that rebuilds report
// snapshots after a posting.
func (s *Service) WithWarmupEnqueuer(w WarmupEnqueuer) *Service {
	s.warmer = w
	return s
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create persists a new draft with computed totals and its lines.
func (s *Service) Create(ctx context.Context, orgID int64, req CreateRequest) (Document, error) {
	class := Class(req.Class)
	if !class.Valid() {
		return Document{}, shared.NewError(shared.KindValidation, "documents: unknown document class "+req.Class)
	}
	if len(req.Lines) == 0 {
		return Document{}, ErrNoLines
	}
	date, err := parseDocumentDate(req.DocumentDate)
	if err != nil {
		return Document{}, err
	}
	rates, err := s.master.VATRates(ctx, orgID)
	if err != nil {
		return Document{}, fmt.Errorf("load vat registry: %w", err)
	}
	totals, lines := ComputeTotals(toLineInputs(req.Lines), rates)
	doc := Document{
		GUID:            uuid.New(),
		OrgID:           orgID,
		Class:           class,
		DocumentDate:    date,
		Currency:        req.Currency,
		ContactID:       req.ContactID,
		Template:        req.Template,
		PaymentTermDays: req.PaymentTermDays,
		Status:          StatusDraft,
		Totals:          totals,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertDocument(ctx, doc); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, doc.GUID, lines)
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Update replaces a draft's header and lines and recomputes totals.
// Non-draft documents are immutable.
func (s *Service) Update(ctx context.Context, orgID int64, guid uuid.UUID, req UpdateRequest) (Document, error) {
	if len(req.Lines) == 0 {
		return Document{}, ErrNoLines
	}
	date, err := parseDocumentDate(req.DocumentDate)
	if err != nil {
		return Document{}, err
	}
	rates, err := s.master.VATRates(ctx, orgID)
	if err != nil {
		return Document{}, fmt.Errorf("load vat registry: %w", err)
	}
	totals, lines := ComputeTotals(toLineInputs(req.Lines), rates)
	var updated Document
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, orgID, guid)
		if err != nil {
			return err
		}
		if doc.DeletedAt != nil {
			return ErrNotFound
		}
		if !doc.Status.IsDraft() {
			return ErrNotDraft
		}
		doc.DocumentDate = date
		doc.Currency = req.Currency
		doc.ContactID = req.ContactID
		doc.Template = req.Template
		doc.PaymentTermDays = req.PaymentTermDays
		doc.Totals = totals
		if err := tx.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		if err := tx.ReplaceLines(ctx, guid, lines); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// Book converts a draft into ledger entries: period guard, number
// allocation, entry construction, balance validation and the status flip
// all commit or roll back together. A conflict on the booked-number
// constraint restarts the transaction with a fresh number.
func (s *Service) Book(ctx context.Context, orgID int64, guid uuid.UUID) (BookResult, error) {
	settings, err := s.master.GetSettings(ctx, orgID)
	if err != nil {
		return BookResult{}, err
	}
	acc := ledger.PostingAccounts{
		Receivable: settings.ReceivableAccount,
		Payable:    settings.PayableAccount,
		VAT:        settings.VATAccount,
	}
	var result BookResult
	err = sequence.WithRetry(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			doc, err := tx.GetForUpdate(ctx, orgID, guid)
			if err != nil {
				return err
			}
			if doc.DeletedAt != nil {
				return ErrNotFound
			}
			if !doc.Status.IsDraft() {
				return ErrNotDraft
			}
			locked, err := tx.LockedPeriodExists(ctx, orgID, doc.DocumentDate)
			if err != nil {
				return err
			}
			if locked {
				return &periods.LockedError{Date: doc.DocumentDate}
			}
			lines, err := tx.GetLines(ctx, guid)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return ErrNoLines
			}
			number := int64(0)
			if doc.Number != nil {
				number = *doc.Number
			} else {
				number, err = tx.NextNumber(ctx, orgID, doc.Class)
				if err != nil {
					return err
				}
			}
			entries := ledger.BuildEntries(doc.Class.PostingKind(), ledger.Source{
				OrgID:       orgID,
				VoucherNo:   number,
				VoucherType: string(doc.Class),
				Date:        doc.DocumentDate,
				Description: doc.Template,
				ContactID:   doc.ContactID,
			}, toSourceLines(lines), acc)
			if err := ledger.ValidateBalanced(entries); err != nil {
				return err
			}
			if err := tx.SetBooked(ctx, orgID, guid, number); err != nil {
				return err
			}
			if err := tx.InsertEntries(ctx, entries); err != nil {
				return err
			}
			result = BookResult{GUID: guid, VoucherNumber: number}
			return nil
		})
	})
	if err != nil {
		return BookResult{}, err
	}
	s.bumpCache(ctx)
	s.enqueueWarmup(ctx, orgID)
	return result, nil
}

// Delete removes a draft entirely; booked documents are only soft-deleted
// so posted ledger history stays queryable.
func (s *Service) Delete(ctx context.Context, orgID int64, guid uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, orgID, guid)
		if err != nil {
			return err
		}
		if doc.DeletedAt != nil {
			return ErrNotFound
		}
		if doc.Status.IsDraft() {
			return tx.HardDelete(ctx, orgID, guid)
		}
		return tx.SoftDelete(ctx, orgID, guid, s.now())
	})
}

// CreateReversal generates a credit note mirroring a booked invoice: all
// five totals and every line's quantity, base and incl-VAT amount are
// negated, and the source records a back-link. The credit note enters the
// world as a draft numbered from the credit-note sequence; posting it
// follows the normal booking flow.
func (s *Service) CreateReversal(ctx context.Context, orgID int64, sourceGUID uuid.UUID) (Document, error) {
	var credit Document
	err := sequence.WithRetry(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			source, err := tx.GetForUpdate(ctx, orgID, sourceGUID)
			if err != nil {
				return err
			}
			if source.DeletedAt != nil {
				return ErrNotFound
			}
			if source.Class != ClassInvoice {
				return ErrSourceNotInvoice
			}
			if !source.Status.IsBooked() {
				return ErrSourceNotBooked
			}
			sourceLines, err := tx.GetLines(ctx, sourceGUID)
			if err != nil {
				return err
			}
			number, err := tx.NextNumber(ctx, orgID, ClassCreditNote)
			if err != nil {
				return err
			}
			credit = Document{
				GUID:            uuid.New(),
				OrgID:           orgID,
				Class:           ClassCreditNote,
				Number:          &number,
				DocumentDate:    s.now(),
				Currency:        source.Currency,
				ContactID:       source.ContactID,
				Template:        source.Template,
				PaymentTermDays: source.PaymentTermDays,
				Status:          StatusDraft,
				Totals:          source.Totals.Negated(),
			}
			if err := tx.InsertDocument(ctx, credit); err != nil {
				return err
			}
			lines := make([]Line, 0, len(sourceLines))
			for _, l := range sourceLines {
				lines = append(lines, Line{
					AccountNo:     l.AccountNo,
					Description:   l.Description,
					Quantity:      -l.Quantity,
					UnitPrice:     l.UnitPrice,
					DiscountPct:   l.DiscountPct,
					VATCode:       l.VATCode,
					VATRate:       l.VATRate,
					BaseAmount:    -l.BaseAmount,
					InclVATAmount: -l.InclVATAmount,
				})
			}
			if err := tx.ReplaceLines(ctx, credit.GUID, lines); err != nil {
				return err
			}
			return tx.SetCreditedBy(ctx, orgID, sourceGUID, credit.GUID)
		})
	})
	if err != nil {
		return Document{}, err
	}
	return credit, nil
}

// Get returns a document with its lines.
func (s *Service) Get(ctx context.Context, orgID int64, guid uuid.UUID) (Document, []Line, error) {
	doc, err := s.repo.Get(ctx, orgID, guid)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.DeletedAt != nil {
		return Document{}, nil, ErrNotFound
	}
	lines, err := s.repo.GetLines(ctx, guid)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

// List returns documents with pagination metadata.
func (s *Service) List(ctx context.Context, orgID int64, filter ListFilter, page, perPage int) ([]Document, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	filter.Limit = p.PerPage
	filter.Offset = p.Offset()
	docs, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return docs, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.bumper == nil {
		return
	}
	if err := s.bumper.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("report cache bump", slog.Any("error", err))
	}
}

func (s *Service) enqueueWarmup(ctx context.Context, orgID int64) {
	if s.warmer == nil {
		return
	}
	if err := s.warmer.EnqueueReportWarmup(ctx, orgID); err != nil && s.logger != nil {
		s.logger.Warn("report warmup enqueue", slog.Any("error", err), slog.Int64("org_id", orgID))
	}
}

func toSourceLines(lines []Line) []ledger.SourceLine {
	out := make([]ledger.SourceLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, ledger.SourceLine{
			AccountNo: l.AccountNo,
			Base:      l.BaseAmount,
			InclVAT:   l.InclVATAmount,
			VAT:       shared.Round2(l.InclVATAmount - l.BaseAmount),
			VATCode:   l.VATCode,
		})
	}
	return out
}
