package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// ImportEntry is one incoming row from an external audit-file importer.
// Either a signed Amount or a Debit/Credit pair is accepted; pairs are
// normalised to a signed amount. Master-data dedup (accounts, contacts)
// is the importer's job before it reaches this service.
type ImportEntry struct {
	AccountNo   int64   `json:"accountNo" validate:"required"`
	VoucherNo   int64   `json:"voucherNo"`
	VoucherType string  `json:"voucherType"`
	EntryDate   string  `json:"entryDate" validate:"required,datetime=2006-01-02"`
	Amount      float64 `json:"amount"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description"`
	VATCode     *string `json:"vatCode"`
	EntryType   string  `json:"entryType"`
	ContactID   *int64  `json:"contactId"`
}

// Service exposes ledger reads, the import path and the export snapshot.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, orgID int64, filter ListFilter) ([]Entry, error) {
	return s.repo.List(ctx, orgID, filter)
}

func (s *Service) Export(ctx context.Context, orgID int64, from, to time.Time) (Snapshot, error) {
	return s.repo.ExportSnapshot(ctx, orgID, from, to)
}

// Import normalises and persists externally produced entries.
func (s *Service) Import(ctx context.Context, orgID int64, incoming []ImportEntry) (int, error) {
	if len(incoming) == 0 {
		return 0, shared.NewError(shared.KindValidation, "ledger: no entries to import")
	}
	entries := make([]Entry, 0, len(incoming))
	for _, in := range incoming {
		date, err := time.Parse("2006-01-02", in.EntryDate)
		if err != nil {
			return 0, shared.NewError(shared.KindValidation, "ledger: invalid entry date "+in.EntryDate)
		}
		amount := in.Amount
		if amount == 0 {
			amount = in.Debit - in.Credit
		}
		if amount == 0 {
			return 0, shared.NewError(shared.KindValidation, "ledger: entry amount required")
		}
		entryType := EntryTypeNormal
		if in.EntryType == string(EntryTypePrimo) {
			entryType = EntryTypePrimo
		}
		voucherType := in.VoucherType
		if voucherType == "" {
			voucherType = "IMPORT"
		}
		entries = append(entries, Entry{
			GUID:        uuid.New(),
			OrgID:       orgID,
			AccountNo:   in.AccountNo,
			VoucherNo:   in.VoucherNo,
			VoucherType: voucherType,
			EntryDate:   date,
			Amount:      shared.Round2(amount),
			Description: in.Description,
			VATCode:     in.VATCode,
			EntryType:   entryType,
			ContactID:   in.ContactID,
		})
	}
	return s.repo.ImportEntries(ctx, orgID, entries)
}
