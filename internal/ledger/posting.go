package ledger

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// vatThreshold suppresses VAT entries for negligible amounts.
const vatThreshold = 0.001

// PostingKind selects the entry-construction algorithm.
type PostingKind int

const (
	// PostingSales synthesises receivable and VAT entries per line.
	PostingSales PostingKind = iota
	// PostingPurchase mirrors sales with the payable account and
	// inverted signs.
	PostingPurchase
	// PostingManual takes entries verbatim from user-authored lines.
	PostingManual
)

// PostingAccounts carries the organisation's configured counter accounts.
type PostingAccounts struct {
	Receivable int64
	Payable    int64
	VAT        int64
}

// Source describes the document being posted.
type Source struct {
	OrgID       int64
	VoucherNo   int64
	VoucherType string
	Date        time.Time
	Description string
	ContactID   *int64
}

// SourceLine carries the per-line monetary figures the engine posts from.
// For manual vouchers Base is the signed entry amount and the other
// monetary fields are ignored.
type SourceLine struct {
	AccountNo int64
	Base      float64
	InclVAT   float64
	VAT       float64
	VATCode   *string
}

// BuildEntries constructs the candidate ledger entries for a document.
// Sales documents emit, per line, a debit to the receivable account for the
// incl-VAT amount, a credit to the line account for the base, and a VAT
// credit when the line carries VAT. Purchase documents mirror this against
// the payable account. Manual vouchers are copied verbatim: the lines are
// the explicit user-authored alternative and must already net to zero.
func BuildEntries(kind PostingKind, src Source, lines []SourceLine, acc PostingAccounts) []Entry {
	entries := make([]Entry, 0, len(lines)*3)
	for _, line := range lines {
		switch kind {
		case PostingManual:
			entries = append(entries, newEntry(src, line.AccountNo, line.Base, line.VATCode))
		case PostingPurchase:
			entries = append(entries, newEntry(src, acc.Payable, -line.InclVAT, nil))
			entries = append(entries, newEntry(src, line.AccountNo, line.Base, line.VATCode))
			if math.Abs(line.VAT) > vatThreshold {
				entries = append(entries, newEntry(src, acc.VAT, line.VAT, nil))
			}
		default:
			entries = append(entries, newEntry(src, acc.Receivable, line.InclVAT, nil))
			entries = append(entries, newEntry(src, line.AccountNo, -line.Base, line.VATCode))
			if math.Abs(line.VAT) > vatThreshold {
				entries = append(entries, newEntry(src, acc.VAT, -line.VAT, nil))
			}
		}
	}
	return entries
}

func newEntry(src Source, accountNo int64, amount float64, vatCode *string) Entry {
	return Entry{
		GUID:        uuid.New(),
		OrgID:       src.OrgID,
		AccountNo:   accountNo,
		VoucherNo:   src.VoucherNo,
		VoucherType: src.VoucherType,
		EntryDate:   src.Date,
		Amount:      shared.Round2(amount),
		Description: src.Description,
		VATCode:     vatCode,
		EntryType:   EntryTypeNormal,
		ContactID:   src.ContactID,
	}
}

// ValidateBalanced checks that candidate entries net to zero within the
// balance epsilon. Nothing is written when this fails.
func ValidateBalanced(entries []Entry) error {
	var sum float64
	for _, e := range entries {
		sum += e.Amount
	}
	if !shared.NearZero(sum) {
		return &UnbalancedError{Sum: shared.Round2(sum)}
	}
	return nil
}
