package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// EntryType distinguishes ordinary postings from opening balances.
type EntryType string

const (
	EntryTypeNormal EntryType = "NORMAL"
	EntryTypePrimo  EntryType = "PRIMO"
)

// Entry is an immutable general-ledger posting. Rows are append-only:
// corrections are new entries, never edits.
type Entry struct {
	GUID        uuid.UUID
	OrgID       int64
	AccountNo   int64
	VoucherNo   int64
	VoucherType string
	EntryDate   time.Time
	Amount      float64
	Description string
	VATCode     *string
	EntryType   EntryType
	ContactID   *int64
	CreatedAt   time.Time
}

// DocumentHeader is the slice of a source document the export snapshot
// carries alongside its entries.
type DocumentHeader struct {
	GUID         uuid.UUID
	Class        string
	Number       int64
	DocumentDate time.Time
	Currency     string
	ContactID    *int64
	TotalInclVAT float64
}

// Snapshot is the export payload: immutable entries ordered by voucher
// number then insertion order, plus the referenced document headers.
type Snapshot struct {
	Entries   []Entry
	Documents []DocumentHeader
}

// UnbalancedError reports candidate entries that do not net to zero.
type UnbalancedError struct {
	Sum float64
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: entries do not balance (sum %.2f)", e.Sum)
}

// ErrorKind classifies the error for the API envelope.
func (e *UnbalancedError) ErrorKind() shared.ErrorKind { return shared.KindNotBalanced }
