package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/ledger"
	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Class enumerates the commercial document classes.
type Class string

const (
	ClassInvoice            Class = "INVOICE"
	ClassCreditNote         Class = "CREDIT_NOTE"
	ClassManualVoucher      Class = "MANUAL_VOUCHER"
	ClassPurchaseVoucher    Class = "PURCHASE_VOUCHER"
	ClassPurchaseCreditNote Class = "PURCHASE_CREDIT_NOTE"
)

// Valid reports whether c is a known document class.
func (c Class) Valid() bool {
	switch c {
	case ClassInvoice, ClassCreditNote, ClassManualVoucher, ClassPurchaseVoucher, ClassPurchaseCreditNote:
		return true
	}
	return false
}

// PostingKind maps the class onto the ledger entry-construction algorithm.
func (c Class) PostingKind() ledger.PostingKind {
	switch c {
	case ClassManualVoucher:
		return ledger.PostingManual
	case ClassPurchaseVoucher, ClassPurchaseCreditNote:
		return ledger.PostingPurchase
	default:
		return ledger.PostingSales
	}
}

// Status is the closed document state enum. Payment substates apply only
// after booking; deletion is tracked separately via DeletedAt.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusBooked   Status = "BOOKED"
	StatusPartial  Status = "PARTIAL"
	StatusOverdue  Status = "OVERDUE"
	StatusPaid     Status = "PAID"
	StatusOverPaid Status = "OVERPAID"
)

// IsDraft reports whether the document may still be edited.
func (s Status) IsDraft() bool { return s == StatusDraft }

// IsBooked reports whether the document has been posted (any non-draft
// state, including payment substates).
func (s Status) IsBooked() bool { return s != StatusDraft && s != "" }

// paymentSubstates are mutually reachable once a document is booked.
var paymentSubstates = map[Status]bool{
	StatusPartial:  true,
	StatusOverdue:  true,
	StatusPaid:     true,
	StatusOverPaid: true,
}

// CanTransition encodes the state machine: Draft moves only to Booked;
// Booked and the payment substates move freely among the substates as
// payments arrive. A document never re-enters Draft.
func (s Status) CanTransition(to Status) bool {
	switch {
	case s == StatusDraft:
		return to == StatusBooked
	case s.IsBooked():
		return paymentSubstates[to]
	}
	return false
}

// Totals are the five derived monetary figures of a document.
type Totals struct {
	ExclVAT    float64
	VATable    float64
	NonVATable float64
	InclVAT    float64
	VAT        float64
}

// Negated returns the totals with all five figures sign-inverted.
func (t Totals) Negated() Totals {
	return Totals{
		ExclVAT:    -t.ExclVAT,
		VATable:    -t.VATable,
		NonVATable: -t.NonVATable,
		InclVAT:    -t.InclVAT,
		VAT:        -t.VAT,
	}
}

// Document generalises invoices, credit notes, manual vouchers and
// purchase vouchers. Mutable only while Status is Draft.
type Document struct {
	GUID            uuid.UUID
	OrgID           int64
	Class           Class
	Number          *int64
	DocumentDate    time.Time
	Currency        string
	ContactID       *int64
	Template        string
	PaymentTermDays int
	Status          Status
	Totals          Totals
	PaidAt          *time.Time
	CreditedByGUID  *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Line belongs to exactly one document; line sets are replaced wholesale
// in the same transaction as the document update.
type Line struct {
	ID            int64
	DocumentGUID  uuid.UUID
	AccountNo     int64
	Description   string
	Quantity      float64
	UnitPrice     float64
	DiscountPct   float64
	VATCode       *string
	VATRate       float64
	BaseAmount    float64
	InclVATAmount float64
}

var (
	// ErrNotFound indicates the document does not exist for the organisation.
	ErrNotFound = shared.NewError(shared.KindNotFound, "documents: document not found")
	// ErrNotDraft indicates an edit, booking or hard delete attempted on a
	// non-draft document.
	ErrNotDraft = shared.NewError(shared.KindNotDraft, "documents: operation permitted only while draft")
	// ErrNoLines indicates a document without line items.
	ErrNoLines = shared.NewError(shared.KindValidation, "documents: at least one line is required")
	// ErrSourceNotBooked indicates a reversal requested for a draft source.
	ErrSourceNotBooked = shared.NewError(shared.KindValidation, "documents: reversal source must be booked")
	// ErrSourceNotInvoice indicates a reversal requested for a non-invoice.
	ErrSourceNotInvoice = shared.NewError(shared.KindValidation, "documents: reversals are generated from invoices")
)
