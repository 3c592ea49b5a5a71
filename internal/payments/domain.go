package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/documents"
	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Payment is an append-only row against a booked document. A document's
// paid-so-far is always the sum of its payments.
type Payment struct {
	ID           int64
	OrgID        int64
	DocumentGUID uuid.UUID
	PaidAt       time.Time
	Amount       float64
	Method       string
	Note         string
	CreatedAt    time.Time
}

// DocumentView is the slice of a document the processor needs.
type DocumentView struct {
	GUID            uuid.UUID
	OrgID           int64
	Status          documents.Status
	DocumentDate    time.Time
	PaymentTermDays int
	TotalInclVAT    float64
	DeletedAt       *time.Time
}

// DueDate derives when the document falls due.
func (d DocumentView) DueDate() time.Time {
	return d.DocumentDate.AddDate(0, 0, d.PaymentTermDays)
}

// Result reports the outcome of recording a payment.
type Result struct {
	Status            documents.Status
	PaidTotal         float64
	RemainingAmount   float64
	AdditionalCharges float64
}

var (
	// ErrDocumentNotFound indicates the target document is missing or deleted.
	ErrDocumentNotFound = shared.NewError(shared.KindNotFound, "payments: document not found")
	// ErrNotBooked indicates a payment against a draft.
	ErrNotBooked = shared.NewError(shared.KindValidation, "payments: payments apply only to booked documents")
	// ErrZeroAmount indicates a zero payment amount.
	ErrZeroAmount = shared.NewError(shared.KindValidation, "payments: amount must be non-zero")
)
