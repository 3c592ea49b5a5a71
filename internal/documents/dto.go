package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// LineRequest is the wire form of a draft line item.
type LineRequest struct {
	AccountNo   int64    `json:"accountNo" validate:"required"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	BaseAmount  *float64 `json:"baseAmount"`
	DiscountPct float64  `json:"discountPct" validate:"gte=0,lte=100"`
	VATCode     *string  `json:"vatCode"`
	VATRate     *float64 `json:"vatRate"`
}

// CreateRequest creates a draft document.
type CreateRequest struct {
	Class           string        `json:"class" validate:"required"`
	DocumentDate    string        `json:"documentDate" validate:"required,datetime=2006-01-02"`
	Currency        string        `json:"currency" validate:"required,len=3"`
	ContactID       *int64        `json:"contactId"`
	Template        string        `json:"template"`
	PaymentTermDays int           `json:"paymentTermDays" validate:"gte=0"`
	Lines           []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateRequest replaces a draft's header fields and lines wholesale.
type UpdateRequest struct {
	DocumentDate    string        `json:"documentDate" validate:"required,datetime=2006-01-02"`
	Currency        string        `json:"currency" validate:"required,len=3"`
	ContactID       *int64        `json:"contactId"`
	Template        string        `json:"template"`
	PaymentTermDays int           `json:"paymentTermDays" validate:"gte=0"`
	Lines           []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// BookResult reports a successful booking.
type BookResult struct {
	GUID          uuid.UUID
	VoucherNumber int64
}

func toLineInputs(reqs []LineRequest) []LineInput {
	out := make([]LineInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, LineInput{
			AccountNo:   r.AccountNo,
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			BaseAmount:  r.BaseAmount,
			DiscountPct: r.DiscountPct,
			VATCode:     r.VATCode,
			VATRate:     r.VATRate,
		})
	}
	return out
}

func parseDocumentDate(v string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, shared.NewError(shared.KindValidation, "documents: invalid document date")
	}
	return date, nil
}
