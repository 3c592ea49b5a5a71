package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kontor-erp/kontor-erp/internal/ledger"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"draft to booked", StatusDraft, StatusBooked, true},
		{"draft to paid", StatusDraft, StatusPaid, false},
		{"draft to partial", StatusDraft, StatusPartial, false},
		{"booked to partial", StatusBooked, StatusPartial, true},
		{"booked to overdue", StatusBooked, StatusOverdue, true},
		{"booked to paid", StatusBooked, StatusPaid, true},
		{"booked to overpaid", StatusBooked, StatusOverPaid, true},
		{"booked back to draft", StatusBooked, StatusDraft, false},
		{"partial to paid", StatusPartial, StatusPaid, true},
		{"overdue to paid", StatusOverdue, StatusPaid, true},
		{"paid to partial", StatusPaid, StatusPartial, true},
		{"paid back to draft", StatusPaid, StatusDraft, false},
		{"booked to booked again", StatusBooked, StatusBooked, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusDraft.IsDraft())
	assert.False(t, StatusDraft.IsBooked())
	assert.True(t, StatusBooked.IsBooked())
	assert.True(t, StatusPartial.IsBooked())
	assert.True(t, StatusOverdue.IsBooked())
	assert.False(t, Status("").IsBooked())
}

func TestClassValidAndPostingKind(t *testing.T) {
	assert.True(t, ClassInvoice.Valid())
	assert.True(t, ClassPurchaseCreditNote.Valid())
	assert.False(t, Class("RECEIPT").Valid())

	assert.Equal(t, ledger.PostingSales, ClassInvoice.PostingKind())
	assert.Equal(t, ledger.PostingSales, ClassCreditNote.PostingKind())
	assert.Equal(t, ledger.PostingPurchase, ClassPurchaseVoucher.PostingKind())
	assert.Equal(t, ledger.PostingManual, ClassManualVoucher.PostingKind())
}

func TestTotalsNegated(t *testing.T) {
	totals := Totals{ExclVAT: 200, VATable: 200, NonVATable: 0, InclVAT: 250, VAT: 50}
	neg := totals.Negated()
	assert.Equal(t, -200.0, neg.ExclVAT)
	assert.Equal(t, -200.0, neg.VATable)
	assert.Equal(t, -250.0, neg.InclVAT)
	assert.Equal(t, -50.0, neg.VAT)
}
