package documents

import (
	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// LineInput is one draft line item as submitted by the caller. Either
// Quantity×UnitPrice or a pre-computed BaseAmount supplies the base; an
// explicit VATRate wins over the VATCode registry lookup.
type LineInput struct {
	AccountNo   int64
	Description string
	Quantity    float64
	UnitPrice   float64
	BaseAmount  *float64
	DiscountPct float64
	VATCode     *string
	VATRate     *float64
}

// ComputeTotals derives document totals and fully resolved lines from the
// draft inputs. Pure: the VAT registry arrives as a code→rate map (missing
// code resolves to rate 0). Each monetary figure is rounded to 2dp per
// line before summation.
func ComputeTotals(inputs []LineInput, vatRates map[string]float64) (Totals, []Line) {
	var totals Totals
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		var base float64
		if in.BaseAmount != nil {
			base = shared.Round2(*in.BaseAmount)
		} else {
			base = shared.MulRound2(in.UnitPrice, in.Quantity, 1-in.DiscountPct/100)
		}
		var rate float64
		switch {
		case in.VATRate != nil:
			rate = *in.VATRate
		case in.VATCode != nil:
			rate = vatRates[*in.VATCode]
		}
		incl := shared.MulRound2(base, 1+rate)

		totals.ExclVAT = shared.Round2(totals.ExclVAT + base)
		if rate > 0 {
			totals.VATable = shared.Round2(totals.VATable + base)
		} else {
			totals.NonVATable = shared.Round2(totals.NonVATable + base)
		}
		totals.InclVAT = shared.Round2(totals.InclVAT + incl)

		lines = append(lines, Line{
			AccountNo:     in.AccountNo,
			Description:   in.Description,
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			DiscountPct:   in.DiscountPct,
			VATCode:       in.VATCode,
			VATRate:       rate,
			BaseAmount:    base,
			InclVATAmount: incl,
		})
	}
	totals.VAT = shared.Round2(totals.InclVAT - totals.ExclVAT)
	return totals, lines
}
