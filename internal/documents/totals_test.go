package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestComputeTotalsStandardVAT(t *testing.T) {
	rates := map[string]float64{"U25": 0.25}
	inputs := []LineInput{
		{AccountNo: 5010, Quantity: 1, UnitPrice: 100, VATCode: strPtr("U25")},
		{AccountNo: 5010, Quantity: 1, UnitPrice: 100, VATCode: strPtr("U25")},
	}

	totals, lines := ComputeTotals(inputs, rates)

	require.Len(t, lines, 2)
	assert.InDelta(t, 200.0, totals.ExclVAT, 0.001)
	assert.InDelta(t, 200.0, totals.VATable, 0.001)
	assert.InDelta(t, 0.0, totals.NonVATable, 0.001)
	assert.InDelta(t, 50.0, totals.VAT, 0.001)
	assert.InDelta(t, 250.0, totals.InclVAT, 0.001)
	assert.InDelta(t, 100.0, lines[0].BaseAmount, 0.001)
	assert.InDelta(t, 125.0, lines[0].InclVATAmount, 0.001)
	assert.InDelta(t, 0.25, lines[0].VATRate, 0.0001)
}

func TestComputeTotalsExplicitRateWinsOverCode(t *testing.T) {
	rates := map[string]float64{"U25": 0.25}
	inputs := []LineInput{
		{AccountNo: 5010, Quantity: 1, UnitPrice: 100, VATCode: strPtr("U25"), VATRate: floatPtr(0.10)},
	}

	totals, lines := ComputeTotals(inputs, rates)

	assert.InDelta(t, 0.10, lines[0].VATRate, 0.0001)
	assert.InDelta(t, 110.0, totals.InclVAT, 0.001)
}

func TestComputeTotalsUnknownCodeIsZeroRated(t *testing.T) {
	inputs := []LineInput{
		{AccountNo: 5010, Quantity: 1, UnitPrice: 100, VATCode: strPtr("NOPE")},
	}

	totals, _ := ComputeTotals(inputs, map[string]float64{})

	assert.InDelta(t, 100.0, totals.ExclVAT, 0.001)
	assert.InDelta(t, 100.0, totals.NonVATable, 0.001)
	assert.InDelta(t, 0.0, totals.VATable, 0.001)
	assert.InDelta(t, 0.0, totals.VAT, 0.001)
}

func TestComputeTotalsExplicitBaseAmount(t *testing.T) {
	inputs := []LineInput{
		{AccountNo: 7220, BaseAmount: floatPtr(123.456), VATRate: floatPtr(0.25)},
	}

	totals, lines := ComputeTotals(inputs, nil)

	assert.InDelta(t, 123.46, lines[0].BaseAmount, 0.001)
	assert.InDelta(t, 154.33, lines[0].InclVATAmount, 0.001)
	assert.InDelta(t, 123.46, totals.ExclVAT, 0.001)
}

func TestComputeTotalsDiscountAndRounding(t *testing.T) {
	inputs := []LineInput{
		{AccountNo: 5010, Quantity: 3, UnitPrice: 9.99, DiscountPct: 10, VATRate: floatPtr(0.25)},
	}

	totals, lines := ComputeTotals(inputs, nil)

	// 3 * 9.99 * 0.9 = 26.973, rounded per line before summation.
	assert.InDelta(t, 26.97, lines[0].BaseAmount, 0.001)
	assert.InDelta(t, 33.71, lines[0].InclVATAmount, 0.001)
	assert.InDelta(t, 6.74, totals.VAT, 0.001)
}

func TestComputeTotalsMixedVATBuckets(t *testing.T) {
	rates := map[string]float64{"U25": 0.25, "NONE": 0}
	inputs := []LineInput{
		{AccountNo: 5010, Quantity: 1, UnitPrice: 400, VATCode: strPtr("U25")},
		{AccountNo: 5020, Quantity: 1, UnitPrice: 100, VATCode: strPtr("NONE")},
	}

	totals, _ := ComputeTotals(inputs, rates)

	assert.InDelta(t, 500.0, totals.ExclVAT, 0.001)
	assert.InDelta(t, 400.0, totals.VATable, 0.001)
	assert.InDelta(t, 100.0, totals.NonVATable, 0.001)
	assert.InDelta(t, 600.0, totals.InclVAT, 0.001)
	assert.InDelta(t, 100.0, totals.VAT, 0.001)
}
