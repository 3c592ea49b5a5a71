package reports

import (
	"sort"
	"strconv"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Type selects the report flavour.
type Type string

const (
	// TypeBalance includes every account with activity in range.
	TypeBalance Type = "balance"
	// TypeResult is the profit & loss view: accounts whose leading digit
	// is 5-8 under the standard chart layout.
	TypeResult Type = "result"
)

// Valid reports whether t is a known report type.
func (t Type) Valid() bool {
	return t == TypeBalance || t == TypeResult
}

// Row is one aggregated report line.
type Row struct {
	AccountNo   int64   `json:"accountNumber"`
	AccountName string  `json:"accountName"`
	Amount      float64 `json:"amount"`
}

// AccountSum is the raw per-account aggregate coming from the ledger.
type AccountSum struct {
	AccountNo int64
	Amount    float64
}

// Predicate returns the account filter for the report type.
func Predicate(t Type) func(accountNo int64) bool {
	if t == TypeResult {
		return func(no int64) bool {
			s := strconv.FormatInt(no, 10)
			switch s[0] {
			case '5', '6', '7', '8':
				return true
			}
			return false
		}
	}
	return func(int64) bool { return true }
}

// Build converts raw account sums into ordered report rows, filtering by
// the type predicate and joining display names. Pure and idempotent.
func Build(t Type, sums []AccountSum, names map[int64]string) []Row {
	keep := Predicate(t)
	rows := make([]Row, 0, len(sums))
	for _, sum := range sums {
		if !keep(sum.AccountNo) {
			continue
		}
		rows = append(rows, Row{
			AccountNo:   sum.AccountNo,
			AccountName: names[sum.AccountNo],
			Amount:      shared.Round2(sum.Amount),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountNo < rows[j].AccountNo })
	return rows
}
