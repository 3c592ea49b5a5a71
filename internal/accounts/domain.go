package accounts

import (
	"time"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// AccountKind enumerates chart-of-accounts categories.
type AccountKind string

const (
	AccountKindAsset     AccountKind = "ASSET"
	AccountKindLiability AccountKind = "LIABILITY"
	AccountKindEquity    AccountKind = "EQUITY"
	AccountKindRevenue   AccountKind = "REVENUE"
	AccountKindExpense   AccountKind = "EXPENSE"
)

// Account models a chart of accounts node.
type Account struct {
	OrgID     int64
	No        int64
	Name      string
	Kind      AccountKind
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VATCode maps an organisation's VAT code to its rate (0.25 = 25%).
type VATCode struct {
	OrgID     int64
	Code      string
	Rate      float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Settings holds per-organisation posting defaults. These replace the
// account literals that would otherwise live inside posting logic.
type Settings struct {
	OrgID                  int64
	ReceivableAccount      int64
	PayableAccount         int64
	VATAccount             int64
	OverdueFee             float64
	OverdueAnnualRatePct   float64
	DefaultPaymentTermDays int
	UpdatedAt              time.Time
}

var (
	// ErrAccountNotFound indicates a missing chart-of-accounts entry.
	ErrAccountNotFound = shared.NewError(shared.KindNotFound, "accounts: account not found")
	// ErrSettingsNotFound indicates the organisation has no posting defaults.
	ErrSettingsNotFound = shared.NewError(shared.KindNotFound, "accounts: organisation settings not found")
)
