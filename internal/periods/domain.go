package periods

import (
	"fmt"
	"time"

	"github.com/kontor-erp/kontor-erp/internal/shared"
)

// Period represents an organisation-scoped accounting period window.
type Period struct {
	ID        int64
	OrgID     int64
	FromDate  time.Time
	ToDate    time.Time
	Locked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether date falls inside the period (inclusive).
func (p Period) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.FromDate.Truncate(24*time.Hour)) && !d.After(p.ToDate.Truncate(24*time.Hour))
}

// ErrPeriodNotFound indicates a missing period row.
var ErrPeriodNotFound = shared.NewError(shared.KindNotFound, "periods: period not found")

// LockedError reports a booking attempt dated inside a locked period.
type LockedError struct {
	Date time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("periods: accounting period covering %s is locked", e.Date.Format("2006-01-02"))
}

// ErrorKind classifies the error for the API envelope.
func (e *LockedError) ErrorKind() shared.ErrorKind { return shared.KindPeriodLocked }
