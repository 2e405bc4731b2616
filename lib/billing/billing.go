package billing

import (
	"time"
	"waterbill-backend/lib/timezone"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCurrent Status = "current"
	StatusDueSoon Status = "due_soon"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
	StatusUnknown Status = "unknown"
)

// DueSoonWindow is the grace margin in days: a bill due within this many
// days (inclusive) is due soon rather than current.
const DueSoonWindow = 7

type Charge struct {
	Name   string
	Amount decimal.Decimal
}

// Snapshot is one point-in-time reading of an account's latest bill. Values
// are never mutated after Normalize builds them, a newer reading is a new
// Snapshot.
type Snapshot struct {
	AccountNumber string
	Address       string
	// OwnerName is empty when the page did not show one.
	OwnerName string
	AmountDue decimal.Decimal

	DueDate       *time.Time
	StatementDate *time.Time

	PreviousBalance  *decimal.Decimal
	CurrentCharges   *decimal.Decimal
	LateFees         *decimal.Decimal
	PaymentsReceived *decimal.Decimal
	// WaterUsage is in gallons.
	WaterUsage *int64

	Charges []Charge
	RawText string
}

func (s Snapshot) Status(today time.Time) Status {
	return ComputeStatus(s.AmountDue, s.DueDate, today)
}

// ComputeStatus classifies a bill relative to today. It is recomputed on
// every read and never stored.
func ComputeStatus(amountDue decimal.Decimal, dueDate *time.Time, today time.Time) Status {
	if !amountDue.IsPositive() {
		return StatusPaid
	}
	if dueDate == nil {
		return StatusUnknown
	}
	days := timezone.DaysBetween(today, *dueDate)
	switch {
	case days < 0:
		return StatusOverdue
	case days <= DueSoonWindow:
		return StatusDueSoon
	default:
		return StatusCurrent
	}
}
