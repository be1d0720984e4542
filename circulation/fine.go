package circulation

import "github.com/shopspring/decimal"

// =============================================================================
// FINE POLICY - max(0, daysLate * dailyRate)
// =============================================================================

// DefaultDailyFineRate is charged per day late unless configured otherwise.
var DefaultDailyFineRate = decimal.RequireFromString("0.50")

// FinePolicy computes the penalty for a late return.
type FinePolicy struct {
	DailyRate decimal.Decimal
}

func DefaultFinePolicy() FinePolicy {
	return FinePolicy{DailyRate: DefaultDailyFineRate}
}

// Assess returns the days late and the resulting fine amount for a loan due
// on dueDate and returned on returnDate. On-time and early returns yield
// zero days and a zero amount; no fine record should be created for them.
func (p FinePolicy) Assess(dueDate, returnDate Date) (daysLate int, amount decimal.Decimal) {
	daysLate = DaysBetween(dueDate, returnDate)
	if daysLate <= 0 {
		return 0, decimal.Zero
	}
	return daysLate, p.DailyRate.Mul(decimal.NewFromInt(int64(daysLate)))
}
