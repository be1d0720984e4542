package circulation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/circulation-engine/circulation"
)

func TestFinePolicy_Assess(t *testing.T) {
	policy := circulation.DefaultFinePolicy()
	due := circulation.NewDate(2025, time.January, 15)

	tests := []struct {
		name       string
		returnedOn circulation.Date
		wantDays   int
		wantAmount string
	}{
		{"six days late", circulation.NewDate(2025, time.January, 21), 6, "3.00"},
		{"one day late", circulation.NewDate(2025, time.January, 16), 1, "0.50"},
		{"on the due date", due, 0, "0"},
		{"five days early", circulation.NewDate(2025, time.January, 10), 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, amount := policy.Assess(due, tt.returnedOn)
			assert.Equal(t, tt.wantDays, days)
			assert.True(t, amount.Equal(decimal.RequireFromString(tt.wantAmount)),
				"expected %s, got %s", tt.wantAmount, amount)
		})
	}
}

func TestFinePolicy_CustomRate(t *testing.T) {
	policy := circulation.FinePolicy{DailyRate: decimal.RequireFromString("1.25")}

	days, amount := policy.Assess(
		circulation.NewDate(2025, time.January, 15),
		circulation.NewDate(2025, time.January, 19))

	assert.Equal(t, 4, days)
	assert.True(t, amount.Equal(decimal.RequireFromString("5.00")))
}
