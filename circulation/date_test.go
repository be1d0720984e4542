package circulation_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circulation-engine/circulation"
)

func TestParseDate_RoundTrip(t *testing.T) {
	date, err := circulation.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", date.String())
	assert.True(t, date.Equal(circulation.NewDate(2025, time.March, 10)))
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := circulation.ParseDate("10/03/2025")
	assert.Error(t, err)

	_, err = circulation.ParseDate("2025-13-40")
	assert.Error(t, err)
}

func TestDate_AddDays_CrossesMonthBoundary(t *testing.T) {
	due := circulation.NewDate(2025, time.January, 25).AddDays(14)
	assert.True(t, due.Equal(circulation.NewDate(2025, time.February, 8)))
}

func TestDaysBetween(t *testing.T) {
	jan15 := circulation.NewDate(2025, time.January, 15)

	assert.Equal(t, 6, circulation.DaysBetween(jan15, circulation.NewDate(2025, time.January, 21)))
	assert.Equal(t, 0, circulation.DaysBetween(jan15, jan15))
	assert.Equal(t, -5, circulation.DaysBetween(jan15, circulation.NewDate(2025, time.January, 10)))
	// Leap day
	assert.Equal(t, 2, circulation.DaysBetween(
		circulation.NewDate(2024, time.February, 28),
		circulation.NewDate(2024, time.March, 1)))
}

func TestDate_ZeroValue(t *testing.T) {
	var zero circulation.Date
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Due    circulation.Date `json:"due"`
		Return circulation.Date `json:"return"`
	}

	// Zero dates marshal as null
	out, err := json.Marshal(payload{Due: circulation.NewDate(2025, time.January, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2025-01-15","return":null}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-01-15","return":null}`), &in))
	assert.True(t, in.Due.Equal(circulation.NewDate(2025, time.January, 15)))
	assert.True(t, in.Return.IsZero())
}
