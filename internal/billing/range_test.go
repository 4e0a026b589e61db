package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceCostRange(t *testing.T) {
	calc := newTestCalculator(date(2025, 1, 1))

	testCases := []struct {
		name        string
		intake      time.Time
		movements   MovementLog
		start, end  time.Time
		wantDays    int
		wantBase    bool
		wantStart   time.Time
		wantEnd     time.Time
		wantSubtot  string
	}{
		{
			name:       "range covering intake charges base",
			intake:     date(2024, 3, 10),
			start:      date(2024, 3, 1),
			end:        date(2024, 3, 31),
			wantDays:   22,
			wantBase:   true,
			wantStart:  date(2024, 3, 10),
			wantEnd:    date(2024, 3, 31),
			wantSubtot: "320",
		},
		{
			name:       "range after intake has no base",
			intake:     date(2024, 3, 10),
			start:      date(2024, 4, 1),
			end:        date(2024, 4, 30),
			wantDays:   30,
			wantBase:   false,
			wantStart:  date(2024, 4, 1),
			wantEnd:    date(2024, 4, 30),
			wantSubtot: "300",
		},
		{
			name:       "range entirely before intake is zero",
			intake:     date(2024, 3, 10),
			start:      date(2024, 2, 1),
			end:        date(2024, 2, 29),
			wantDays:   0,
			wantBase:   false,
			wantStart:  date(2024, 3, 10),
			wantEnd:    date(2024, 2, 29),
			wantSubtot: "0",
		},
		{
			name:       "inverted range is zero, not an error",
			intake:     date(2024, 1, 1),
			start:      date(2024, 5, 10),
			end:        date(2024, 5, 1),
			wantDays:   0,
			wantBase:   false,
			wantStart:  date(2024, 5, 10),
			wantEnd:    date(2024, 5, 1),
			wantSubtot: "0",
		},
		{
			name:   "retirement inside range truncates",
			intake: date(2024, 1, 1),
			movements: MovementLog{
				{ToStatus: StatusRetired, OccurredAt: time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)},
			},
			start:      date(2024, 5, 1),
			end:        date(2024, 5, 31),
			wantDays:   5,
			wantBase:   false,
			wantStart:  date(2024, 5, 1),
			wantEnd:    date(2024, 5, 5),
			wantSubtot: "50",
		},
		{
			name:   "retirement after range end is not known yet",
			intake: date(2024, 1, 1),
			movements: MovementLog{
				{ToStatus: StatusRetired, OccurredAt: date(2024, 6, 5)},
			},
			start:      date(2024, 5, 1),
			end:        date(2024, 5, 31),
			wantDays:   31,
			wantBase:   false,
			wantStart:  date(2024, 5, 1),
			wantEnd:    date(2024, 5, 31),
			wantSubtot: "310",
		},
		{
			name:       "single day range on intake",
			intake:     time.Date(2024, 7, 4, 18, 0, 0, 0, time.UTC),
			start:      date(2024, 7, 4),
			end:        date(2024, 7, 4),
			wantDays:   1,
			wantBase:   true,
			wantStart:  date(2024, 7, 4),
			wantEnd:    date(2024, 7, 4),
			wantSubtot: "110",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := testDevice(1, tc.intake)
			d.Movements = tc.movements

			cb, err := calc.DeviceCostRange(d, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDays, cb.DaysStored)
			assert.Equal(t, tc.wantBase, cb.BaseCostIncluded)
			assert.Equal(t, tc.wantStart, cb.PeriodStart)
			assert.Equal(t, tc.wantEnd, cb.PeriodEnd)
			assertMoney(t, tc.wantSubtot, cb.Subtotal)
			if !tc.wantBase {
				assert.True(t, cb.BaseCost.IsZero())
			}
		})
	}
}

func TestDeviceCostRange_MissingTenant(t *testing.T) {
	calc := newTestCalculator(date(2025, 1, 1))
	d := testDevice(1, date(2024, 1, 1))
	d.Tenant = nil

	_, err := calc.DeviceCostRange(d, date(2024, 1, 1), date(2024, 1, 31))
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

// Slicing a lifetime into months must add up to the point-in-time cost and
// charge the base cost exactly once.
func TestDeviceCostRange_MonthlySlicesMatchLifetime(t *testing.T) {
	calc := newTestCalculator(date(2025, 1, 1))
	d := testDevice(1, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	d.Tenant.DefaultDailyCost = money("3.33")
	d.Movements = MovementLog{
		{ToStatus: StatusStored, OccurredAt: date(2024, 1, 16)},
		{ToStatus: StatusRetired, OccurredAt: time.Date(2024, 10, 20, 11, 0, 0, 0, time.UTC)},
	}

	lifetime, err := calc.DeviceCost(d, date(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, 280, lifetime.DaysStored)

	sumDays := 0
	baseCharges := 0
	sumBase := decimal.Zero
	sumSubtotal := decimal.Zero
	sumTotal := decimal.Zero
	for m := time.January; m <= time.December; m++ {
		first, last := monthBounds(2024, m)
		cb, err := calc.DeviceCostRange(d, first, last)
		require.NoError(t, err)

		sumDays += cb.DaysStored
		if cb.BaseCostIncluded {
			baseCharges++
		}
		sumBase = sumBase.Add(cb.BaseCost)
		sumSubtotal = sumSubtotal.Add(cb.Subtotal)
		sumTotal = sumTotal.Add(cb.TotalCost)
	}

	assert.Equal(t, lifetime.DaysStored, sumDays)
	assert.Equal(t, 1, baseCharges)
	assertMoney(t, "100", sumBase)
	assertMoney(t, lifetime.Subtotal.String(), sumSubtotal)

	// Tax is rounded per slice, so totals may drift by at most a cent per slice.
	drift := sumTotal.Sub(lifetime.TotalCost).Abs()
	assert.True(t, drift.LessThanOrEqual(money("0.12")), "drift %s", drift)
}
