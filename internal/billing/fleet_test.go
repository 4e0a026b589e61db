package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retiredOn(at time.Time) MovementLog {
	return MovementLog{{ToStatus: StatusRetired, OccurredAt: at}}
}

func TestCompanyMonthlyCost_RetirementExclusionBoundary(t *testing.T) {
	calc := newTestCalculator(date(2024, 12, 1))
	d := testDevice(1, date(2024, 1, 10))
	d.Status = StatusRetired
	d.Movements = retiredOn(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC))
	fleet := Fleet{Tenant: d.Tenant, Devices: []Device{d}}

	march, err := calc.CompanyMonthlyCost(fleet, 2024, time.March, FleetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, march.TotalDevices)
	require.Len(t, march.Devices, 1)
	assert.Equal(t, date(2024, 3, 5), march.Devices[0].PeriodEnd)

	april, err := calc.CompanyMonthlyCost(fleet, 2024, time.April, FleetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, april.TotalDevices)
	assert.Empty(t, april.Devices)
	assertMoney(t, "0", april.TotalCost)
}

func TestCompanyMonthlyCost_IsCumulativeToMonthEnd(t *testing.T) {
	calc := newTestCalculator(date(2024, 12, 1))
	d := testDevice(1, date(2024, 1, 1))
	fleet := Fleet{Tenant: d.Tenant, Devices: []Device{d}}

	report, err := calc.CompanyMonthlyCost(fleet, 2024, time.February, FleetOptions{})
	require.NoError(t, err)

	require.Len(t, report.Devices, 1)
	// January and February together, not February alone.
	assert.Equal(t, 60, report.Devices[0].DaysStored)
	assertMoney(t, "700", report.TotalSubtotal)
	assertMoney(t, "154", report.TotalTax)
	assertMoney(t, "854", report.TotalCost)
	assert.Equal(t, "2024-02", report.PeriodLabel)
	assert.Equal(t, date(2024, 2, 1), report.PeriodStart)
	assert.Equal(t, date(2024, 2, 29), report.PeriodEnd)
}

func TestCompanyMonthlyCost_Candidates(t *testing.T) {
	calc := newTestCalculator(date(2024, 12, 1))
	tenant := testTenant()

	inMonth := testDevice(1, date(2024, 5, 31))
	afterMonth := testDevice(2, date(2024, 6, 1))
	inactive := testDevice(3, date(2024, 1, 1))
	inactive.Active = false
	exitedBefore := testDevice(4, date(2024, 1, 1))
	exit := date(2024, 4, 30)
	exitedBefore.ExitAt = &exit

	fleet := Fleet{Tenant: tenant, Devices: []Device{inMonth, afterMonth, inactive, exitedBefore}}

	report, err := calc.CompanyMonthlyCost(fleet, 2024, time.May, FleetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalDevices)
	assert.Equal(t, int64(1), report.Devices[0].DeviceID)

	withInactive, err := calc.CompanyMonthlyCost(fleet, 2024, time.May, FleetOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, withInactive.TotalDevices)
}

func TestCompanyMonthlyCost_SkipsFaultyDevices(t *testing.T) {
	calc := newTestCalculator(date(2024, 12, 1))
	tenant := testTenant()

	var devices []Device
	for i := int64(1); i <= 5; i++ {
		devices = append(devices, testDevice(i, date(2024, 1, 1)))
	}
	devices[2].Tenant = nil

	report, err := calc.CompanyMonthlyCost(Fleet{Tenant: tenant, Devices: devices}, 2024, time.January, FleetOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalDevices)
	assert.GreaterOrEqual(t, report.SkippedDevices, 1)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, int64(3), report.Skipped[0].DeviceID)

	// 4 x (100 + 31*10) * 1.22
	assertMoney(t, "2000.8", report.TotalCost)
}

func TestCompanyMonthlyCost_Errors(t *testing.T) {
	calc := newTestCalculator(date(2024, 12, 1))

	_, err := calc.CompanyMonthlyCost(Fleet{}, 2024, time.January, FleetOptions{})
	assert.ErrorIs(t, err, ErrMissingConfiguration)

	_, err = calc.CompanyMonthlyCost(Fleet{Tenant: testTenant()}, 2024, time.Month(13), FleetOptions{})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestHistoricalCosts_Ordering(t *testing.T) {
	testCases := []struct {
		name   string
		now    time.Time
		months int
		want   []string
	}{
		{
			name:   "three months back from mid June",
			now:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			months: 3,
			want:   []string{"2024-06", "2024-05", "2024-04"},
		},
		{
			name:   "crosses the year from the 31st",
			now:    time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC),
			months: 3,
			want:   []string{"2024-01", "2023-12", "2023-11"},
		},
		{
			name:   "single month",
			now:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   []string{"2024-03"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calc := newTestCalculator(tc.now)
			d := testDevice(1, date(2023, 1, 1))
			reports, err := calc.HistoricalCosts(Fleet{Tenant: d.Tenant, Devices: []Device{d}}, tc.months, FleetOptions{})
			require.NoError(t, err)

			var got []string
			for _, r := range reports {
				got = append(got, r.PeriodLabel)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHistoricalCosts_InvalidWindow(t *testing.T) {
	calc := newTestCalculator(date(2024, 6, 15))
	_, err := calc.HistoricalCosts(Fleet{Tenant: testTenant()}, 0, FleetOptions{})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

// Reports are recomputed from whatever fleet is passed in. Nothing is cached
// between calls, so a fleet that changes between two calls yields different
// figures; snapshot consistency is the caller's concern.
func TestHistoricalCosts_RecomputesEveryCall(t *testing.T) {
	calc := newTestCalculator(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	d := testDevice(1, date(2024, 1, 1))
	fleet := Fleet{Tenant: d.Tenant, Devices: []Device{d}}

	first, err := calc.HistoricalCosts(fleet, 2, FleetOptions{})
	require.NoError(t, err)

	fleet.Devices = append(fleet.Devices, testDevice(2, date(2024, 2, 1)))
	second, err := calc.HistoricalCosts(fleet, 2, FleetOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, first[0].TotalDevices)
	assert.Equal(t, 2, second[0].TotalDevices)
	assert.True(t, second[1].TotalCost.GreaterThan(first[1].TotalCost))
}
