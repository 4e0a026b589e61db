package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyMonthlyCost builds the month-end report of a fleet.
//
// Every device taken in on or before the last day of the month is a
// candidate. A candidate already retired before the first day of the month
// is left out. The cost of each remaining device is its cumulative cost from
// intake through the last day of the month, not the cost of that month alone.
//
// A device that cannot be costed is skipped and recorded in the report; only
// a missing tenant or a malformed period fails the whole report.
func (c *Calculator) CompanyMonthlyCost(fleet Fleet, year int, month time.Month, opts FleetOptions) (MonthlyCostReport, error) {
	if fleet.Tenant == nil {
		return MonthlyCostReport{}, ErrMissingConfiguration
	}
	if month < time.January || month > time.December || year < 1 {
		return MonthlyCostReport{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, int(month))
	}

	first, last := monthBounds(year, month)
	asOf := time.Date(year, month, last.Day(), 23, 59, 59, 0, c.loc)

	report := MonthlyCostReport{
		TenantID:      fleet.Tenant.ID,
		TenantName:    fleet.Tenant.Name,
		Currency:      fleet.Tenant.Currency,
		Year:          year,
		Month:         month,
		PeriodLabel:   fmt.Sprintf("%04d-%02d", year, int(month)),
		PeriodStart:   first,
		PeriodEnd:     last,
		TotalSubtotal: decimal.Zero,
		TotalTax:      decimal.Zero,
		TotalCost:     decimal.Zero,
		Devices:       []CostBreakdown{},
	}

	for _, d := range fleet.Devices {
		if !opts.includes(d) {
			continue
		}
		if d.IntakeAt.IsZero() {
			report.skip(d.ID, &DataIntegrityError{DeviceID: d.ID, Err: ErrInvalidDateRange})
			continue
		}
		if civilDate(d.IntakeAt, c.loc).After(last) {
			continue
		}
		if retired, ok := c.retirementDate(d, last); ok && retired.Before(first) {
			continue
		}

		cb, err := c.DeviceCost(d, asOf)
		if err != nil {
			report.skip(d.ID, err)
			continue
		}
		report.Devices = append(report.Devices, cb)
		report.TotalDevices++
		report.TotalSubtotal = report.TotalSubtotal.Add(cb.Subtotal)
		report.TotalTax = report.TotalTax.Add(cb.TaxAmount)
		report.TotalCost = report.TotalCost.Add(cb.TotalCost)
	}

	return report, nil
}

func (r *MonthlyCostReport) skip(deviceID int64, err error) {
	r.SkippedDevices++
	r.Skipped = append(r.Skipped, SkippedDevice{DeviceID: deviceID, Reason: err.Error()})
}

// HistoricalCosts returns one monthly report per trailing calendar month.
// Index 0 is the current month and index monthsBack-1 the oldest. Each month
// is computed independently from the same fleet snapshot.
func (c *Calculator) HistoricalCosts(fleet Fleet, monthsBack int, opts FleetOptions) ([]MonthlyCostReport, error) {
	if monthsBack < 1 {
		return nil, fmt.Errorf("%w: months back must be at least 1, got %d", ErrInvalidPeriod, monthsBack)
	}

	now := c.now().In(c.loc)
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	reports := make([]MonthlyCostReport, 0, monthsBack)
	for i := 0; i < monthsBack; i++ {
		target := anchor.AddDate(0, -i, 0)
		report, err := c.CompanyMonthlyCost(fleet, target.Year(), target.Month(), opts)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
