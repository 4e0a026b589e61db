package billing

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// SystemConfig carries the process-wide settings the calculator needs.
// Nothing in this package reads global state; everything comes through here.
type SystemConfig struct {
	// Location is the time zone in which timestamps are reduced to calendar dates.
	Location *time.Location
	// Now returns the current instant. Defaults to time.Now.
	Now func() time.Time
	// Logger records errors suppressed by the best-effort helpers.
	Logger logrus.FieldLogger
}

// Calculator computes storage costs. It holds no mutable state and is safe
// for concurrent use.
type Calculator struct {
	loc *time.Location
	now func() time.Time
	log logrus.FieldLogger
}

// NewCalculator creates a Calculator from cfg, filling in defaults.
func NewCalculator(cfg SystemConfig) *Calculator {
	c := &Calculator{loc: cfg.Location, now: cfg.Now, log: cfg.Logger}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.log = discard
	}
	return c
}

// Location returns the time zone used for calendar dates.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Today returns the current calendar date.
func (c *Calculator) Today() time.Time {
	return civilDate(c.now(), c.loc)
}

// DeviceCost computes the cost of d from its intake date through asOf, both
// inclusive. A zero asOf means today. The result is never shorter than one day.
func (c *Calculator) DeviceCost(d Device, asOf time.Time) (CostBreakdown, error) {
	if err := checkDevice(d); err != nil {
		return CostBreakdown{}, err
	}
	if asOf.IsZero() {
		asOf = c.now()
	}

	intake := civilDate(d.IntakeAt, c.loc)
	calculation := civilDate(asOf, c.loc)
	end := calculation
	if retired, ok := c.retirementDate(d, calculation); ok {
		end = retired
	}

	days := daysBetween(intake, end) + 1
	if days < 1 {
		days = 1
	}
	return c.breakdown(d, calculation, intake, end, days, true), nil
}

// DeviceCostToday is DeviceCost as of the current date.
func (c *Calculator) DeviceCostToday(d Device) (CostBreakdown, error) {
	return c.DeviceCost(d, c.now())
}

// DeviceCostOrZero is the best-effort variant of DeviceCost for dashboard
// aggregates. On failure it logs the error and returns a zero-cost breakdown
// with ok set to false.
func (c *Calculator) DeviceCostOrZero(d Device, asOf time.Time) (cb CostBreakdown, ok bool) {
	cb, err := c.DeviceCost(d, asOf)
	if err != nil {
		c.log.WithError(err).WithField("device_id", d.ID).Warn("device cost suppressed")
		return zeroBreakdown(d), false
	}
	return cb, true
}

func checkDevice(d Device) error {
	if d.Tenant == nil {
		return &DataIntegrityError{DeviceID: d.ID, Err: ErrMissingConfiguration}
	}
	if d.IntakeAt.IsZero() {
		return &DataIntegrityError{DeviceID: d.ID, Err: fmt.Errorf("%w: intake date not set", ErrInvalidDateRange)}
	}
	return nil
}

// retirementDate returns the date the device left storage, as known on
// cutoffDate. The movement log wins over the raw exit date.
func (c *Calculator) retirementDate(d Device, cutoffDate time.Time) (time.Time, bool) {
	if m, ok := d.Movements.latestRetirementOn(cutoffDate, c.loc); ok {
		return civilDate(m.OccurredAt, c.loc), true
	}
	if d.ExitAt != nil {
		exit := civilDate(*d.ExitAt, c.loc)
		if !exit.After(cutoffDate) {
			return exit, true
		}
	}
	return time.Time{}, false
}

func effectiveRate(override *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return fallback
}

// taxOn rounds half-up to cents. This is the only rounding step.
func taxOn(subtotal decimal.Decimal, t *TenantConfig) decimal.Decimal {
	if !t.TaxInclusive || !t.TaxPercent.IsPositive() {
		return decimal.Zero
	}
	return subtotal.Mul(t.TaxPercent).Div(hundred).Round(2)
}

func (c *Calculator) breakdown(d Device, calculation, start, end time.Time, days int, includeBase bool) CostBreakdown {
	t := d.Tenant
	base := decimal.Zero
	if includeBase {
		base = effectiveRate(d.OverrideBaseCost, t.DefaultBaseCost)
	}
	daily := effectiveRate(d.OverrideDailyCost, t.DefaultDailyCost)
	storage := daily.Mul(decimal.NewFromInt(int64(days)))
	subtotal := base.Add(storage)
	tax := taxOn(subtotal, t)

	return CostBreakdown{
		DeviceID:         d.ID,
		DeviceName:       d.Name,
		TenantID:         t.ID,
		TenantName:       t.Name,
		Currency:         t.Currency,
		Status:           d.Status,
		Location:         d.Location,
		IntakeDate:       civilDate(d.IntakeAt, c.loc),
		CalculationDate:  calculation,
		PeriodStart:      start,
		PeriodEnd:        end,
		DaysStored:       days,
		BaseCostIncluded: includeBase,
		BaseCost:         base,
		DailyCost:        daily,
		StorageCost:      storage,
		Subtotal:         subtotal,
		TaxInclusive:     t.TaxInclusive,
		TaxPercent:       t.TaxPercent,
		TaxAmount:        tax,
		TotalCost:        subtotal.Add(tax),
	}
}

func zeroBreakdown(d Device) CostBreakdown {
	cb := CostBreakdown{
		DeviceID:   d.ID,
		DeviceName: d.Name,
		TenantID:   d.TenantID,
		Status:     d.Status,
		Location:   d.Location,
	}
	if d.Tenant != nil {
		cb.TenantName = d.Tenant.Name
		cb.Currency = d.Tenant.Currency
	}
	return cb
}
