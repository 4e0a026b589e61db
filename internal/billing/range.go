package billing

import "time"

// DeviceCostRange computes the cost of d for the calendar dates start..end,
// both inclusive, clamped to the intake date and to the retirement date known
// at end. A range that ends before it starts yields zero days rather than an
// error. The base cost is charged only by the range that covers the intake
// date, so consecutive ranges never charge it twice.
func (c *Calculator) DeviceCostRange(d Device, start, end time.Time) (CostBreakdown, error) {
	if err := checkDevice(d); err != nil {
		return CostBreakdown{}, err
	}

	intake := civilDate(d.IntakeAt, c.loc)
	endDate := civilDate(end, c.loc)
	actualStart := maxDate(civilDate(start, c.loc), intake)
	actualEnd := endDate
	if retired, ok := c.retirementDate(d, endDate); ok && retired.Before(actualEnd) {
		actualEnd = retired
	}

	days := 0
	if !actualEnd.Before(actualStart) {
		days = daysBetween(actualStart, actualEnd) + 1
	}
	includeBase := days > 0 && actualStart.Equal(intake)

	return c.breakdown(d, endDate, actualStart, actualEnd, days, includeBase), nil
}
