package billing

import (
	"github.com/shopspring/decimal"
)

// CostBreakdownByStatus groups the fleet by current status as of today.
// Retired devices are counted but add nothing to their bucket's cost.
// Devices in an unknown status are ignored.
func (c *Calculator) CostBreakdownByStatus(fleet Fleet, opts FleetOptions) (StatusBreakdown, error) {
	if fleet.Tenant == nil {
		return StatusBreakdown{}, ErrMissingConfiguration
	}

	asOf := c.now()
	out := StatusBreakdown{
		TenantID:   fleet.Tenant.ID,
		TenantName: fleet.Tenant.Name,
		Currency:   fleet.Tenant.Currency,
		AsOf:       civilDate(asOf, c.loc),
		Buckets:    make(map[DeviceStatus]StatusBucket, len(AllStatuses)),
	}
	for _, s := range AllStatuses {
		out.Buckets[s] = StatusBucket{TotalCost: decimal.Zero}
	}

	for _, d := range fleet.Devices {
		if !opts.includes(d) {
			continue
		}
		bucket, known := out.Buckets[d.Status]
		if !known {
			continue
		}
		bucket.Count++
		if d.Status != StatusRetired {
			cb, ok := c.DeviceCostOrZero(d, asOf)
			if !ok {
				out.SkippedDevices++
			}
			bucket.TotalCost = bucket.TotalCost.Add(cb.TotalCost)
		}
		out.Buckets[d.Status] = bucket
	}
	return out, nil
}

// CompanySummary computes the dashboard headline figures as of today.
// Active means not retired. CurrentMonthlyCost sums the storage cost of
// active devices and TotalAccumulatedCost their total cost.
func (c *Calculator) CompanySummary(fleet Fleet, opts FleetOptions) (CompanySummary, error) {
	if fleet.Tenant == nil {
		return CompanySummary{}, ErrMissingConfiguration
	}

	asOf := c.now()
	out := CompanySummary{
		TenantID:             fleet.Tenant.ID,
		TenantName:           fleet.Tenant.Name,
		Currency:             fleet.Tenant.Currency,
		AsOf:                 civilDate(asOf, c.loc),
		CurrentMonthlyCost:   decimal.Zero,
		TotalAccumulatedCost: decimal.Zero,
	}

	for _, d := range fleet.Devices {
		if !opts.includes(d) {
			continue
		}
		out.TotalDevices++
		if d.Status == StatusStored {
			out.StoredDevices++
		}
		if d.Status == StatusRetired {
			continue
		}
		out.ActiveDevices++
		cb, ok := c.DeviceCostOrZero(d, asOf)
		if !ok {
			out.SkippedDevices++
			continue
		}
		out.CurrentMonthlyCost = out.CurrentMonthlyCost.Add(cb.StorageCost)
		out.TotalAccumulatedCost = out.TotalAccumulatedCost.Add(cb.TotalCost)
	}
	return out, nil
}
