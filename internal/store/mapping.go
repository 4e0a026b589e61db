package store

import (
	"storatrack-backend/internal/billing"
	"storatrack-backend/internal/model"
)

// toTenant maps a company row into the billing configuration it carries.
func toTenant(c model.Company) *billing.TenantConfig {
	return &billing.TenantConfig{
		ID:               c.ID,
		Name:             c.Name,
		DefaultBaseCost:  c.DefaultBaseCost,
		DefaultDailyCost: c.DefaultDailyCost,
		TaxPercent:       c.TaxPercent,
		TaxInclusive:     c.TaxInclusive,
		Currency:         c.Currency,
	}
}

// toDevice maps a device row. A zero company ID on the row leaves Tenant nil so
// that the calculator reports the device as misconfigured.
func toDevice(d model.Device, tenant *billing.TenantConfig) billing.Device {
	out := billing.Device{
		ID:                d.ID,
		Name:              d.Name,
		TenantID:          d.CompanyID,
		Tenant:            tenant,
		IntakeAt:          d.IntakeAt,
		ExitAt:            d.ExitAt,
		OverrideBaseCost:  d.BaseCost,
		OverrideDailyCost: d.DailyCost,
		Status:            billing.DeviceStatus(d.Status),
		Active:            d.IsActive,
	}
	if d.Location != nil {
		out.Location = d.Location.Name
	}
	if len(d.Movements) > 0 {
		out.Movements = make(billing.MovementLog, 0, len(d.Movements))
		for _, m := range d.Movements {
			out.Movements = append(out.Movements, toMovement(m))
		}
	}
	return out
}

func toMovement(m model.DeviceMovement) billing.MovementRecord {
	return billing.MovementRecord{
		ID:             m.ID,
		DeviceID:       m.DeviceID,
		FromStatus:     billing.DeviceStatus(m.FromStatus),
		ToStatus:       billing.DeviceStatus(m.ToStatus),
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		OccurredAt:     m.OccurredAt,
		Note:           m.Note,
		Actor:          m.Actor,
	}
}
