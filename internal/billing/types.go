package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DeviceStatus is the lifecycle state of a stored device.
type DeviceStatus string

const (
	StatusIntake          DeviceStatus = "INTAKE"
	StatusAwaitingReceipt DeviceStatus = "AWAITING_RECEIPT"
	StatusStored          DeviceStatus = "STORED"
	StatusShipped         DeviceStatus = "SHIPPED"
	StatusRetired         DeviceStatus = "RETIRED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []DeviceStatus{
	StatusIntake,
	StatusAwaitingReceipt,
	StatusStored,
	StatusShipped,
	StatusRetired,
}

// Valid reports whether s is one of the known statuses.
func (s DeviceStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw status string into a DeviceStatus.
func ParseStatus(raw string) (DeviceStatus, error) {
	s := DeviceStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown device status %q", raw)
	}
	return s, nil
}

// TenantConfig holds the billing defaults of a company.
type TenantConfig struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	DefaultBaseCost  decimal.Decimal `json:"default_base_cost"`
	DefaultDailyCost decimal.Decimal `json:"default_daily_cost"`
	TaxPercent       decimal.Decimal `json:"tax_percent"`
	TaxInclusive     bool            `json:"tax_inclusive"`
	Currency         string          `json:"currency"`
}

// MovementRecord is one append-only status/location transition of a device.
type MovementRecord struct {
	ID             int64        `json:"id"`
	DeviceID       int64        `json:"device_id"`
	FromStatus     DeviceStatus `json:"from_status,omitempty"`
	ToStatus       DeviceStatus `json:"to_status"`
	FromLocationID *int64       `json:"from_location_id,omitempty"`
	ToLocationID   *int64       `json:"to_location_id,omitempty"`
	OccurredAt     time.Time    `json:"occurred_at"`
	Note           string       `json:"note,omitempty"`
	Actor          string       `json:"actor,omitempty"`
}

// MovementLog is the movement history of a single device.
type MovementLog []MovementRecord

// Device is a stored asset with its tenant configuration eagerly attached.
// A nil override means the tenant default applies; a zero override is a real price.
type Device struct {
	ID                int64
	Name              string
	TenantID          int64
	Tenant            *TenantConfig
	IntakeAt          time.Time
	ExitAt            *time.Time
	OverrideBaseCost  *decimal.Decimal
	OverrideDailyCost *decimal.Decimal
	Status            DeviceStatus
	Location          string
	Active            bool
	Movements         MovementLog
}

// CostBreakdown is the cost of one device over one billed period.
//
// For point-in-time queries PeriodStart is the intake date and PeriodEnd the
// effective end date. For range queries both are the clamped range bounds and
// BaseCost is zero unless the range covers the intake date.
type CostBreakdown struct {
	DeviceID         int64           `json:"device_id"`
	DeviceName       string          `json:"device_name"`
	TenantID         int64           `json:"tenant_id"`
	TenantName       string          `json:"tenant_name"`
	Currency         string          `json:"currency"`
	Status           DeviceStatus    `json:"status"`
	Location         string          `json:"location,omitempty"`
	IntakeDate       time.Time       `json:"intake_date"`
	CalculationDate  time.Time       `json:"calculation_date"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	DaysStored       int             `json:"days_stored"`
	BaseCostIncluded bool            `json:"base_cost_included"`
	BaseCost         decimal.Decimal `json:"base_cost"`
	DailyCost        decimal.Decimal `json:"daily_cost"`
	StorageCost      decimal.Decimal `json:"storage_cost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxInclusive     bool            `json:"tax_inclusive"`
	TaxPercent       decimal.Decimal `json:"tax_percent"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// SkippedDevice records a device left out of a fleet aggregate.
type SkippedDevice struct {
	DeviceID int64  `json:"device_id"`
	Reason   string `json:"reason"`
}

// MonthlyCostReport is the cumulative-to-month-end cost snapshot of a fleet.
type MonthlyCostReport struct {
	TenantID       int64           `json:"tenant_id"`
	TenantName     string          `json:"tenant_name"`
	Currency       string          `json:"currency"`
	Year           int             `json:"year"`
	Month          time.Month      `json:"month"`
	PeriodLabel    string          `json:"period_label"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	TotalDevices   int             `json:"total_devices"`
	TotalSubtotal  decimal.Decimal `json:"total_subtotal"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Devices        []CostBreakdown `json:"devices"`
	SkippedDevices int             `json:"skipped_devices"`
	Skipped        []SkippedDevice `json:"skipped,omitempty"`
}

// StatusBucket aggregates the devices currently in one status.
type StatusBucket struct {
	Count     int             `json:"count"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// StatusBreakdown is the live-cost dashboard view grouped by device status.
type StatusBreakdown struct {
	TenantID       int64                         `json:"tenant_id"`
	TenantName     string                        `json:"tenant_name"`
	Currency       string                        `json:"currency"`
	AsOf           time.Time                     `json:"as_of"`
	Buckets        map[DeviceStatus]StatusBucket `json:"breakdown"`
	SkippedDevices int                           `json:"skipped_devices"`
}

// CompanySummary is the dashboard headline view of a fleet.
type CompanySummary struct {
	TenantID             int64           `json:"tenant_id"`
	TenantName           string          `json:"tenant_name"`
	Currency             string          `json:"currency"`
	AsOf                 time.Time       `json:"as_of"`
	TotalDevices         int             `json:"total_devices"`
	ActiveDevices        int             `json:"active_devices"`
	StoredDevices        int             `json:"stored_devices"`
	CurrentMonthlyCost   decimal.Decimal `json:"current_monthly_cost"`
	TotalAccumulatedCost decimal.Decimal `json:"total_accumulated_cost"`
	SkippedDevices       int             `json:"skipped_devices"`
}

// Fleet is an already-loaded snapshot of a tenant and its devices.
type Fleet struct {
	Tenant  *TenantConfig
	Devices []Device
}

// FleetOptions controls which devices of a fleet take part in an aggregate.
type FleetOptions struct {
	// IncludeInactive keeps soft-deleted devices in the aggregate.
	IncludeInactive bool
}

func (o FleetOptions) includes(d Device) bool {
	return d.Active || o.IncludeInactive
}
