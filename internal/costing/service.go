package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storatrack-backend/internal/billing"
	"storatrack-backend/internal/model"
	"storatrack-backend/internal/period"
	"storatrack-backend/internal/store"
)

var (
	// ErrAlreadyClosed is returned when a period already has a closing snapshot.
	ErrAlreadyClosed = errors.New("period already closed")
	// ErrPeriodOpen is returned when closing a month that has not ended yet.
	ErrPeriodOpen = errors.New("period has not ended yet")
	// ErrInvalidStatus is returned for movements to an unknown status.
	ErrInvalidStatus = errors.New("invalid device status")
)

// Service loads fleet snapshots from the store and runs them through the calculator.
type Service struct {
	store store.Store
	calc  *billing.Calculator
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a costing service. The calculator's clock is reused for closings.
func NewService(s store.Store, calc *billing.Calculator, log logrus.FieldLogger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, calc: calc, log: log, now: now}
}

// Location returns the billing timezone.
func (s *Service) Location() *time.Location {
	return s.calc.Location()
}

// DeviceCost returns the point-in-time cost of a device. A zero asOf means today.
func (s *Service) DeviceCost(ctx context.Context, deviceID int64, asOf time.Time) (billing.CostBreakdown, error) {
	d, err := s.store.Device(ctx, deviceID)
	if err != nil {
		return billing.CostBreakdown{}, err
	}
	return s.calc.DeviceCost(d, asOf)
}

// DeviceCostRange returns the cost of a device accrued inside [from, to].
func (s *Service) DeviceCostRange(ctx context.Context, deviceID int64, from, to time.Time) (billing.CostBreakdown, error) {
	d, err := s.store.Device(ctx, deviceID)
	if err != nil {
		return billing.CostBreakdown{}, err
	}
	return s.calc.DeviceCostRange(d, from, to)
}

// DeviceCosts returns today's cost of every device matching filter.
// Devices that cannot be priced are logged and left out.
func (s *Service) DeviceCosts(ctx context.Context, filter store.DeviceFilter) ([]billing.CostBreakdown, error) {
	devices, err := s.store.Devices(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]billing.CostBreakdown, 0, len(devices))
	for _, d := range devices {
		cb, err := s.calc.DeviceCostToday(d)
		if err != nil {
			s.log.WithFields(logrus.Fields{"device_id": d.ID, "company_id": d.TenantID}).
				WithError(err).Warn("device skipped from cost listing")
			continue
		}
		out = append(out, cb)
	}
	return out, nil
}

// MonthlyCost returns the cumulative-to-month-end report of a company.
func (s *Service) MonthlyCost(ctx context.Context, companyID int64, p period.Period, opts billing.FleetOptions) (billing.MonthlyCostReport, error) {
	if err := p.Validate(s.now()); err != nil {
		return billing.MonthlyCostReport{}, fmt.Errorf("%w: %v", billing.ErrInvalidPeriod, err)
	}
	fleet, err := s.store.Fleet(ctx, companyID)
	if err != nil {
		return billing.MonthlyCostReport{}, err
	}
	report, err := s.calc.CompanyMonthlyCost(fleet, p.Year, p.Month, opts)
	if err != nil {
		return billing.MonthlyCostReport{}, err
	}
	s.logSkipped(companyID, report)
	return report, nil
}

// HistoricalCosts returns monthsBack reports, the current month first.
func (s *Service) HistoricalCosts(ctx context.Context, companyID int64, monthsBack int, opts billing.FleetOptions) ([]billing.MonthlyCostReport, error) {
	fleet, err := s.store.Fleet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	reports, err := s.calc.HistoricalCosts(fleet, monthsBack, opts)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		s.logSkipped(companyID, r)
	}
	return reports, nil
}

// StatusBreakdown returns the live cost of a company grouped by device status.
func (s *Service) StatusBreakdown(ctx context.Context, companyID int64, opts billing.FleetOptions) (billing.StatusBreakdown, error) {
	fleet, err := s.store.Fleet(ctx, companyID)
	if err != nil {
		return billing.StatusBreakdown{}, err
	}
	return s.calc.CostBreakdownByStatus(fleet, opts)
}

// Summary returns the dashboard headline figures of a company.
func (s *Service) Summary(ctx context.Context, companyID int64, opts billing.FleetOptions) (billing.CompanySummary, error) {
	fleet, err := s.store.Fleet(ctx, companyID)
	if err != nil {
		return billing.CompanySummary{}, err
	}
	return s.calc.CompanySummary(fleet, opts)
}

// RecordMovement validates and appends a device movement.
func (s *Service) RecordMovement(ctx context.Context, in store.MovementInput) (billing.MovementRecord, error) {
	if !in.ToStatus.Valid() {
		return billing.MovementRecord{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.ToStatus)
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.now().UTC()
	}
	rec, err := s.store.RecordMovement(ctx, in)
	if err != nil {
		return billing.MovementRecord{}, err
	}
	s.log.WithFields(logrus.Fields{
		"device_id": in.DeviceID,
		"from":      rec.FromStatus,
		"to":        rec.ToStatus,
		"actor":     in.Actor,
	}).Info("device movement recorded")
	return rec, nil
}

// ActiveCompanyIDs lists the companies a scheduled closing covers.
func (s *Service) ActiveCompanyIDs(ctx context.Context) ([]int64, error) {
	return s.store.ActiveCompanyIDs(ctx)
}

// ClosedMonth returns the snapshot of an already closed period.
func (s *Service) ClosedMonth(ctx context.Context, companyID int64, p period.Period) (model.MonthlyReport, error) {
	return s.store.MonthlyReport(ctx, companyID, p.Year, int(p.Month))
}

// CloseMonth freezes the monthly report of a finished period. Closing a period
// twice returns the existing snapshot together with ErrAlreadyClosed.
func (s *Service) CloseMonth(ctx context.Context, companyID int64, p period.Period, closedBy string) (model.MonthlyReport, error) {
	now := s.now()
	if err := p.Validate(now); err != nil {
		return model.MonthlyReport{}, fmt.Errorf("%w: %v", billing.ErrInvalidPeriod, err)
	}
	if !p.Closable(now, s.calc.Location()) {
		return model.MonthlyReport{}, fmt.Errorf("%s: %w", p, ErrPeriodOpen)
	}

	existing, err := s.store.MonthlyReport(ctx, companyID, p.Year, int(p.Month))
	switch {
	case err == nil:
		return existing, fmt.Errorf("%s: %w", p, ErrAlreadyClosed)
	case !errors.Is(err, store.ErrNotFound):
		return model.MonthlyReport{}, err
	}

	fleet, err := s.store.Fleet(ctx, companyID)
	if err != nil {
		return model.MonthlyReport{}, err
	}
	report, err := s.calc.CompanyMonthlyCost(fleet, p.Year, p.Month, billing.FleetOptions{})
	if err != nil {
		return model.MonthlyReport{}, err
	}
	s.logSkipped(companyID, report)

	snapshot := snapshotOf(companyID, report, now.UTC(), closedBy)
	if err := s.store.SaveClosing(ctx, &snapshot); err != nil {
		if errors.Is(err, store.ErrConflict) {
			existing, loadErr := s.store.MonthlyReport(ctx, companyID, p.Year, int(p.Month))
			if loadErr != nil {
				return model.MonthlyReport{}, loadErr
			}
			return existing, fmt.Errorf("%s: %w", p, ErrAlreadyClosed)
		}
		return model.MonthlyReport{}, err
	}

	s.log.WithFields(logrus.Fields{
		"company_id": companyID,
		"period":     p.String(),
		"run_id":     snapshot.RunID,
		"devices":    snapshot.TotalDevices,
		"skipped":    snapshot.SkippedDevices,
	}).Info("month closed")
	return snapshot, nil
}

func snapshotOf(companyID int64, r billing.MonthlyCostReport, closedAt time.Time, closedBy string) model.MonthlyReport {
	snapshot := model.MonthlyReport{
		CompanyID:      companyID,
		Year:           r.Year,
		Month:          int(r.Month),
		Currency:       r.Currency,
		TotalDevices:   r.TotalDevices,
		TotalCost:      r.TotalSubtotal,
		TotalTax:       r.TotalTax,
		TotalWithTax:   r.TotalCost,
		SkippedDevices: r.SkippedDevices,
		IsClosed:       true,
		ClosedAt:       &closedAt,
		ClosedBy:       closedBy,
		RunID:          uuid.NewString(),
		Calculations:   make([]model.CostCalculation, 0, len(r.Devices)),
	}
	for _, cb := range r.Devices {
		snapshot.Calculations = append(snapshot.Calculations, model.CostCalculation{
			CompanyID:        companyID,
			DeviceID:         cb.DeviceID,
			DeviceName:       cb.DeviceName,
			Status:           string(cb.Status),
			FromDate:         cb.PeriodStart,
			ToDate:           cb.PeriodEnd,
			DaysStored:       cb.DaysStored,
			BaseCostIncluded: cb.BaseCostIncluded,
			BaseCost:         cb.BaseCost,
			DailyRate:        cb.DailyCost,
			StorageCost:      cb.StorageCost,
			Subtotal:         cb.Subtotal,
			TaxAmount:        cb.TaxAmount,
			TotalCost:        cb.TotalCost,
		})
	}
	return snapshot
}

func (s *Service) logSkipped(companyID int64, r billing.MonthlyCostReport) {
	for _, sk := range r.Skipped {
		s.log.WithFields(logrus.Fields{
			"company_id": companyID,
			"device_id":  sk.DeviceID,
			"period":     r.PeriodLabel,
		}).Warnf("device skipped from monthly report: %s", sk.Reason)
	}
}
