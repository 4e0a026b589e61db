package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storatrack-backend/internal/billing"
	"storatrack-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	Company(ctx context.Context, id int64) (*billing.TenantConfig, error)
	ActiveCompanyIDs(ctx context.Context) ([]int64, error)
	Device(ctx context.Context, id int64) (billing.Device, error)
	Devices(ctx context.Context, filter DeviceFilter) ([]billing.Device, error)
	Fleet(ctx context.Context, companyID int64) (billing.Fleet, error)
	RecordMovement(ctx context.Context, in MovementInput) (billing.MovementRecord, error)
	MonthlyReport(ctx context.Context, companyID int64, year, month int) (model.MonthlyReport, error)
	SaveClosing(ctx context.Context, report *model.MonthlyReport) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Company loads the billing configuration of one company.
func (s *gormStore) Company(ctx context.Context, id int64) (*billing.TenantConfig, error) {
	var c model.Company
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, wrapNotFound(err, "company %d", id)
	}
	return toTenant(c), nil
}

// ActiveCompanyIDs lists the companies month closing runs for.
func (s *gormStore) ActiveCompanyIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Company{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list active companies: %w", err)
	}
	return ids, nil
}

// Device loads a single device with its company, location and movement log.
func (s *gormStore) Device(ctx context.Context, id int64) (billing.Device, error) {
	var d model.Device
	if err := s.withDeviceAssociations(s.db.WithContext(ctx)).First(&d, id).Error; err != nil {
		return billing.Device{}, wrapNotFound(err, "device %d", id)
	}
	return toDevice(d, tenantOf(d)), nil
}

// Devices lists devices matching the filter, ordered by id.
func (s *gormStore) Devices(ctx context.Context, filter DeviceFilter) ([]billing.Device, error) {
	q := s.withDeviceAssociations(s.db.WithContext(ctx))
	if filter.CompanyID != 0 {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}

	var rows []model.Device
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	out := make([]billing.Device, 0, len(rows))
	for _, d := range rows {
		out = append(out, toDevice(d, tenantOf(d)))
	}
	return out, nil
}

// Fleet loads a company and every one of its devices, active or not, in one snapshot.
// Inactive devices are filtered later by billing.FleetOptions.
func (s *gormStore) Fleet(ctx context.Context, companyID int64) (billing.Fleet, error) {
	var fleet billing.Fleet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Company
		if err := tx.First(&c, companyID).Error; err != nil {
			return wrapNotFound(err, "company %d", companyID)
		}
		tenant := toTenant(c)

		var rows []model.Device
		if err := tx.Preload("Location").
			Preload("Movements", func(db *gorm.DB) *gorm.DB {
				return db.Order("occurred_at, id")
			}).
			Where("company_id = ?", companyID).
			Order("id").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to load devices for company %d: %w", companyID, err)
		}

		fleet.Tenant = tenant
		fleet.Devices = make([]billing.Device, 0, len(rows))
		for _, d := range rows {
			fleet.Devices = append(fleet.Devices, toDevice(d, tenant))
		}
		return nil
	})
	return fleet, err
}

// RecordMovement appends a movement and moves the device to its new status
// and location in one transaction. Retiring a device sets exit_at once.
func (s *gormStore) RecordMovement(ctx context.Context, in MovementInput) (billing.MovementRecord, error) {
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now().UTC()
	}

	var movement model.DeviceMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d model.Device
		if err := tx.First(&d, in.DeviceID).Error; err != nil {
			return wrapNotFound(err, "device %d", in.DeviceID)
		}
		if in.OccurredAt.Before(d.IntakeAt) {
			return fmt.Errorf("device %d at %s, intake %s: %w", d.ID,
				in.OccurredAt.Format(time.RFC3339), d.IntakeAt.Format(time.RFC3339), ErrInvalidMovement)
		}

		movement = model.DeviceMovement{
			DeviceID:       d.ID,
			FromStatus:     d.Status,
			ToStatus:       string(in.ToStatus),
			FromLocationID: d.LocationID,
			ToLocationID:   in.ToLocationID,
			OccurredAt:     in.OccurredAt,
			Note:           in.Note,
			Actor:          in.Actor,
		}
		if movement.ToLocationID == nil {
			movement.ToLocationID = d.LocationID
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to create movement for device %d: %w", d.ID, err)
		}

		updates := map[string]any{"status": string(in.ToStatus)}
		if in.ToLocationID != nil {
			updates["location_id"] = *in.ToLocationID
		}
		if in.ToStatus == billing.StatusRetired && d.ExitAt == nil {
			updates["exit_at"] = in.OccurredAt
		}
		if err := tx.Model(&model.Device{}).Where("id = ?", d.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update device %d: %w", d.ID, err)
		}
		return nil
	})
	if err != nil {
		return billing.MovementRecord{}, err
	}
	return toMovement(movement), nil
}

// MonthlyReport loads a closing snapshot and its per-device calculations.
func (s *gormStore) MonthlyReport(ctx context.Context, companyID int64, year, month int) (model.MonthlyReport, error) {
	var r model.MonthlyReport
	err := s.db.WithContext(ctx).
		Preload("Calculations", func(db *gorm.DB) *gorm.DB {
			return db.Order("device_id")
		}).
		Where("company_id = ? AND year = ? AND month = ?", companyID, year, month).
		First(&r).Error
	if err != nil {
		return model.MonthlyReport{}, wrapNotFound(err, "monthly report %d-%02d for company %d", year, month, companyID)
	}
	return r, nil
}

// SaveClosing persists a snapshot with its calculations. It never overwrites
// an existing snapshot of the same period. A concurrent close that wins the
// unique index between the check and the insert is reported as ErrConflict.
func (s *gormStore) SaveClosing(ctx context.Context, report *model.MonthlyReport) error {
	conflict := fmt.Errorf("monthly report %d-%02d for company %d: %w", report.Year, report.Month, report.CompanyID, ErrConflict)

	var insertErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := countClosings(tx, report)
		if err != nil {
			return fmt.Errorf("failed to check existing closing: %w", err)
		}
		if existing > 0 {
			return conflict
		}
		if err := tx.Create(report).Error; err != nil {
			insertErr = err
			return fmt.Errorf("failed to save monthly report: %w", err)
		}
		return nil
	})
	if insertErr == nil {
		return err
	}

	if errors.Is(insertErr, gorm.ErrDuplicatedKey) {
		return conflict
	}
	// Drivers without error translation: look for the rival snapshot.
	if existing, countErr := countClosings(s.db.WithContext(ctx), report); countErr == nil && existing > 0 {
		return conflict
	}
	return err
}

func countClosings(db *gorm.DB, report *model.MonthlyReport) (int64, error) {
	var n int64
	err := db.Model(&model.MonthlyReport{}).
		Where("company_id = ? AND year = ? AND month = ?", report.CompanyID, report.Year, report.Month).
		Count(&n).Error
	return n, err
}

func (s *gormStore) withDeviceAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("Company").
		Preload("Location").
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at, id")
		})
}

func tenantOf(d model.Device) *billing.TenantConfig {
	if d.Company.ID == 0 {
		return nil
	}
	return toTenant(d.Company)
}

func wrapNotFound(err error, format string, args ...any) error {
	subject := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", subject, err)
}
