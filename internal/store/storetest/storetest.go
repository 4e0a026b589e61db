// Package storetest provides sqlite-backed fixtures for tests of packages built on the store.
package storetest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storatrack-backend/internal/db"
	"storatrack-backend/internal/model"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gormDB, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// Company inserts an active company billing 100 base, 10 per day and 22% tax in UYU.
func Company(t *testing.T, gormDB *gorm.DB, name string) model.Company {
	t.Helper()
	c := model.Company{
		Name:             name,
		DefaultBaseCost:  decimal.NewFromInt(100),
		DefaultDailyCost: decimal.NewFromInt(10),
		TaxPercent:       decimal.NewFromInt(22),
		TaxInclusive:     true,
		Currency:         "UYU",
		IsActive:         true,
	}
	require.NoError(t, gormDB.Create(&c).Error)
	return c
}

// Device inserts an active STORED device taken in at intake.
func Device(t *testing.T, gormDB *gorm.DB, companyID int64, name string, intake time.Time) model.Device {
	t.Helper()
	d := model.Device{
		CompanyID: companyID,
		Name:      name,
		Status:    "STORED",
		IntakeAt:  intake,
		IsActive:  true,
	}
	require.NoError(t, gormDB.Create(&d).Error)
	return d
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
