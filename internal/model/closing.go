package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport is the persisted snapshot of a closed billing month.
type MonthlyReport struct {
	ID             int64           `gorm:"primaryKey"`
	CompanyID      int64           `gorm:"uniqueIndex:idx_monthly_report_period;not null"`
	Year           int             `gorm:"uniqueIndex:idx_monthly_report_period;not null"`
	Month          int             `gorm:"uniqueIndex:idx_monthly_report_period;not null"`
	Currency       string          `gorm:"size:3;not null"`
	TotalDevices   int             `gorm:"not null"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(20,4);not null"` // sum of subtotals
	TotalTax       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TotalWithTax   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SkippedDevices int             `gorm:"not null"`
	IsClosed       bool            `gorm:"not null"`
	ClosedAt       *time.Time
	ClosedBy       string    `gorm:"size:128"`
	RunID          string    `gorm:"size:36;index"`
	CreatedAt      time.Time `gorm:"not null"`

	// Associations
	Calculations []CostCalculation `gorm:"foreignKey:MonthlyReportID"`
}

// CostCalculation is the frozen cost of one device inside a closed month.
type CostCalculation struct {
	ID               int64           `gorm:"primaryKey"`
	MonthlyReportID  int64           `gorm:"index;not null"`
	CompanyID        int64           `gorm:"index;not null"`
	DeviceID         int64           `gorm:"index;not null"`
	DeviceName       string          `gorm:"size:256"`
	Status           string          `gorm:"size:32"`
	FromDate         time.Time       `gorm:"not null"`
	ToDate           time.Time       `gorm:"not null"`
	DaysStored       int             `gorm:"not null"`
	BaseCostIncluded bool            `gorm:"not null"`
	BaseCost         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	DailyRate        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	StorageCost      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}
