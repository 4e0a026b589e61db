package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is a tenant whose devices are stored and billed.
type Company struct {
	ID               int64           `gorm:"primaryKey"`
	Name             string          `gorm:"size:128;not null"`
	TaxID            string          `gorm:"size:32"`
	Timezone         string          `gorm:"size:64"`
	DefaultBaseCost  decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	DefaultDailyCost decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TaxPercent       decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	TaxInclusive     bool            `gorm:"not null"`
	Currency         string          `gorm:"size:3;not null"`
	IsActive         bool            `gorm:"index;not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`

	// Associations
	Devices []Device `gorm:"foreignKey:CompanyID"`
}

// Location is a physical place a device can be kept in.
type Location struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:128;not null"`
	Description string `gorm:"size:256"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
