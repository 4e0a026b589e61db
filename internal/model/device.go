package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Device is a stored asset belonging to a company.
// A nil BaseCost or DailyCost falls back to the company default.
type Device struct {
	ID           int64            `gorm:"primaryKey"`
	CompanyID    int64            `gorm:"index;not null"`
	Name         string           `gorm:"size:256;not null"`
	SerialNumber string           `gorm:"size:128;index"`
	Brand        string           `gorm:"size:128"`
	ModelName    string           `gorm:"column:model;size:128"`
	Status       string           `gorm:"size:32;index;not null"`
	LocationID   *int64           `gorm:"index"`
	IntakeAt     time.Time        `gorm:"not null"`
	ExitAt       *time.Time
	BaseCost     *decimal.Decimal `gorm:"type:decimal(20,4)"`
	DailyCost    *decimal.Decimal `gorm:"type:decimal(20,4)"`
	IsActive     bool             `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Associations
	Company   Company          `gorm:"constraint:OnDelete:CASCADE"`
	Location  *Location        `gorm:"constraint:OnDelete:SET NULL"`
	Movements []DeviceMovement `gorm:"foreignKey:DeviceID"`
}

// DeviceMovement is an append-only status/location transition.
type DeviceMovement struct {
	ID             int64     `gorm:"primaryKey"`
	DeviceID       int64     `gorm:"index:idx_device_movement_occurred;not null"`
	FromStatus     string    `gorm:"size:32"`
	ToStatus       string    `gorm:"size:32;not null"`
	FromLocationID *int64
	ToLocationID   *int64
	OccurredAt     time.Time `gorm:"index:idx_device_movement_occurred;not null"`
	Note           string    `gorm:"size:512"`
	Actor          string    `gorm:"size:128"`
	CreatedAt      time.Time `gorm:"not null"`
}
