package store

import (
	"errors"
	"fmt"
	"time"

	"storatrack-backend/internal/billing"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a closing snapshot already exists for a period.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidMovement is returned for a movement dated before the device's intake.
	ErrInvalidMovement = fmt.Errorf("movement precedes intake: %w", billing.ErrInvalidDateRange)
)

// DeviceFilter narrows a device listing. Zero values match everything.
type DeviceFilter struct {
	CompanyID       int64
	Status          billing.DeviceStatus
	IncludeInactive bool
}

// MovementInput describes a status or location change to record for a device.
type MovementInput struct {
	DeviceID     int64
	ToStatus     billing.DeviceStatus
	ToLocationID *int64
	Note         string
	Actor        string
	OccurredAt   time.Time
}
