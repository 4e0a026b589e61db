package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration means the tenant configuration of a device could not be reached.
	ErrMissingConfiguration = errors.New("missing tenant configuration")
	// ErrInvalidDateRange is reserved for malformed dates such as a missing intake date.
	// Inverted ranges are not errors; they yield zero days.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrInvalidPeriod reports a malformed month or look-back window.
	ErrInvalidPeriod = errors.New("invalid billing period")
)

// DataIntegrityError ties a costing failure to the device that caused it.
type DataIntegrityError struct {
	DeviceID int64
	Err      error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("device %d: %v", e.DeviceID, e.Err)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}
