package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storatrack-backend/internal/billing"
	"storatrack-backend/internal/costing"
	"storatrack-backend/internal/model"
	"storatrack-backend/internal/period"
	"storatrack-backend/internal/store"
)

// CostService is what the handlers need from the costing layer.
type CostService interface {
	Location() *time.Location
	DeviceCost(ctx context.Context, deviceID int64, asOf time.Time) (billing.CostBreakdown, error)
	DeviceCostRange(ctx context.Context, deviceID int64, from, to time.Time) (billing.CostBreakdown, error)
	DeviceCosts(ctx context.Context, filter store.DeviceFilter) ([]billing.CostBreakdown, error)
	MonthlyCost(ctx context.Context, companyID int64, p period.Period, opts billing.FleetOptions) (billing.MonthlyCostReport, error)
	HistoricalCosts(ctx context.Context, companyID int64, monthsBack int, opts billing.FleetOptions) ([]billing.MonthlyCostReport, error)
	StatusBreakdown(ctx context.Context, companyID int64, opts billing.FleetOptions) (billing.StatusBreakdown, error)
	Summary(ctx context.Context, companyID int64, opts billing.FleetOptions) (billing.CompanySummary, error)
	RecordMovement(ctx context.Context, in store.MovementInput) (billing.MovementRecord, error)
	CloseMonth(ctx context.Context, companyID int64, p period.Period, closedBy string) (model.MonthlyReport, error)
	ClosedMonth(ctx context.Context, companyID int64, p period.Period) (model.MonthlyReport, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	costs         CostService
	maxMonthsBack int
}

// NewHandler creates a new API handler.
func NewHandler(costs CostService, maxMonthsBack int) *Handler {
	if maxMonthsBack <= 0 {
		maxMonthsBack = 24
	}
	return &Handler{
		costs:         costs,
		maxMonthsBack: maxMonthsBack,
	}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, costing.ErrAlreadyClosed):
		status = http.StatusConflict
	case errors.Is(err, billing.ErrInvalidPeriod),
		errors.Is(err, billing.ErrInvalidDateRange),
		errors.Is(err, store.ErrInvalidMovement),
		errors.Is(err, period.ErrInvalidFormat),
		errors.Is(err, period.ErrOutOfRange),
		errors.Is(err, costing.ErrInvalidStatus),
		errors.Is(err, costing.ErrPeriodOpen):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func fleetOptions(c *gin.Context) (billing.FleetOptions, bool) {
	raw := c.Query("include_inactive")
	if raw == "" {
		return billing.FleetOptions{}, true
	}
	include, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "include_inactive must be a boolean")
		return billing.FleetOptions{}, false
	}
	return billing.FleetOptions{IncludeInactive: include}, true
}
