package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storatrack-backend/internal/costing"
	"storatrack-backend/internal/model"
	"storatrack-backend/internal/period"
)

type closingRequest struct {
	ClosedBy string `json:"closed_by"`
}

type calculationResponse struct {
	DeviceID         int64           `json:"device_id"`
	DeviceName       string          `json:"device_name"`
	Status           string          `json:"status"`
	FromDate         string          `json:"from_date"`
	ToDate           string          `json:"to_date"`
	DaysStored       int             `json:"days_stored"`
	BaseCostIncluded bool            `json:"base_cost_included"`
	BaseCost         decimal.Decimal `json:"base_cost"`
	DailyRate        decimal.Decimal `json:"daily_rate"`
	StorageCost      decimal.Decimal `json:"storage_cost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

type closingResponse struct {
	CompanyID      int64                 `json:"company_id"`
	Period         string                `json:"period"`
	Currency       string                `json:"currency"`
	TotalDevices   int                   `json:"total_devices"`
	TotalCost      decimal.Decimal       `json:"total_cost"`
	TotalTax       decimal.Decimal       `json:"total_tax"`
	TotalWithTax   decimal.Decimal       `json:"total_with_tax"`
	SkippedDevices int                   `json:"skipped_devices"`
	IsClosed       bool                  `json:"is_closed"`
	ClosedAt       *time.Time            `json:"closed_at"`
	ClosedBy       string                `json:"closed_by"`
	RunID          string                `json:"run_id"`
	Calculations   []calculationResponse `json:"calculations"`
}

func newClosingResponse(r model.MonthlyReport) closingResponse {
	out := closingResponse{
		CompanyID:      r.CompanyID,
		Period:         period.Period{Year: r.Year, Month: time.Month(r.Month)}.String(),
		Currency:       r.Currency,
		TotalDevices:   r.TotalDevices,
		TotalCost:      r.TotalCost,
		TotalTax:       r.TotalTax,
		TotalWithTax:   r.TotalWithTax,
		SkippedDevices: r.SkippedDevices,
		IsClosed:       r.IsClosed,
		ClosedAt:       r.ClosedAt,
		ClosedBy:       r.ClosedBy,
		RunID:          r.RunID,
		Calculations:   make([]calculationResponse, 0, len(r.Calculations)),
	}
	for _, calc := range r.Calculations {
		out.Calculations = append(out.Calculations, calculationResponse{
			DeviceID:         calc.DeviceID,
			DeviceName:       calc.DeviceName,
			Status:           calc.Status,
			FromDate:         calc.FromDate.Format(period.DateLayout),
			ToDate:           calc.ToDate.Format(period.DateLayout),
			DaysStored:       calc.DaysStored,
			BaseCostIncluded: calc.BaseCostIncluded,
			BaseCost:         calc.BaseCost,
			DailyRate:        calc.DailyRate,
			StorageCost:      calc.StorageCost,
			Subtotal:         calc.Subtotal,
			TaxAmount:        calc.TaxAmount,
			TotalCost:        calc.TotalCost,
		})
	}
	return out
}

// PostClosing handles POST /api/companies/:company_id/closings/:period.
func (h *Handler) PostClosing(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	p, err := period.Parse(c.Param("period"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var req closingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
	}
	if req.ClosedBy == "" {
		req.ClosedBy = "api"
	}

	report, err := h.costs.CloseMonth(c.Request.Context(), id, p, req.ClosedBy)
	if errors.Is(err, costing.ErrAlreadyClosed) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "report": newClosingResponse(report)})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newClosingResponse(report))
}

// GetClosing handles GET /api/companies/:company_id/closings/:period.
func (h *Handler) GetClosing(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	p, err := period.Parse(c.Param("period"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := h.costs.ClosedMonth(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newClosingResponse(report))
}
