package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storatrack-backend/internal/export"
	"storatrack-backend/internal/period"
)

const defaultMonthsBack = 12

// GetMonthlyCost handles GET /api/companies/:company_id/monthly?period=YYYY-MM (or year=&month=).
func (h *Handler) GetMonthlyCost(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	p, err := period.FromQuery(c.Query("period"), c.Query("year"), c.Query("month"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	opts, ok := fleetOptions(c)
	if !ok {
		return
	}

	report, err := h.costs.MonthlyCost(c.Request.Context(), id, p, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportMonthlyCost handles GET /api/companies/:company_id/monthly/export?period=&format=.
func (h *Handler) ExportMonthlyCost(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	p, err := period.FromQuery(c.Query("period"), c.Query("year"), c.Query("month"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	opts, ok := fleetOptions(c)
	if !ok {
		return
	}

	report, err := h.costs.MonthlyCost(c.Request.Context(), id, p, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if format == export.FormatXLSX {
		err = export.MonthlyReportXLSX(&buf, report)
	} else {
		err = export.MonthlyReportCSV(&buf, report)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, format, fmt.Sprintf("company-%d-monthly-%s", id, p), buf.Bytes())
}

// GetSummary handles GET /api/companies/:company_id/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	opts, ok := fleetOptions(c)
	if !ok {
		return
	}

	summary, err := h.costs.Summary(c.Request.Context(), id, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetHistoricalCosts handles GET /api/companies/:company_id/historical?months_back=.
func (h *Handler) GetHistoricalCosts(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	monthsBack, err := period.ParseMonthsBack(c.Query("months_back"), min(defaultMonthsBack, h.maxMonthsBack), h.maxMonthsBack)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	opts, ok := fleetOptions(c)
	if !ok {
		return
	}

	reports, err := h.costs.HistoricalCosts(c.Request.Context(), id, monthsBack, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company_id": id, "months_back": monthsBack, "months": reports})
}

// GetStatusBreakdown handles GET /api/companies/:company_id/breakdown.
func (h *Handler) GetStatusBreakdown(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	opts, ok := fleetOptions(c)
	if !ok {
		return
	}

	breakdown, err := h.costs.StatusBreakdown(c.Request.Context(), id, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}
