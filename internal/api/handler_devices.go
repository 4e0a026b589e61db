package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storatrack-backend/internal/billing"
	"storatrack-backend/internal/export"
	"storatrack-backend/internal/period"
	"storatrack-backend/internal/store"
)

// GetDeviceCost handles GET /api/devices/:device_id/cost?date=YYYY-MM-DD.
func (h *Handler) GetDeviceCost(c *gin.Context) {
	id, ok := pathID(c, "device_id")
	if !ok {
		return
	}
	asOf, ok := h.optionalDate(c, "date")
	if !ok {
		return
	}

	cb, err := h.costs.DeviceCost(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cb)
}

// GetDeviceCostRange handles GET /api/devices/:device_id/cost/range?from=&to=.
func (h *Handler) GetDeviceCostRange(c *gin.Context) {
	id, ok := pathID(c, "device_id")
	if !ok {
		return
	}
	if c.Query("from") == "" || c.Query("to") == "" {
		badRequest(c, "from and to are required")
		return
	}
	from, ok := h.optionalDate(c, "from")
	if !ok {
		return
	}
	to, ok := h.optionalDate(c, "to")
	if !ok {
		return
	}

	cb, err := h.costs.DeviceCostRange(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cb)
}

// ExportDeviceCost handles GET /api/devices/:device_id/cost/export?format=csv|xlsx&date=.
func (h *Handler) ExportDeviceCost(c *gin.Context) {
	id, ok := pathID(c, "device_id")
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	asOf, ok := h.optionalDate(c, "date")
	if !ok {
		return
	}

	cb, err := h.costs.DeviceCost(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if format == export.FormatXLSX {
		err = export.DeviceCostXLSX(&buf, cb)
	} else {
		err = export.DeviceCostCSV(&buf, cb)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, format, fmt.Sprintf("device-%d-cost-%s", id, cb.CalculationDate.Format(period.DateLayout)), buf.Bytes())
}

type movementRequest struct {
	ToStatus     string     `json:"to_status" binding:"required"`
	ToLocationID *int64     `json:"to_location_id"`
	Note         string     `json:"note"`
	Actor        string     `json:"actor"`
	OccurredAt   *time.Time `json:"occurred_at"`
}

// PostMovement handles POST /api/devices/:device_id/movements.
func (h *Handler) PostMovement(c *gin.Context) {
	id, ok := pathID(c, "device_id")
	if !ok {
		return
	}
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	in := store.MovementInput{
		DeviceID:     id,
		ToStatus:     billing.DeviceStatus(req.ToStatus),
		ToLocationID: req.ToLocationID,
		Note:         req.Note,
		Actor:        req.Actor,
	}
	if req.OccurredAt != nil {
		in.OccurredAt = *req.OccurredAt
	}

	rec, err := h.costs.RecordMovement(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ExportDevices handles GET /api/devices/export?company_id=&status=&include_inactive=.
func (h *Handler) ExportDevices(c *gin.Context) {
	var filter store.DeviceFilter
	if raw := c.Query("company_id"); raw != "" {
		companyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid company_id")
			return
		}
		filter.CompanyID = companyID
	}
	if raw := c.Query("status"); raw != "" {
		status, err := billing.ParseStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		filter.Status = status
	}
	opts, ok := fleetOptions(c)
	if !ok {
		return
	}
	filter.IncludeInactive = opts.IncludeInactive

	costs, err := h.costs.DeviceCosts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.DeviceListCSV(&buf, costs); err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, export.FormatCSV, "devices", buf.Bytes())
}

// optionalDate parses a YYYY-MM-DD query parameter in the billing timezone.
// A missing parameter yields the zero time.
func (h *Handler) optionalDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := period.ParseDate(raw, h.costs.Location())
	if err != nil {
		badRequest(c, err.Error())
		return time.Time{}, false
	}
	return t, true
}

func sendFile(c *gin.Context, format export.Format, name string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	c.Data(http.StatusOK, format.ContentType(), body)
}
