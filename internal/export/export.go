package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"storatrack-backend/internal/billing"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a requested export format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of files in format f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

const dateLayout = "2006-01-02"

var deviceCostHeader = []string{
	"Device ID", "Device", "Company", "Status", "Location", "Intake Date", "Calculation Date",
	"Period Start", "Period End", "Days Stored", "Base Cost", "Daily Rate", "Storage Cost",
	"Subtotal", "Tax %", "Tax", "Total", "Currency",
}

func deviceCostRow(cb billing.CostBreakdown) []string {
	return []string{
		strconv.FormatInt(cb.DeviceID, 10),
		cb.DeviceName,
		cb.TenantName,
		string(cb.Status),
		cb.Location,
		formatDate(cb.IntakeDate),
		formatDate(cb.CalculationDate),
		formatDate(cb.PeriodStart),
		formatDate(cb.PeriodEnd),
		strconv.Itoa(cb.DaysStored),
		formatMoney(cb.BaseCost),
		formatMoney(cb.DailyCost),
		formatMoney(cb.StorageCost),
		formatMoney(cb.Subtotal),
		formatMoney(cb.TaxPercent),
		formatMoney(cb.TaxAmount),
		formatMoney(cb.TotalCost),
		cb.Currency,
	}
}

func monthlyTotalsRow(r billing.MonthlyCostReport) []string {
	row := make([]string, len(deviceCostHeader))
	row[0] = "TOTAL"
	row[1] = fmt.Sprintf("%d devices", r.TotalDevices)
	row[2] = r.TenantName
	row[7] = formatDate(r.PeriodStart)
	row[8] = formatDate(r.PeriodEnd)
	row[13] = formatMoney(r.TotalSubtotal)
	row[15] = formatMoney(r.TotalTax)
	row[16] = formatMoney(r.TotalCost)
	row[17] = r.Currency
	return row
}

// DeviceCostCSV writes the cost report of a single device.
func DeviceCostCSV(w io.Writer, cb billing.CostBreakdown) error {
	return writeCSV(w, deviceCostHeader, [][]string{deviceCostRow(cb)})
}

// MonthlyReportCSV writes one row per device followed by a totals row.
func MonthlyReportCSV(w io.Writer, r billing.MonthlyCostReport) error {
	rows := make([][]string, 0, len(r.Devices)+1)
	for _, cb := range r.Devices {
		rows = append(rows, deviceCostRow(cb))
	}
	rows = append(rows, monthlyTotalsRow(r))
	return writeCSV(w, deviceCostHeader, rows)
}

// DeviceListCSV writes the current cost of a list of devices.
func DeviceListCSV(w io.Writer, costs []billing.CostBreakdown) error {
	rows := make([][]string, 0, len(costs))
	for _, cb := range costs {
		rows = append(rows, deviceCostRow(cb))
	}
	return writeCSV(w, deviceCostHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
