package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"storatrack-backend/internal/billing"
)

const (
	deviceSheet  = "Device Cost"
	monthlySheet = "Monthly Report"
)

// DeviceCostXLSX writes the cost report of a single device as a workbook.
func DeviceCostXLSX(w io.Writer, cb billing.CostBreakdown) error {
	return writeXLSX(w, deviceSheet, deviceCostHeader, [][]string{deviceCostRow(cb)}, false)
}

// MonthlyReportXLSX writes one row per device followed by a bold totals row.
func MonthlyReportXLSX(w io.Writer, r billing.MonthlyCostReport) error {
	rows := make([][]string, 0, len(r.Devices)+1)
	for _, cb := range r.Devices {
		rows = append(rows, deviceCostRow(cb))
	}
	rows = append(rows, monthlyTotalsRow(r))
	return writeXLSX(w, monthlySheet+" "+r.PeriodLabel, deviceCostHeader, rows, true)
}

func writeXLSX(w io.Writer, sheetName string, header []string, rows [][]string, boldLastRow bool) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := setRow(f, sheetName, 1, header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("failed to convert column: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, row := range rows {
		if err := setRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}
	if boldLastRow && len(rows) > 0 {
		last := len(rows) + 1
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", last), fmt.Sprintf("%s%d", lastCol, last), bold); err != nil {
			return fmt.Errorf("failed to set totals style: %w", err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", lastCol, 16); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
