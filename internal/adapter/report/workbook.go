// Package report renders dashboard views as downloadable files: an Excel
// workbook for the metrics table and PNG charts for the series views.
package report

import (
	"fmt"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	metricsSheet = "Metrics"
	summarySheet = "Summary"
)

// MetricsWorkbook writes the metrics table, in the given order, to an XLSX
// file. The relative error column is labelled after the schema it came from.
func MetricsWorkbook(table []domain.EntityMetrics, version domain.SchemaVersion) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Per-entity model metrics",
		Subject: "Energy consumption model evaluation",
		Creator: "energy-dashboard",
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	idx, err := f.NewSheet(metricsSheet)
	if err != nil {
		return nil, fmt.Errorf("create metrics sheet: %w", err)
	}
	if err := writeMetricsSheet(f, table, version); err != nil {
		return nil, fmt.Errorf("write metrics sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, table, version); err != nil {
		return nil, fmt.Errorf("write summary sheet: %w", err)
	}

	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func relativeErrorHeader(version domain.SchemaVersion) string {
	if version == domain.SchemaV2 {
		return "MAPE (%)"
	}
	return "Relative error (%)"
}

func writeMetricsSheet(f *excelize.File, table []domain.EntityMetrics, version domain.SchemaVersion) error {
	headers := []string{"Entity", "Name", "Points", "Mean value", "RMSE", "MAE", "R2", relativeErrorHeader(version)}
	for i, h := range headers {
		if err := f.SetCellValue(metricsSheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}

	for i, m := range table {
		row := i + 2
		values := []any{m.EntityID, m.Name, m.Points, m.MeanValue, m.RMSE, m.MAE, nil, m.RelativeError}
		if m.HasR2 {
			values[6] = m.R2
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			if err := f.SetCellValue(metricsSheet, cell(col+1, row), v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(metricsSheet, "A", "A", 10); err != nil {
		return err
	}
	if err := f.SetColWidth(metricsSheet, "B", "B", 32); err != nil {
		return err
	}
	return f.SetColWidth(metricsSheet, "C", colLetter(len(headers)), 16)
}

func writeSummarySheet(f *excelize.File, table []domain.EntityMetrics, version domain.SchemaVersion) error {
	stats := []struct {
		label string
		value any
	}{
		{"Schema", version.String()},
		{"Entities", len(table)},
	}
	if mean, ok := domain.MeanRelativeError(table); ok {
		stats = append(stats, struct {
			label string
			value any
		}{"Mean " + relativeErrorHeader(version), mean})
	}

	for i, s := range stats {
		if err := f.SetCellValue(summarySheet, cell(1, i+1), s.label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, cell(2, i+1), s.value); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}

func cell(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func colLetter(col int) string {
	l, _ := excelize.ColumnNumberToName(col)
	return l
}
