package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/gridcast/internal/domain/training"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	PredictionsSheet = "Predictions"
	RunSheet         = "Run"
)

// WriteXLSX writes a workbook with the ranked predictions and a run summary.
func WriteXLSX(w io.Writer, r *training.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PredictionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := []interface{}{"Rank", "Driver Number", "Driver", "Team", "Score", "Actual Position"}
	if err := f.SetSheetRow(PredictionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range r.Predictions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Rank, e.Driver.Number, e.Driver.Name, e.Driver.Team, e.Score, nil}
		if e.Actual != nil {
			row[5] = *e.Actual
		}
		if err := f.SetSheetRow(PredictionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Run", r.RunID},
		{"Event", r.Target.String()},
		{"Model", r.Model},
		{"Training events", len(r.TrainingEvents)},
		{"Training rows", r.TrainingRows},
		{"Features", r.Features},
		{"Skipped events", len(r.Skipped)},
		{"MAE", metricCell(r, func(m *training.Metrics) *float64 { return &m.MAE })},
		{"R2", metricCell(r, func(m *training.Metrics) *float64 { return m.R2 })},
		{"Created", r.CreatedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RunSheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func metricCell(r *training.Report, pick func(*training.Metrics) *float64) interface{} {
	if r.Metrics == nil {
		return unavailable
	}
	if v := pick(r.Metrics); v != nil {
		return *v
	}
	return unavailable
}
