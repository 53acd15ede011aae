package export

import (
	"fmt"
	"io"

	"fitts-go/internal/metrics"
	"fitts-go/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	TrialsSheet     = "Trials"
	ConditionsSheet = "Conditions"
)

var trialHeader = []any{
	"Session", "PID", "Cursor", "Trial", "Amplitude", "Width", "EWW",
	"ID", "MT (ms)", "Acquisition (ms)", "Missed clicks", "Degraded", "Completed",
}

var conditionHeader = []any{
	"Cursor", "Amplitude", "Width", "EWW", "ID", "Effective ID", "Trials",
	"Mean MT (ms)", "SD MT (ms)", "Error rate", "Throughput (bit/s)",
}

// WriteWorkbook writes the trials and their per-condition statistics as an
// XLSX workbook.
func WriteWorkbook(w io.Writer, trials []models.TrialResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TrialsSheet); err != nil {
		return err
	}
	if err := writeRow(f, TrialsSheet, 1, trialHeader); err != nil {
		return err
	}
	for i, t := range trials {
		row := []any{
			t.SessionID, t.ParticipantID, t.CursorType, t.TrialIndex + 1,
			t.Amplitude, t.TargetSize, t.WidthRatio,
			metrics.IndexOfDifficulty(t.Amplitude, t.TargetSize),
			t.MovementTime, t.AcquisitionTime, t.MissedClicks, t.DegradedPlacements,
			t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, TrialsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(ConditionsSheet); err != nil {
		return err
	}
	if err := writeRow(f, ConditionsSheet, 1, conditionHeader); err != nil {
		return err
	}
	for i, c := range metrics.CalculateConditionStats(trials) {
		row := []any{
			c.CursorType, c.Amplitude, c.TargetSize, c.WidthRatio, c.ID, c.EffectiveID,
			c.Trials, c.MeanMovementTime, c.MovementTimeSD, c.ErrorRate, c.Throughput,
		}
		if err := writeRow(f, ConditionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
