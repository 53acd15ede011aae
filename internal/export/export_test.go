package export

import (
	"bytes"
	"testing"
	"time"

	"fitts-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trials := []models.TrialResult{
		{SessionID: "s1", ParticipantID: 7, CursorType: "bubble", TrialIndex: 0, Amplitude: 350, TargetSize: 50, WidthRatio: 2, MovementTime: 812.5, MissedClicks: 1, CreatedAt: created},
		{SessionID: "s1", ParticipantID: 7, CursorType: "bubble", TrialIndex: 1, Amplitude: 350, TargetSize: 50, WidthRatio: 2, MovementTime: 700, CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, trials))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TrialsSheet, ConditionsSheet}, f.GetSheetList())

	rows, err := f.GetRows(TrialsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Session", rows[0][0])
	assert.Equal(t, []string{"s1", "7", "bubble", "1", "350", "50", "2", "3", "812.5"}, rows[1][:9])
	assert.Equal(t, "2024-03-01 12:00:00", rows[1][12])

	conds, err := f.GetRows(ConditionsSheet)
	require.NoError(t, err)
	require.Len(t, conds, 2)
	assert.Equal(t, "bubble", conds[1][0])
	assert.Equal(t, "2", conds[1][6])
}

func TestWriteWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(TrialsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
