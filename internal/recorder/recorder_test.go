package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"testing"
	"time"

	"fitts-go/internal/models"
	"fitts-go/internal/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() study.TrialRecord {
	return study.TrialRecord{
		ParticipantID: 12,
		CursorType:    "bubble",
		Amplitude:     400,
		TargetSize:    32,
		WidthRatio:    1.5,
		MovementTime:  1250 * time.Millisecond,
		MissedClicks:  2,
	}
}

func TestCSV_WritesHeaderOnce(t *testing.T) {
	sink, err := NewCSV(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.RecordTrial(ctx, "s", sampleRecord()))
	require.NoError(t, sink.RecordTrial(ctx, "s", sampleRecord()))

	f, err := os.Open(sink.Path("bubble"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"12", "bubble", "400", "32", "1.5", "1.25", "2"}, rows[1])
}

func TestCSV_FilePerCursor(t *testing.T) {
	sink, err := NewCSV(t.TempDir())
	require.NoError(t, err)

	rec := sampleRecord()
	rec.CursorType = "point"
	require.NoError(t, sink.RecordTrial(context.Background(), "s", rec))

	_, err = os.Stat(sink.Path("point"))
	assert.NoError(t, err)
	_, err = os.Stat(sink.Path("bubble"))
	assert.True(t, os.IsNotExist(err))
}

type failingSink struct{ calls int }

func (f *failingSink) RecordTrial(context.Context, string, study.TrialRecord) error {
	f.calls++
	return errors.New("disk full")
}

func (f *failingSink) CompleteSession(context.Context, string, study.Summary) error {
	f.calls++
	return nil
}

func TestMulti_CallsEverySink(t *testing.T) {
	a, b := &failingSink{}, &failingSink{}
	m := Multi{a, b}

	err := m.RecordTrial(context.Background(), "s", sampleRecord())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.NoError(t, m.CompleteSession(context.Background(), "s", study.Summary{}))
	assert.Equal(t, 2, b.calls)
}

func TestResultRow_MatchesRecordRow(t *testing.T) {
	rec := sampleRecord()
	row := models.NewTrialResult("s1", rec)
	assert.Equal(t, Row(rec), ResultRow(row))
}
