package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"fitts-go/internal/models"
	"fitts-go/internal/study"
)

// Header is the column layout of the trial log.
var Header = []string{"PID", "CT", "A", "W", "EWW", "MT", "MissedClicks"}

// CSV appends one row per trial to data_<cursor>.csv in a directory.
type CSV struct {
	dir string
	mu  sync.Mutex
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return &CSV{dir: dir}, nil
}

// Path returns the log file used for a cursor type.
func (c *CSV) Path(cursorType string) string {
	return filepath.Join(c.dir, fmt.Sprintf("data_%s.csv", cursorType))
}

func (c *CSV) RecordTrial(_ context.Context, _ string, rec study.TrialRecord) error {
	return c.append(rec.CursorType, Row(rec))
}

func (c *CSV) CompleteSession(context.Context, string, study.Summary) error { return nil }

// Row formats a record in Header order. MT is in seconds.
func Row(rec study.TrialRecord) []string {
	return []string{
		strconv.Itoa(rec.ParticipantID),
		rec.CursorType,
		formatFloat(rec.Amplitude),
		formatFloat(rec.TargetSize),
		formatFloat(rec.WidthRatio),
		formatFloat(rec.MovementTime.Seconds()),
		strconv.Itoa(rec.MissedClicks),
	}
}

// ResultRow formats a stored trial in Header order.
func ResultRow(t models.TrialResult) []string {
	return []string{
		strconv.Itoa(t.ParticipantID),
		t.CursorType,
		formatFloat(t.Amplitude),
		formatFloat(t.TargetSize),
		formatFloat(t.WidthRatio),
		formatFloat(t.MovementTime / 1000),
		strconv.Itoa(t.MissedClicks),
	}
}

func (c *CSV) append(cursorType string, row []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.Path(cursorType), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open trial log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
