package models

import (
	"time"

	"fitts-go/internal/study"
)

// TrialResult holds one completed trial. Times are in milliseconds.
type TrialResult struct {
	ID                 int       `gorm:"primaryKey" json:"id"`
	SessionID          string    `gorm:"size:36;index" json:"sessionId"`
	ParticipantID      int       `gorm:"index" json:"participantId"`
	CursorType         string    `gorm:"size:16" json:"cursorType"`
	TrialIndex         int       `json:"trialIndex"`
	Amplitude          float64   `json:"amplitude"`
	TargetSize         float64   `json:"targetSize"`
	WidthRatio         float64   `json:"widthRatio"`
	MovementTime       float64   `json:"movementTime"`
	AcquisitionTime    float64   `json:"acquisitionTime"`
	MissedClicks       int       `json:"missedClicks"`
	StartX             float64   `json:"startX"`
	StartY             float64   `json:"startY"`
	GoalX              float64   `json:"goalX"`
	GoalY              float64   `json:"goalY"`
	Distractors        int       `json:"distractors"`
	DegradedPlacements int       `json:"degradedPlacements"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NewTrialResult converts a session record into a row.
func NewTrialResult(sessionID string, rec study.TrialRecord) TrialResult {
	return TrialResult{
		SessionID:          sessionID,
		ParticipantID:      rec.ParticipantID,
		CursorType:         rec.CursorType,
		TrialIndex:         rec.TrialIndex,
		Amplitude:          rec.Amplitude,
		TargetSize:         rec.TargetSize,
		WidthRatio:         rec.WidthRatio,
		MovementTime:       millis(rec.MovementTime),
		AcquisitionTime:    millis(rec.AcquisitionTime),
		MissedClicks:       rec.MissedClicks,
		StartX:             rec.Start.X,
		StartY:             rec.Start.Y,
		GoalX:              rec.Goal.X,
		GoalY:              rec.Goal.Y,
		Distractors:        rec.Distractors,
		DegradedPlacements: rec.DegradedPlacements,
		CreatedAt:          rec.CompletedAt,
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
