package repository

import (
	"context"
	"fmt"

	"fitts-go/internal/models"

	"gorm.io/gorm"
)

// ConditionSummary aggregates the trials of one condition for one cursor type.
type ConditionSummary struct {
	CursorType       string  `json:"cursorType"`
	Amplitude        float64 `json:"amplitude"`
	TargetSize       float64 `json:"targetSize"`
	WidthRatio       float64 `json:"widthRatio"`
	Trials           int     `json:"trials"`
	ErrorTrials      int     `json:"errorTrials"`
	MeanMovementTime float64 `json:"meanMovementTime"`
	MeanMissedClicks float64 `json:"meanMissedClicks"`
}

// SaveTrialTx stores a trial and advances the session's progress counter in
// a single transaction.
func (s *Store) SaveTrialTx(ctx context.Context, result *models.TrialResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("insert trial %d: %w", result.TrialIndex, err)
		}
		res := tx.Model(&models.StudySession{}).
			Where("id = ?", result.SessionID).
			Update("completed_trials", result.TrialIndex+1)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// ListTrials returns a session's trials in trial order.
func (s *Store) ListTrials(ctx context.Context, sessionID string) ([]models.TrialResult, error) {
	var trials []models.TrialResult
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("trial_index").
		Find(&trials).Error
	return trials, err
}

// ListParticipantTrials returns every trial of a participant across sessions.
func (s *Store) ListParticipantTrials(ctx context.Context, participantID int) ([]models.TrialResult, error) {
	var trials []models.TrialResult
	err := s.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at, session_id, trial_index").
		Find(&trials).Error
	return trials, err
}

// ConditionSummaries groups a participant's trials by cursor and condition.
func (s *Store) ConditionSummaries(ctx context.Context, participantID int) ([]ConditionSummary, error) {
	var out []ConditionSummary
	err := s.db.WithContext(ctx).
		Model(&models.TrialResult{}).
		Select(`cursor_type, amplitude, target_size, width_ratio,
			COUNT(*) AS trials,
			SUM(CASE WHEN missed_clicks > 0 THEN 1 ELSE 0 END) AS error_trials,
			AVG(movement_time) AS mean_movement_time,
			AVG(missed_clicks) AS mean_missed_clicks`).
		Where("participant_id = ?", participantID).
		Group("cursor_type, amplitude, target_size, width_ratio").
		Order("cursor_type, amplitude, target_size, width_ratio").
		Scan(&out).Error
	return out, err
}
