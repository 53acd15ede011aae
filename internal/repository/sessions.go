package repository

import (
	"context"
	"errors"
	"fmt"

	"fitts-go/internal/models"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when no study session has the given id.
var ErrSessionNotFound = errors.New("study session not found")

// Store persists study sessions and their trial results.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateSession inserts a new study session.
func (s *Store) CreateSession(ctx context.Context, session *models.StudySession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession loads a study session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*models.StudySession, error) {
	var session models.StudySession
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns a participant's sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, participantID int) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := s.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// CompleteSession marks a session as finished.
func (s *Store) CompleteSession(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.StudySession{}).
		Where("id = ?", id).
		Update("is_complete", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
