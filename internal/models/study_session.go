package models

import (
	"time"

	"fitts-go/internal/study"
)

// StudySession is one participant's run through a block.
type StudySession struct {
	ID              string              `gorm:"primaryKey;size:36" json:"id"`
	ParticipantID   int                 `gorm:"index" json:"participantId"`
	CursorType      string              `gorm:"size:16" json:"cursorType"`
	DesignName      string              `json:"designName"`
	Seed            uint64              `json:"seed"`
	Block           study.BlockSequence `gorm:"serializer:json" json:"block"`
	TrialCount      int                 `json:"trialCount"`
	CompletedTrials int                 `json:"completedTrials"`
	IsComplete      bool                `json:"isComplete"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
