package recorder

import (
	"context"
	"errors"

	"fitts-go/internal/models"
	"fitts-go/internal/repository"
	"fitts-go/internal/study"
)

// Sink durably records completed trials.
type Sink interface {
	RecordTrial(ctx context.Context, sessionID string, rec study.TrialRecord) error
	CompleteSession(ctx context.Context, sessionID string, summary study.Summary) error
}

// Multi fans every call out to all sinks and joins their errors.
type Multi []Sink

func (m Multi) RecordTrial(ctx context.Context, sessionID string, rec study.TrialRecord) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.RecordTrial(ctx, sessionID, rec))
	}
	return errors.Join(errs...)
}

func (m Multi) CompleteSession(ctx context.Context, sessionID string, summary study.Summary) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.CompleteSession(ctx, sessionID, summary))
	}
	return errors.Join(errs...)
}

// DB writes trial rows through the repository.
type DB struct {
	store *repository.Store
}

func NewDB(store *repository.Store) *DB {
	return &DB{store: store}
}

func (d *DB) RecordTrial(ctx context.Context, sessionID string, rec study.TrialRecord) error {
	row := models.NewTrialResult(sessionID, rec)
	return d.store.SaveTrialTx(ctx, &row)
}

func (d *DB) CompleteSession(ctx context.Context, sessionID string, _ study.Summary) error {
	return d.store.CompleteSession(ctx, sessionID)
}
