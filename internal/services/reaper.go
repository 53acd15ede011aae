package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically releases idle sessions from a Manager.
type Reaper struct {
	log     *zap.Logger
	manager *Manager
	every   time.Duration
	idle    time.Duration
}

func NewReaper(log *zap.Logger, manager *Manager, every, idle time.Duration) *Reaper {
	if every <= 0 {
		every = time.Minute
	}
	return &Reaper{
		log:     log,
		manager: manager,
		every:   every,
		idle:    idle,
	}
}

// Start runs the reaper in a goroutine until ctx is done.
func (r *Reaper) Start(ctx context.Context) {
	r.log.Info("Starting idle session reaper...", zap.Duration("every", r.every), zap.Duration("idle", r.idle))
	go func() {
		ticker := time.NewTicker(r.every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.log.Info("Idle session reaper stopped")
				return
			case <-ticker.C:
				r.runReap()
			}
		}
	}()
}

func (r *Reaper) runReap() {
	released := r.manager.ReapIdle(r.idle)
	if len(released) > 0 {
		r.log.Info("Released idle sessions", zap.Strings("sessions", released))
		return
	}
	r.log.Debug("No idle sessions", zap.Int("live", r.manager.Len()))
}
