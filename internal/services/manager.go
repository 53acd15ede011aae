package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"fitts-go/internal/config"
	"fitts-go/internal/models"
	"fitts-go/internal/recorder"
	"fitts-go/internal/repository"
	"fitts-go/internal/study"
	"fitts-go/internal/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotLive = errors.New("session is not live")
	ErrBadRequest     = errors.New("invalid session request")
)

const (
	ClockClient = "client"
	ClockServer = "server"
)

// subscriberBuffer is the number of notifications queued per subscriber
// before it is dropped.
const subscriberBuffer = 64

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Design *config.Design
	Store  *repository.Store
	Sink   recorder.Sink
	Logger *zap.Logger
	// Clock is ClockClient or ClockServer.
	Clock string
	Now   func() time.Time
}

// CreateRequest starts a session. A nil Seed draws a random one; an empty
// CursorType uses the design's.
type CreateRequest struct {
	ParticipantID int     `json:"participantId" binding:"required,min=1"`
	CursorType    string  `json:"cursorType"`
	Seed          *uint64 `json:"seed"`
}

// Manager owns the live sessions. Events for one session are applied under
// that session's lock in arrival order.
type Manager struct {
	design *config.Design
	store  *repository.Store
	sink   recorder.Sink
	log    *zap.Logger
	clock  string
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Live
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Design == nil {
		return nil, fmt.Errorf("%w: manager needs a study design", study.ErrInvalidConfiguration)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch opts.Clock {
	case "":
		opts.Clock = ClockClient
	case ClockClient, ClockServer:
	default:
		return nil, fmt.Errorf("%w: unknown clock %q", study.ErrInvalidConfiguration, opts.Clock)
	}
	return &Manager{
		design:   opts.Design,
		store:    opts.Store,
		sink:     opts.Sink,
		log:      opts.Logger.Named("sessions"),
		clock:    opts.Clock,
		now:      opts.Now,
		sessions: make(map[string]*Live),
	}, nil
}

// Live is a session held in memory together with its subscribers.
type Live struct {
	ID   string
	Seed uint64

	mu          sync.Mutex
	session     *study.TrialSession
	lastEvent   time.Time
	pending     []Notification
	subscribers map[chan Notification]struct{}
}

// Create builds a block for the participant, persists the session and
// makes it live.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Live, study.SessionState, error) {
	if req.ParticipantID < 1 {
		return nil, study.SessionState{}, fmt.Errorf("%w: participant id must be positive", ErrBadRequest)
	}
	cursor := req.CursorType
	if cursor == "" {
		cursor = m.design.CursorType
	}
	if !config.ValidCursor(cursor) {
		return nil, study.SessionState{}, fmt.Errorf("%w: unknown cursor type %q", ErrBadRequest, cursor)
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	block, err := m.design.Block(rng)
	if err != nil {
		return nil, study.SessionState{}, err
	}
	planner, err := study.NewPlanner(m.design.PlannerConfig(), rng)
	if err != nil {
		return nil, study.SessionState{}, err
	}

	live := &Live{
		ID:          uuid.NewString(),
		Seed:        seed,
		lastEvent:   m.now(),
		subscribers: make(map[chan Notification]struct{}),
	}
	session, err := study.NewTrialSession(study.SessionConfig{
		ParticipantID: req.ParticipantID,
		CursorType:    cursor,
		Block:         block,
		Pool:          study.NewTargetPool(),
		Planner:       planner,
		Listener:      live.listener(),
		Logger:        m.log.With(zap.String("session", live.ID)),
		StartSize:     m.design.StartSize,
		Now:           m.now,
	})
	if err != nil {
		return nil, study.SessionState{}, err
	}
	live.session = session

	if m.store != nil {
		record := &models.StudySession{
			ID:            live.ID,
			ParticipantID: req.ParticipantID,
			CursorType:    cursor,
			DesignName:    m.design.Name,
			Seed:          seed,
			Block:         block,
			TrialCount:    len(block),
		}
		if err := m.store.CreateSession(ctx, record); err != nil {
			return nil, study.SessionState{}, err
		}
	}

	m.mu.Lock()
	m.sessions[live.ID] = live
	m.mu.Unlock()
	telemetry.SessionStarted()

	m.log.Info("Session created",
		zap.String("session", live.ID),
		zap.Int("participant", req.ParticipantID),
		zap.String("cursor", cursor),
		zap.Uint64("seed", seed),
		zap.Int("trials", len(block)),
	)
	return live, session.Snapshot(), nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Live, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	live, ok := m.sessions[id]
	return live, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshot returns the current state of a live session.
func (m *Manager) Snapshot(id string) (study.SessionState, error) {
	live, ok := m.Get(id)
	if !ok {
		return study.SessionState{}, ErrSessionNotLive
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.session.Snapshot(), nil
}

// Apply delivers ev to the session and returns the resulting state. Per-event
// errors (see study.IsIgnorable) leave the session unchanged and are also
// pushed to subscribers as an ignored notification.
func (m *Manager) Apply(ctx context.Context, id string, ev Event) (study.SessionState, error) {
	live, ok := m.Get(id)
	if !ok {
		return study.SessionState{}, ErrSessionNotLive
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	now := m.now()
	if m.clock == ClockServer {
		live.session.Tick(now.Sub(live.lastEvent))
		if ev.Type == EventTick {
			ev.DeltaMS = 0
		}
	}
	live.lastEvent = now

	err := ev.apply(live.session)
	if err != nil {
		reason := IgnoreReason(err)
		telemetry.EventIgnored(reason)
		live.broadcast(Notification{Type: NotifyIgnored, Reason: reason, Error: err.Error()})
	}

	m.flush(ctx, live)

	state := live.session.Snapshot()
	if ev.Type != EventTick {
		live.broadcast(Notification{Type: NotifyState, State: &state})
	}
	return state, err
}

// flush hands the records produced by the last event to the sinks and
// subscribers. Sink failures are logged; the session keeps running.
func (m *Manager) flush(ctx context.Context, live *Live) {
	pending := live.pending
	live.pending = nil

	for _, n := range pending {
		switch {
		case n.Trial != nil:
			rec := *n.Trial
			telemetry.TrialCompleted(rec.CursorType, rec.MovementTime, rec.MissedClicks, rec.DegradedPlacements)
			if m.sink != nil {
				if err := m.sink.RecordTrial(ctx, live.ID, rec); err != nil {
					telemetry.SinkFailed()
					m.log.Error("Failed to record trial",
						zap.String("session", live.ID),
						zap.Int("trial", rec.TrialIndex),
						zap.Error(err),
					)
				}
			}
		case n.Summary != nil:
			telemetry.SessionCompleted(n.Summary.CursorType)
			if m.sink != nil {
				if err := m.sink.CompleteSession(ctx, live.ID, *n.Summary); err != nil {
					telemetry.SinkFailed()
					m.log.Error("Failed to complete session", zap.String("session", live.ID), zap.Error(err))
				}
			}
		}
		live.broadcast(n)
	}
}

// Subscribe registers for notifications of a live session. The returned
// channel is closed by cancel, when the session is released, or when the
// subscriber falls too far behind.
func (m *Manager) Subscribe(id string) (<-chan Notification, func(), error) {
	live, ok := m.Get(id)
	if !ok {
		return nil, nil, ErrSessionNotLive
	}
	ch := make(chan Notification, subscriberBuffer)

	live.mu.Lock()
	live.subscribers[ch] = struct{}{}
	live.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			live.mu.Lock()
			defer live.mu.Unlock()
			if _, ok := live.subscribers[ch]; ok {
				delete(live.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// Release drops a session from memory. It reports whether it was live.
func (m *Manager) Release(id string) bool {
	m.mu.Lock()
	live, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}

	live.mu.Lock()
	for ch := range live.subscribers {
		delete(live.subscribers, ch)
		close(ch)
	}
	live.mu.Unlock()
	telemetry.SessionReleased()
	return true
}

// ReapIdle releases every session whose last event is older than idle.
// Completed sessions are released on the same schedule.
func (m *Manager) ReapIdle(idle time.Duration) []string {
	cutoff := m.now().Add(-idle)

	m.mu.RLock()
	var stale []string
	for id, live := range m.sessions {
		live.mu.Lock()
		if live.lastEvent.Before(cutoff) {
			stale = append(stale, id)
		}
		live.mu.Unlock()
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Release(id)
	}
	return stale
}

func (l *Live) listener() study.Listener {
	return study.ListenerFuncs{
		OnTrial: func(r study.TrialRecord) {
			l.pending = append(l.pending, Notification{Type: NotifyTrial, Trial: &r})
		},
		OnSession: func(s study.Summary) {
			l.pending = append(l.pending, Notification{Type: NotifySession, Summary: &s})
		},
	}
}

// broadcast must be called with l.mu held.
func (l *Live) broadcast(n Notification) {
	for ch := range l.subscribers {
		select {
		case ch <- n:
		default:
			delete(l.subscribers, ch)
			close(ch)
		}
	}
}
